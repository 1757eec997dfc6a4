// Package webhook links inbound Telegram chats to marketing contacts.
//
// A sender is matched by mobile number first and by name second. On a match
// the chat id is stored on the contact so the Telegram channel can reach it.
package webhook

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
	"github.com/lueurxax/job-digest-notifier/internal/platform/observability"
)

var (
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]*\d`)
	nonDigit     = regexp.MustCompile(`\D`)
)

// Result describes how one update was handled.
type Result struct {
	UpdateID  int    `json:"updateId"`
	Status    string `json:"status"`
	ContactID int64  `json:"contactId,omitempty"`
	MatchedBy string `json:"matchedBy,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Matcher resolves senders to contacts and replies in the chat.
type Matcher struct {
	linker      ports.ContactLinker
	sender      ports.MessageSender
	brand       string
	botUsername string
	logger      *zerolog.Logger
}

// NewMatcher creates a matcher. When botUsername is set, commands addressed
// to a different bot ("/start@OtherBot") are ignored.
func NewMatcher(linker ports.ContactLinker, sender ports.MessageSender, brand, botUsername string, logger *zerolog.Logger) *Matcher {
	return &Matcher{
		linker:      linker,
		sender:      sender,
		brand:       brand,
		botUsername: strings.TrimPrefix(botUsername, "@"),
		logger:      logger,
	}
}

// Handle processes one update. Failures are reported in the result and as a
// generic reply, never as an error.
func (m *Matcher) Handle(ctx context.Context, update tgbotapi.Update) Result {
	res := m.handle(ctx, update)

	observability.WebhookUpdates.WithLabelValues(res.Status).Inc()
	m.logger.Debug().Int(LogFieldUpdateID, res.UpdateID).Str(LogFieldStatus, res.Status).Msg("webhook update handled")

	return res
}

func (m *Matcher) handle(ctx context.Context, update tgbotapi.Update) Result {
	res := Result{UpdateID: update.UpdateID, Status: StatusIgnored}

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return res
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	logger := m.logger.With().Int(LogFieldUpdateID, update.UpdateID).Str(LogFieldChatID, chatID).Logger()

	name, bot, isCommand := parseCommand(msg)
	if isCommand && bot != "" && m.botUsername != "" && !strings.EqualFold(bot, m.botUsername) {
		return res
	}

	if isCommand && name == commandStart {
		res.Status = StatusStart
		m.reply(ctx, chatID, fmt.Sprintf(msgOnboarding, m.brand), &logger)

		return res
	}

	contact, matchedBy, err := m.resolve(ctx, msg)
	if err != nil {
		logger.Error().Err(err).Msg("contact lookup failed")

		res.Status = StatusError
		m.reply(ctx, chatID, msgError, &logger)

		return res
	}

	if matchedBy == "" {
		res.Status = StatusUnmatched
		m.reply(ctx, chatID, msgUnmatched, &logger)

		return res
	}

	linked, err := m.linker.LinkTelegramChat(ctx, contact.ID, chatID)
	if err != nil {
		logger.Error().Err(err).Int64(LogFieldContactID, contact.ID).Msg("failed to link telegram chat")

		res.Status = StatusError
		m.reply(ctx, chatID, msgError, &logger)

		return res
	}

	res.Status = StatusLinked
	res.ContactID = linked.ID
	res.MatchedBy = matchedBy

	logger.Info().Int64(LogFieldContactID, linked.ID).Str(LogFieldMatchedBy, matchedBy).Msg("telegram chat linked to contact")

	m.reply(ctx, chatID, fmt.Sprintf(msgLinked, displayName(linked)), &logger)

	return res
}

func (m *Matcher) reply(ctx context.Context, chatID, text string, logger *zerolog.Logger) {
	if _, err := m.sender.SendMessage(ctx, chatID, text); err != nil {
		logger.Warn().Err(err).Msg("failed to reply to telegram chat")
	}
}

// parseCommand splits a leading "/name@bot" command, with or without a
// bot_command entity. name is lowercased and bot is empty without a suffix.
func parseCommand(msg *tgbotapi.Message) (name, bot string, ok bool) {
	var raw string

	if msg.IsCommand() {
		raw = msg.CommandWithAt()
	} else {
		fields := strings.Fields(msg.Text)
		if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
			return "", "", false
		}

		raw = strings.TrimPrefix(fields[0], "/")
	}

	name, bot, _ = strings.Cut(raw, "@")

	return strings.ToLower(name), bot, true
}

// resolve returns the matched contact and the strategy that found it. An
// empty strategy with a nil error means no contact matched.
func (m *Matcher) resolve(ctx context.Context, msg *tgbotapi.Message) (domain.Contact, string, error) {
	if digits := phoneDigits(msg); digits != "" {
		c, by, err := m.matchMobile(ctx, digits)
		if err != nil || by != "" {
			return c, by, err
		}
	}

	return m.matchName(ctx, nameCandidates(msg))
}

type mobileStrategy struct {
	mode  ports.MobileMatch
	label string
	value func(digits string) string
}

var mobileStrategies = []mobileStrategy{
	{mode: ports.MobileExact, label: MatchMobileExact, value: func(d string) string { return d }},
	{mode: ports.MobileDigitsOnly, label: MatchMobileDigits, value: func(d string) string { return d }},
	{mode: ports.MobileNationalSuffix, label: MatchMobileNational, value: nationalNumber},
}

func (m *Matcher) matchMobile(ctx context.Context, digits string) (domain.Contact, string, error) {
	for _, s := range mobileStrategies {
		value := s.value(digits)
		if value == "" {
			continue
		}

		found, err := m.linker.FindContactsByMobile(ctx, s.mode, value, lookupLimit)
		if err != nil {
			return domain.Contact{}, "", fmt.Errorf("find contact by mobile: %w", err)
		}

		if len(found) > 0 {
			return found[0], s.label, nil
		}
	}

	return domain.Contact{}, "", nil
}

type nameStrategy struct {
	mode  ports.NameMatch
	label string
	// unique rejects the match when more than one contact is found.
	unique bool
	value  func(name string) string
}

var nameStrategies = []nameStrategy{
	{mode: ports.NameExact, label: MatchNameExact, value: func(n string) string { return n }},
	{mode: ports.NameFirstOnly, label: MatchNameFirst, unique: true, value: firstToken},
	{mode: ports.NameReversed, label: MatchNameReversed, value: multiToken},
	{mode: ports.NameSubstring, label: MatchNameSubstring, unique: true, value: substringCandidate},
}

func (m *Matcher) matchName(ctx context.Context, candidates []string) (domain.Contact, string, error) {
	for _, s := range nameStrategies {
		for _, name := range candidates {
			value := s.value(name)
			if value == "" {
				continue
			}

			found, err := m.linker.FindContactsByName(ctx, s.mode, value, lookupLimit)
			if err != nil {
				return domain.Contact{}, "", fmt.Errorf("find contact by name: %w", err)
			}

			if len(found) == 0 || (s.unique && len(found) > 1) {
				continue
			}

			return found[0], s.label, nil
		}
	}

	return domain.Contact{}, "", nil
}

// phoneDigits extracts a phone number from a shared contact or the message
// text. It returns "" when fewer than minPhoneDigits digits are present.
func phoneDigits(msg *tgbotapi.Message) string {
	if msg.Contact != nil {
		if d := nonDigit.ReplaceAllString(msg.Contact.PhoneNumber, ""); len(d) >= minPhoneDigits {
			return d
		}
	}

	best := ""

	for _, match := range phonePattern.FindAllString(msg.Text, -1) {
		if d := nonDigit.ReplaceAllString(match, ""); len(d) > len(best) {
			best = d
		}
	}

	if len(best) < minPhoneDigits {
		return ""
	}

	return best
}

// nationalNumber drops a leading country code. A number of exactly national
// length is already national; a shorter one cannot be matched by suffix.
func nationalNumber(digits string) string {
	if len(digits) < nationalDigits {
		return ""
	}

	return digits[len(digits)-nationalDigits:]
}

// nameCandidates collects normalized names from the sender profile, a shared
// contact card and the message text, without duplicates.
func nameCandidates(msg *tgbotapi.Message) []string {
	var raw []string

	if msg.From != nil {
		raw = append(raw, msg.From.FirstName+" "+msg.From.LastName)
	}

	if msg.Contact != nil {
		raw = append(raw, msg.Contact.FirstName+" "+msg.Contact.LastName)
	}

	if text := strings.TrimSpace(msg.Text); text != "" && !strings.HasPrefix(text, "/") && phonePattern.FindString(text) == "" {
		raw = append(raw, text)
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))

	for _, r := range raw {
		n := normalizeName(r)
		if n == "" || seen[n] {
			continue
		}

		seen[n] = true
		out = append(out, n)
	}

	return out
}

// normalizeName lowercases and collapses whitespace the same way stored
// names are compared.
func normalizeName(s string) string {
	return strings.Join(strings.Fields(cases.Lower(language.Und).String(s)), " ")
}

func firstToken(name string) string {
	first, _, _ := strings.Cut(name, " ")
	return first
}

func multiToken(name string) string {
	if !strings.Contains(name, " ") {
		return ""
	}

	return name
}

func substringCandidate(name string) string {
	if len([]rune(name)) < minSubstringRunes {
		return ""
	}

	return name
}

func displayName(c domain.Contact) string {
	if first := c.FirstName(); first != "" {
		return cases.Title(language.Und).String(first)
	}

	return "there"
}
