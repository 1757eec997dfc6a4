package mocks

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
)

const nationalDigits = 10

var nonDigit = regexp.MustCompile(`\D`)

// ContactLinker is a thread-safe in-memory implementation of ports.ContactLinker.
type ContactLinker struct {
	mu       sync.Mutex
	contacts []domain.Contact

	MobileLookups []ports.MobileMatch
	NameLookups   []ports.NameMatch

	// LinkTelegramChatFn allows overriding LinkTelegramChat behavior.
	LinkTelegramChatFn func(ctx context.Context, contactID int64, chatID string) (domain.Contact, error)
}

var _ ports.ContactLinker = (*ContactLinker)(nil)

// NewContactLinker creates a linker over contacts.
func NewContactLinker(contacts ...domain.Contact) *ContactLinker {
	return &ContactLinker{contacts: contacts}
}

// FindContactsByMobile mirrors the SQL comparison modes in memory.
func (l *ContactLinker) FindContactsByMobile(_ context.Context, mode ports.MobileMatch, digits string, limit int) ([]domain.Contact, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.MobileLookups = append(l.MobileLookups, mode)

	return l.filter(limit, func(c domain.Contact) bool {
		stored := nonDigit.ReplaceAllString(c.MobileNo, "")

		switch mode {
		case ports.MobileExact:
			return c.MobileNo == digits
		case ports.MobileDigitsOnly:
			return stored == digits
		case ports.MobileNationalSuffix:
			return len(stored) >= nationalDigits && stored[len(stored)-nationalDigits:] == digits
		}

		return false
	}), nil
}

// FindContactsByName mirrors the SQL comparison modes in memory.
func (l *ContactLinker) FindContactsByName(_ context.Context, mode ports.NameMatch, name string, limit int) ([]domain.Contact, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.NameLookups = append(l.NameLookups, mode)
	want := strings.ToLower(strings.TrimSpace(name))

	return l.filter(limit, func(c domain.Contact) bool {
		full := strings.ToLower(strings.Join(strings.Fields(c.FullName), " "))
		fields := strings.Fields(full)

		switch mode {
		case ports.NameExact:
			return full == want
		case ports.NameFirstOnly:
			return len(fields) > 0 && fields[0] == want
		case ports.NameReversed:
			if len(fields) < 2 {
				return false
			}

			return fields[len(fields)-1]+" "+strings.Join(fields[:len(fields)-1], " ") == want
		case ports.NameSubstring:
			return want != "" && strings.Contains(full, want)
		}

		return false
	}), nil
}

// LinkTelegramChat stores chatID on the contact.
func (l *ContactLinker) LinkTelegramChat(ctx context.Context, contactID int64, chatID string) (domain.Contact, error) {
	if l.LinkTelegramChatFn != nil {
		return l.LinkTelegramChatFn(ctx, contactID, chatID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.contacts {
		if l.contacts[i].ID == contactID {
			l.contacts[i].TelegramChatID = chatID

			return l.contacts[i], nil
		}
	}

	return domain.Contact{}, ErrContactMissing
}

// Contact returns the stored contact by id.
func (l *ContactLinker) Contact(id int64) (domain.Contact, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, c := range l.contacts {
		if c.ID == id {
			return c, true
		}
	}

	return domain.Contact{}, false
}

func (l *ContactLinker) filter(limit int, match func(domain.Contact) bool) []domain.Contact {
	var out []domain.Contact

	for _, c := range l.contacts {
		if !match(c) {
			continue
		}

		out = append(out, c)

		if limit > 0 && len(out) >= limit {
			break
		}
	}

	return out
}
