package db

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/net/idna"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
)

var _ ports.ContactRepository = (*DB)(nil)

// emailPattern is deliberately conservative: local part of common characters,
// at least one dot in the domain, alphabetic TLD.
var emailPattern = regexp.MustCompile(`^[a-z0-9.!#$%&'*+/=?^_{|}~-]+@[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?)*\.[a-z]{2,63}$`)

const maxEmailLength = 254

// ValidEmail reports whether a normalized address passes the RFC-lite check.
// Internationalized domains are converted to ASCII first.
func ValidEmail(email string) bool {
	if email == "" || len(email) > maxEmailLength {
		return false
	}

	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}

	domainPart, err := idna.Lookup.ToASCII(email[at+1:])
	if err != nil {
		return false
	}

	local := email[:at]
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return false
	}

	return emailPattern.MatchString(local + "@" + strings.ToLower(domainPart))
}

// usableName reports whether a full name has at least one letter.
func usableName(name string) bool {
	for _, r := range name {
		if unicode.IsLetter(r) {
			return true
		}
	}

	return false
}

// NormalizeContacts validates and deduplicates rows ordered newest first.
// Rows with an invalid email or no usable name are dropped; among rows
// sharing a normalized email the first one wins. A positive limit caps the
// result after deduplication.
func NormalizeContacts(rows []domain.Contact, limit int) []domain.Contact {
	seen := make(map[string]struct{}, len(rows))
	out := make([]domain.Contact, 0, len(rows))

	for _, row := range rows {
		row.Email = domain.NormalizeEmail(row.Email)
		row.FullName = strings.Join(strings.Fields(row.FullName), " ")
		row.MobileNo = strings.TrimSpace(row.MobileNo)
		row.Branch = strings.TrimSpace(row.Branch)
		row.Experience = strings.TrimSpace(row.Experience)
		row.TelegramChatID = strings.TrimSpace(row.TelegramChatID)

		if !usableName(row.FullName) || !ValidEmail(row.Email) {
			continue
		}

		if _, dup := seen[row.Email]; dup {
			continue
		}

		seen[row.Email] = struct{}{}
		out = append(out, row)

		if limit > 0 && len(out) >= limit {
			break
		}
	}

	return out
}

const contactColumns = `id, full_name, email, mobile_no, branch, experience, telegram_chat_id, created_at`

// FetchContacts returns valid, deduplicated contacts, most recently created
// first. Malformed rows are filtered out rather than failing the fetch.
func (db *DB) FetchContacts(ctx context.Context, limit int) ([]domain.Contact, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		ORDER BY created_at DESC NULLS LAST, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	var raw []domain.Contact

	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			db.Logger.Warn().Err(err).Msg("skipping unreadable contact row")

			continue
		}

		raw = append(raw, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts rows: %w", err)
	}

	contacts := NormalizeContacts(raw, limit)

	db.Logger.Debug().
		Int("rows", len(raw)).
		Int(logFieldCount, len(contacts)).
		Msg("fetched contacts")

	return contacts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (domain.Contact, error) {
	var c domain.Contact

	var name, email, mobile, branch, exp, chatID pgtype.Text

	var createdAt pgtype.Timestamptz

	if err := row.Scan(&c.ID, &name, &email, &mobile, &branch, &exp, &chatID, &createdAt); err != nil {
		return domain.Contact{}, fmt.Errorf("scan contact: %w", err)
	}

	c.FullName = fromText(name)
	c.Email = fromText(email)
	c.MobileNo = fromText(mobile)
	c.Branch = fromText(branch)
	c.Experience = fromText(exp)
	c.TelegramChatID = fromText(chatID)
	c.CreatedAt = fromTimestamptz(createdAt)

	return c, nil
}
