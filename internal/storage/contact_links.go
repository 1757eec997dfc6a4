package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/job-digest-notifier/internal/core/errors"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
)

var _ ports.ContactLinker = (*DB)(nil)

const (
	sqlDigits         = `regexp_replace(COALESCE(mobile_no, ''), '\D', '', 'g')`
	sqlNormalizedName = `lower(regexp_replace(btrim(full_name), '\s+', ' ', 'g'))`
)

// mobileCondition returns the WHERE clause comparing mobile_no with $1.
func mobileCondition(mode ports.MobileMatch) (string, error) {
	switch mode {
	case ports.MobileExact:
		return "mobile_no = $1", nil
	case ports.MobileDigitsOnly:
		return sqlDigits + " = $1", nil
	case ports.MobileNationalSuffix:
		return fmt.Sprintf("length(%[1]s) >= %[2]d AND right(%[1]s, %[2]d) = $1", sqlDigits, nationalNumberDigits), nil
	}

	return "", fmt.Errorf("%w: mobile match mode %d", apperrors.ErrInvalidInput, mode)
}

// nameCondition returns the WHERE clause comparing full_name with the
// lowercased candidate in $1.
func nameCondition(mode ports.NameMatch) (string, error) {
	switch mode {
	case ports.NameExact:
		return sqlNormalizedName + " = $1", nil
	case ports.NameFirstOnly:
		return "split_part(" + sqlNormalizedName + ", ' ', 1) = $1", nil
	case ports.NameReversed:
		return `regexp_replace(` + sqlNormalizedName + `, '^(.+) (\S+)$', '\2 \1') = $1`, nil
	case ports.NameSubstring:
		return "strpos(" + sqlNormalizedName + ", $1) > 0", nil
	}

	return "", fmt.Errorf("%w: name match mode %d", apperrors.ErrInvalidInput, mode)
}

// FindContactsByMobile looks up contacts whose mobile number matches digits
// under mode.
func (db *DB) FindContactsByMobile(ctx context.Context, mode ports.MobileMatch, digits string, limit int) ([]domain.Contact, error) {
	cond, err := mobileCondition(mode)
	if err != nil {
		return nil, err
	}

	return db.findContacts(ctx, cond, digits, limit)
}

// FindContactsByName looks up contacts whose full name matches name under mode.
// The candidate must already be case folded.
func (db *DB) FindContactsByName(ctx context.Context, mode ports.NameMatch, name string, limit int) ([]domain.Contact, error) {
	cond, err := nameCondition(mode)
	if err != nil {
		return nil, err
	}

	return db.findContacts(ctx, cond, name, limit)
}

func (db *DB) findContacts(ctx context.Context, cond, arg string, limit int) ([]domain.Contact, error) {
	if limit <= 0 {
		limit = 1
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE `+cond+`
		ORDER BY created_at DESC NULLS LAST, id DESC
		LIMIT $2
	`, arg, limit)
	if err != nil {
		return nil, fmt.Errorf("query contacts for match: %w", err)
	}
	defer rows.Close()

	var out []domain.Contact

	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matched contacts: %w", err)
	}

	return out, nil
}

// LinkTelegramChat stores chatID on the contact. The row is locked and read
// before the update and read again after it, and the transaction is only
// committed when the second read shows the new chat id.
func (db *DB) LinkTelegramChat(ctx context.Context, contactID int64, chatID string) (domain.Contact, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	before, err := scanContact(tx.QueryRow(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE id = $1
		FOR UPDATE
	`, contactID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Contact{}, fmt.Errorf("link telegram chat %d: %w", contactID, apperrors.ErrContactNotFound)
		}

		return domain.Contact{}, fmt.Errorf("read contact before link: %w", err)
	}

	if before.TelegramChatID != chatID {
		if _, err := tx.Exec(ctx, `UPDATE contacts SET telegram_chat_id = $2 WHERE id = $1`, contactID, chatID); err != nil {
			return domain.Contact{}, fmt.Errorf("update contact telegram chat: %w", err)
		}
	}

	after, err := scanContact(tx.QueryRow(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE id = $1
	`, contactID))
	if err != nil {
		return domain.Contact{}, fmt.Errorf("read contact after link: %w", err)
	}

	if after.TelegramChatID != chatID {
		return domain.Contact{}, fmt.Errorf("link telegram chat %d: %w", contactID, apperrors.ErrLinkNotPersisted)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Contact{}, fmt.Errorf("commit transaction: %w", err)
	}

	db.Logger.Info().
		Int64("contact_id", contactID).
		Str("previous_chat_id", before.TelegramChatID).
		Msg("linked telegram chat to contact")

	return after, nil
}
