package db

import (
	"context"
	"fmt"
	"time"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
)

var _ ports.DigestLog = (*DB)(nil)

// LogSuccess appends a successful delivery attempt to digest_log.
func (db *DB) LogSuccess(ctx context.Context, entry domain.DigestLogEntry) error {
	entry.Status = digestStatusSuccess

	return db.appendDigestLog(ctx, entry)
}

// LogFailure appends a failed delivery attempt to digest_log.
func (db *DB) LogFailure(ctx context.Context, entry domain.DigestLogEntry) error {
	entry.Status = digestStatusFailure

	return db.appendDigestLog(ctx, entry)
}

func (db *DB) appendDigestLog(ctx context.Context, entry domain.DigestLogEntry) error {
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}

	jobIDs := entry.JobIDs
	if jobIDs == nil {
		jobIDs = []string{}
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO digest_log (logged_at, status, channel, recipient, contact_id, batch_id, job_ids, attempt, message_id, dry_run, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		entry.Time,
		entry.Status,
		string(entry.Channel),
		SanitizeUTF8(entry.Recipient),
		toInt8(entry.ContactID),
		entry.BatchID,
		jobIDs,
		entry.Attempt,
		toText(entry.MessageID),
		entry.DryRun,
		toText(entry.Error),
	)
	if err != nil {
		return fmt.Errorf("insert digest log: %w", err)
	}

	return nil
}

// FailureRate counts attempts and failed attempts logged within window.
func (db *DB) FailureRate(ctx context.Context, window time.Duration) (domain.FailureRate, error) {
	var total, failed int

	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)::int, COUNT(*) FILTER (WHERE status = $2)::int
		FROM digest_log
		WHERE logged_at >= $1
	`, time.Now().Add(-window), digestStatusFailure).Scan(&total, &failed)
	if err != nil {
		return domain.FailureRate{}, fmt.Errorf("query digest log failure rate: %w", err)
	}

	return domain.NewFailureRate(total, failed), nil
}
