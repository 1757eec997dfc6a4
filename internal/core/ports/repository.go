// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing the digest core to remain independent of infrastructure concerns.
package ports

import (
	"context"
	"time"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
)

// PendingJobsQuery bounds a pending-jobs fetch.
type PendingJobsQuery struct {
	Limit        int
	CreatedAfter *time.Time
}

// JobRepository reads not-yet-notified jobs from both sources and marks them
// notified.
type JobRepository interface {
	FetchPendingJobs(ctx context.Context, q PendingJobsQuery) ([]domain.Job, error)
	CountPendingJobs(ctx context.Context, createdAfter *time.Time) (domain.PendingCounts, error)
	// MarkJobsNotified is idempotent and touches only the ids given. It
	// returns the number of rows that transitioned per source.
	MarkJobsNotified(ctx context.Context, ids domain.JobIDsBySource) (map[domain.Source]int, error)
}

// ContactRepository reads the deduplicated marketing contact list.
type ContactRepository interface {
	FetchContacts(ctx context.Context, limit int) ([]domain.Contact, error)
}

// DigestLog is the append-only delivery audit sink.
type DigestLog interface {
	LogSuccess(ctx context.Context, entry domain.DigestLogEntry) error
	LogFailure(ctx context.Context, entry domain.DigestLogEntry) error
	FailureRate(ctx context.Context, window time.Duration) (domain.FailureRate, error)
}

// MobileMatch selects how a mobile number is compared against stored numbers.
type MobileMatch int

const (
	// MobileExact compares the stored value verbatim.
	MobileExact MobileMatch = iota
	// MobileDigitsOnly compares after stripping every non-digit.
	MobileDigitsOnly
	// MobileNationalSuffix compares the trailing national digits, ignoring a
	// leading country code.
	MobileNationalSuffix
)

// NameMatch selects how a name candidate is compared against full_name.
type NameMatch int

const (
	NameExact NameMatch = iota
	NameFirstOnly
	NameReversed
	NameSubstring
)

// ContactLinker resolves inbound Telegram senders to contacts and stores the
// chat id.
type ContactLinker interface {
	FindContactsByMobile(ctx context.Context, mode MobileMatch, digits string, limit int) ([]domain.Contact, error)
	FindContactsByName(ctx context.Context, mode NameMatch, name string, limit int) ([]domain.Contact, error)
	// LinkTelegramChat persists chatID on the contact and verifies the write
	// by re-reading the row inside the same transaction.
	LinkTelegramChat(ctx context.Context, contactID int64, chatID string) (domain.Contact, error)
}

// MessageSender delivers a plain-text Telegram message to a chat.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID, text string) (string, error)
}
