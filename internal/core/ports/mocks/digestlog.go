package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
)

// DigestLog is a thread-safe in-memory implementation of ports.DigestLog.
type DigestLog struct {
	mu      sync.Mutex
	entries []domain.DigestLogEntry

	// FailureRateFn allows overriding FailureRate behavior.
	FailureRateFn func(ctx context.Context, window time.Duration) (domain.FailureRate, error)
}

var _ ports.DigestLog = (*DigestLog)(nil)

// NewDigestLog creates an empty log.
func NewDigestLog() *DigestLog {
	return &DigestLog{}
}

// LogSuccess appends a success entry.
func (l *DigestLog) LogSuccess(_ context.Context, entry domain.DigestLogEntry) error {
	entry.Status = domain.LogStatusSuccess
	l.append(entry)

	return nil
}

// LogFailure appends a failure entry.
func (l *DigestLog) LogFailure(_ context.Context, entry domain.DigestLogEntry) error {
	entry.Status = domain.LogStatusFailure
	l.append(entry)

	return nil
}

// FailureRate computes the rate over entries newer than window.
func (l *DigestLog) FailureRate(ctx context.Context, window time.Duration) (domain.FailureRate, error) {
	if l.FailureRateFn != nil {
		return l.FailureRateFn(ctx, window)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	since := time.Now().Add(-window)
	total, failed := 0, 0

	for _, e := range l.entries {
		if e.Time.Before(since) {
			continue
		}

		total++

		if e.Status == domain.LogStatusFailure {
			failed++
		}
	}

	return domain.NewFailureRate(total, failed), nil
}

// Entries returns a copy of every logged entry.
func (l *DigestLog) Entries() []domain.DigestLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.DigestLogEntry, len(l.entries))
	copy(out, l.entries)

	return out
}

// EntriesFor returns entries for one channel and contact.
func (l *DigestLog) EntriesFor(ch domain.Channel, contactID int64) []domain.DigestLogEntry {
	var out []domain.DigestLogEntry

	for _, e := range l.Entries() {
		if e.Channel == ch && e.ContactID == contactID {
			out = append(out, e)
		}
	}

	return out
}

func (l *DigestLog) append(entry domain.DigestLogEntry) {
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
}
