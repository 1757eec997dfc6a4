package delivery

import (
	"time"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/platform/config"
)

// Request is what the orchestrator hands to each channel for one batch.
type Request struct {
	BatchID  string
	Contacts []domain.Contact
	Jobs     []domain.Job
	// JobsByContact overrides Jobs per contact id. A present but empty entry
	// means the contact has no matching jobs.
	JobsByContact map[int64][]domain.Job
}

// JobsFor resolves the job list of contact.
func (r Request) JobsFor(c domain.Contact) []domain.Job {
	if r.JobsByContact != nil {
		if jobs, ok := r.JobsByContact[c.ID]; ok {
			return jobs
		}
	}

	return r.Jobs
}

// OptionsFrom maps the shared delivery knobs of a channel config.
func OptionsFrom(ch domain.Channel, cfg config.DeliveryConfig, dryRun bool) Options {
	backoffs := make([]time.Duration, len(cfg.RetryBackoffs))
	copy(backoffs, cfg.RetryBackoffs)

	return Options{
		Channel:     ch,
		BatchSize:   cfg.BatchSize,
		BatchPause:  cfg.BatchPause,
		Concurrency: cfg.Concurrency,
		MaxRetries:  cfg.MaxRetries,
		Backoffs:    backoffs,
		DryRun:      dryRun,
	}
}
