package digest

import (
	"context"
	"time"
)

// Health is the operational snapshot served by the health endpoint.
type Health struct {
	LastRunAt        *time.Time `json:"lastRunAt"`
	LastBatchID      string     `json:"lastBatchId"`
	LastRunOK        *bool      `json:"lastRunOk"`
	Running          bool       `json:"running"`
	PendingJobsCount *int       `json:"pendingJobsCount"`
	FailureRate24h   *float64   `json:"failureRate24h"`
	Runs24h          int        `json:"runs24h"`
	Failures24h      int        `json:"failures24h"`
	Errors           []string   `json:"errors,omitempty"`
}

// Health reports the last run and the current backlog. Collaborator errors
// leave the affected field null instead of failing the whole report.
func (o *Orchestrator) Health(ctx context.Context) Health {
	now := o.now()
	h := Health{Running: o.Running()}

	o.mu.Lock()
	if o.lastRun != nil {
		finished := o.lastRun.FinishedAt
		ok := o.lastRun.OK
		h.LastRunAt = &finished
		h.LastBatchID = o.lastRun.BatchID
		h.LastRunOK = &ok
	}

	cutoff := now.Add(-historyWindow)

	for _, run := range o.history {
		if run.FinishedAt.Before(cutoff) {
			continue
		}

		h.Runs24h++

		if !run.OK && !run.Skipped {
			h.Failures24h++
		}
	}
	o.mu.Unlock()

	if counts, err := o.jobs.CountPendingJobs(ctx, o.cfg.Cutoff(now)); err != nil {
		h.Errors = append(h.Errors, "pending jobs: "+err.Error())
	} else {
		h.PendingJobsCount = &counts.Total
	}

	if rate, err := o.log.FailureRate(ctx, historyWindow); err != nil {
		h.Errors = append(h.Errors, "failure rate: "+err.Error())
	} else {
		h.FailureRate24h = &rate.FailureRate
	}

	return h
}
