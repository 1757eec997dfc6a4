package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
)

// JobRepository is a thread-safe in-memory implementation of ports.JobRepository.
type JobRepository struct {
	mu   sync.Mutex
	jobs []domain.Job

	FetchCalls int
	MarkCalls  int
	Marked     []domain.JobIDsBySource

	// FetchPendingJobsFn allows overriding FetchPendingJobs behavior.
	FetchPendingJobsFn func(ctx context.Context, q ports.PendingJobsQuery) ([]domain.Job, error)

	// MarkJobsNotifiedFn allows overriding MarkJobsNotified behavior.
	MarkJobsNotifiedFn func(ctx context.Context, ids domain.JobIDsBySource) (map[domain.Source]int, error)
}

var _ ports.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a repository seeded with jobs.
func NewJobRepository(jobs ...domain.Job) *JobRepository {
	seeded := make([]domain.Job, len(jobs))
	copy(seeded, jobs)

	return &JobRepository{jobs: seeded}
}

// FetchPendingJobs returns unnotified jobs in insertion order.
func (r *JobRepository) FetchPendingJobs(ctx context.Context, q ports.PendingJobsQuery) ([]domain.Job, error) {
	r.mu.Lock()
	r.FetchCalls++
	r.mu.Unlock()

	if r.FetchPendingJobsFn != nil {
		return r.FetchPendingJobsFn(ctx, q)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Job, 0, len(r.jobs))

	for _, j := range r.jobs {
		if j.NotifySent || !createdAfter(j, q.CreatedAfter) {
			continue
		}

		out = append(out, j)

		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}

	return out, nil
}

// CountPendingJobs counts unnotified jobs per source.
func (r *JobRepository) CountPendingJobs(_ context.Context, after *time.Time) (domain.PendingCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var counts domain.PendingCounts

	for _, j := range r.jobs {
		if j.NotifySent || !createdAfter(j, after) {
			continue
		}

		if j.Source == domain.SourcePrimary {
			counts.Jobs++
		} else {
			counts.AIJobs++
		}
	}

	counts.Total = counts.Jobs + counts.AIJobs

	return counts, nil
}

// MarkJobsNotified flips notify flags for exactly the given ids.
func (r *JobRepository) MarkJobsNotified(ctx context.Context, ids domain.JobIDsBySource) (map[domain.Source]int, error) {
	r.mu.Lock()
	r.MarkCalls++
	r.Marked = append(r.Marked, ids)
	r.mu.Unlock()

	if r.MarkJobsNotifiedFn != nil {
		return r.MarkJobsNotifiedFn(ctx, ids)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	updated := make(map[domain.Source]int, len(ids))
	now := time.Now()

	for src, list := range ids {
		for _, id := range list {
			for i := range r.jobs {
				j := &r.jobs[i]
				if j.Source != src || j.ID != id || j.NotifySent {
					continue
				}

				j.NotifySent = true
				j.NotifySentAt = &now
				updated[src]++
			}
		}
	}

	return updated, nil
}

// Job returns the stored state of a job.
func (r *JobRepository) Job(key domain.JobKey) (domain.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, j := range r.jobs {
		if j.Key() == key {
			return j, true
		}
	}

	return domain.Job{}, false
}

// NotifiedKeys returns the keys of every notified job.
func (r *JobRepository) NotifiedKeys() []domain.JobKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	var keys []domain.JobKey

	for _, j := range r.jobs {
		if j.NotifySent {
			keys = append(keys, j.Key())
		}
	}

	return keys
}

func createdAfter(j domain.Job, after *time.Time) bool {
	return after == nil || !j.CreatedAt.Before(*after)
}
