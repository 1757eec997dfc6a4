// Package domain holds the canonical records shared by the repositories,
// the delivery channels and the digest orchestrator.
package domain

import (
	"fmt"
	"sort"
	"time"
)

// Source tags which job table a posting was read from.
type Source string

const (
	// SourcePrimary is the structured jobs table.
	SourcePrimary Source = "primary"
	// SourceSecondary is the AI-sourced jobs table.
	SourceSecondary Source = "secondary"
)

// Sources lists every job source in a stable order.
var Sources = []Source{SourcePrimary, SourceSecondary}

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourcePrimary || s == SourceSecondary
}

// Job is a posting normalized from either source table. ID is only unique
// within Source.
type Job struct {
	Source       Source     `json:"source"`
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	CompanyName  string     `json:"companyName,omitempty"`
	Location     string     `json:"location,omitempty"`
	LocationType string     `json:"locationType,omitempty"`
	IsRemote     bool       `json:"isRemote"`
	Experience   string     `json:"experience,omitempty"`
	JobType      string     `json:"jobType,omitempty"`
	ApplyURL     string     `json:"applyUrl,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	NotifySent   bool       `json:"notifySent"`
	NotifySentAt *time.Time `json:"notifySentAt,omitempty"`
}

// JobKey is the cross-source identity of a job.
type JobKey struct {
	Source Source `json:"source"`
	ID     int64  `json:"id"`
}

// String renders the key as "source:id".
func (k JobKey) String() string {
	return fmt.Sprintf("%s:%d", k.Source, k.ID)
}

// Key returns the cross-source identity of the job.
func (j Job) Key() JobKey {
	return JobKey{Source: j.Source, ID: j.ID}
}

// JobIDsBySource groups job ids per source table.
type JobIDsBySource map[Source][]int64

// Add appends id under source.
func (m JobIDsBySource) Add(source Source, id int64) {
	m[source] = append(m[source], id)
}

// Total returns the number of ids across all sources.
func (m JobIDsBySource) Total() int {
	total := 0

	for _, ids := range m {
		total += len(ids)
	}

	return total
}

// JobKeys extracts the keys of jobs in order.
func JobKeys(jobs []Job) []JobKey {
	keys := make([]JobKey, 0, len(jobs))

	for _, j := range jobs {
		keys = append(keys, j.Key())
	}

	return keys
}

// GroupKeys deduplicates keys and groups their ids per source, sorted ascending.
func GroupKeys(keys []JobKey) JobIDsBySource {
	seen := make(map[JobKey]struct{}, len(keys))
	out := JobIDsBySource{}

	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}

		seen[k] = struct{}{}
		out.Add(k.Source, k.ID)
	}

	for src := range out {
		ids := out[src]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	return out
}

// SortOldestFirst orders jobs by creation time ascending with (source, id)
// as the tie-break, which makes digest truncation FIFO across runs.
func SortOldestFirst(jobs []Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		a, b := jobs[i], jobs[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}

		if a.Source != b.Source {
			return a.Source < b.Source
		}

		return a.ID < b.ID
	})
}

// PendingCounts is the backlog of not-yet-notified jobs.
type PendingCounts struct {
	Jobs   int `json:"jobs"`
	AIJobs int `json:"aiJobs"`
	Total  int `json:"total"`
}
