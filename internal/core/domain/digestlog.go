package domain

import "time"

// Digest log entry statuses.
const (
	LogStatusSuccess = "success"
	LogStatusFailure = "failure"
)

// DigestLogEntry is one append-only record of a delivery attempt.
type DigestLogEntry struct {
	Time      time.Time `json:"time"`
	Status    string    `json:"status"`
	Channel   Channel   `json:"channel"`
	Recipient string    `json:"recipient"`
	ContactID int64     `json:"contactId"`
	BatchID   string    `json:"batchId"`
	JobIDs    []string  `json:"jobIds"`
	Attempt   int       `json:"attempt"`
	MessageID string    `json:"messageId,omitempty"`
	DryRun    bool      `json:"dryRun,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// FailureRate summarizes the digest log over a time window.
type FailureRate struct {
	FailureRate float64 `json:"failureRate"`
	Total       int     `json:"total"`
	Failed      int     `json:"failed"`
}

// NewFailureRate computes the rate, defining 0/0 as 0.
func NewFailureRate(total, failed int) FailureRate {
	fr := FailureRate{Total: total, Failed: failed}
	if total > 0 {
		fr.FailureRate = float64(failed) / float64(total)
	}

	return fr
}

// KeyStrings renders job keys as "source:id" strings for log records.
func KeyStrings(keys []JobKey) []string {
	out := make([]string, 0, len(keys))

	for _, k := range keys {
		out = append(out, k.String())
	}

	return out
}
