package db

import (
	"time"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
)

// Table names.
const (
	tableJobs   = "jobs"
	tableAIJobs = "ai_jobs"
)

// sourceTables maps each job source to its physical table.
var sourceTables = map[domain.Source]string{
	domain.SourcePrimary:   tableJobs,
	domain.SourceSecondary: tableAIJobs,
}

// Log field names.
const (
	logFieldTable  = "table"
	logFieldSource = "source"
	logFieldCount  = "count"
)

// Digest log status values stored in digest_log.status.
const (
	digestStatusSuccess = domain.LogStatusSuccess
	digestStatusFailure = domain.LogStatusFailure
)

// Database connection constants
const (
	// ConnectionRetrySleep is the sleep duration between connection retries
	ConnectionRetrySleep = 2 * time.Second
	// maxConnectionRetries is the number of retries for initial connection
	maxConnectionRetries = 10
)

// nationalNumberDigits is the length of a mobile number without its country code.
const nationalNumberDigits = 10

// defaultPendingLimit bounds a pending-jobs query issued without a limit.
const defaultPendingLimit = 1000
