package digest

import "time"

// Log field name constants
const (
	LogFieldBatchID   = "batch_id"
	LogFieldSource    = "source"
	LogFieldChannel   = "channel"
	LogFieldForce     = "force"
	LogFieldLimit     = "limit"
	LogFieldJobs      = "jobs"
	LogFieldIncluded  = "included"
	LogFieldContacts  = "contacts"
	LogFieldSucceeded = "succeeded"
	LogFieldFailed    = "failed"
	LogFieldDuration  = "duration"
	LogFieldBacklog   = "backlog"
	LogFieldRate      = "failure_rate"
)

// Observability label constants
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"

	AlertBacklog     = "backlog"
	AlertFailureRate = "failure_rate"
)

// Skip reasons reported in the run summary.
const (
	ReasonDisabled       = "marketing notifications disabled"
	ReasonAlreadyRunning = "a digest run is already in progress"
	ReasonNoPendingJobs  = "no pending jobs"
)

// Run sources.
const (
	SourceScheduler = "scheduler"
	SourceManual    = "manual"
	SourceCLI       = "cli"
)

const (
	batchIDPrefix    = "mkt"
	batchIDRandomLen = 8
	historyWindow    = 24 * time.Hour
)
