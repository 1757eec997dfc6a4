package domain

import "time"

// Channel names a delivery mechanism.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelTelegram Channel = "telegram"
)

// DeliveryOutcome is the result of delivering one digest to one contact on
// one channel.
type DeliveryOutcome struct {
	OK        bool     `json:"ok"`
	Channel   Channel  `json:"channel"`
	ContactID int64    `json:"contactId"`
	Recipient string   `json:"contact"`
	Attempts  int      `json:"attempts"`
	BatchID   string   `json:"batchId"`
	JobIDs    []JobKey `json:"jobIds"`
	MessageID string   `json:"messageId,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ChannelSummary aggregates the outcomes of one channel within a run.
type ChannelSummary struct {
	Channel   Channel           `json:"channel"`
	Attempted int               `json:"attempted"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Skipped   int               `json:"skipped"`
	DryRun    bool              `json:"dryRun,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Successes []DeliveryOutcome `json:"successes"`
	Failures  []DeliveryOutcome `json:"failures"`
}

// NewChannelSummary returns an empty summary for ch.
func NewChannelSummary(ch Channel) ChannelSummary {
	return ChannelSummary{
		Channel:   ch,
		Successes: []DeliveryOutcome{},
		Failures:  []DeliveryOutcome{},
	}
}

// Record appends an outcome and updates the counters.
func (s *ChannelSummary) Record(o DeliveryOutcome) {
	s.Attempted++

	if o.OK {
		s.Succeeded++
		s.Successes = append(s.Successes, o)

		return
	}

	s.Failed++
	s.Failures = append(s.Failures, o)
}

// Outcomes returns successes followed by failures.
func (s ChannelSummary) Outcomes() []DeliveryOutcome {
	out := make([]DeliveryOutcome, 0, len(s.Successes)+len(s.Failures))
	out = append(out, s.Successes...)

	return append(out, s.Failures...)
}

// Run error stages. A channel that fails as a whole reports under its
// channel name.
const (
	StageJobs         = "jobs"
	StageContacts     = "contacts"
	StageMarkNotified = "mark_notified"
	StageAlerts       = "alerts"
	StageOrchestrator = "orchestrator"
)

// RunError is an error captured during a run, tagged with the stage it came from.
type RunError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// RunSummary describes one orchestrator invocation.
type RunSummary struct {
	OK                  bool                       `json:"ok"`
	Skipped             bool                       `json:"skipped,omitempty"`
	Reason              string                     `json:"reason,omitempty"`
	Source              string                     `json:"source"`
	BatchID             string                     `json:"batchId,omitempty"`
	StartedAt           time.Time                  `json:"startedAt"`
	FinishedAt          time.Time                  `json:"finishedAt"`
	JobsQueried         int                        `json:"jobsQueried"`
	JobsIncluded        int                        `json:"jobsIncluded"`
	ContactsAttempted   int                        `json:"contactsAttempted"`
	ContactsSucceeded   int                        `json:"contactsSucceeded"`
	ContactsFailed      int                        `json:"contactsFailed"`
	ContactsUnreachable int                        `json:"contactsUnreachable"`
	Channels            map[Channel]ChannelSummary `json:"channels"`
	JobsMarkedNotified  JobIDsBySource             `json:"jobsMarkedNotified"`
	Errors              []RunError                 `json:"errors"`
}

// AddError records err under stage.
func (s *RunSummary) AddError(stage string, err error) {
	if err == nil {
		return
	}

	s.Errors = append(s.Errors, RunError{Stage: stage, Message: err.Error()})
}

// HasErrorStage reports whether an error was recorded for stage.
func (s *RunSummary) HasErrorStage(stage string) bool {
	for _, e := range s.Errors {
		if e.Stage == stage {
			return true
		}
	}

	return false
}
