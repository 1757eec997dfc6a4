// Package digest runs the marketing digest: it picks pending jobs, segments
// them per contact, fans out to the delivery channels, merges the outcomes
// and marks delivered jobs as notified.
package digest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
	"github.com/lueurxax/job-digest-notifier/internal/output/delivery"
	"github.com/lueurxax/job-digest-notifier/internal/platform/config"
	"github.com/lueurxax/job-digest-notifier/internal/platform/observability"
)

var errNoContacts = errors.New("no contacts available")

// RunOptions parameterizes one run.
type RunOptions struct {
	// Source names the trigger, e.g. scheduler or manual.
	Source string
	// Force runs even when another run is active or no jobs are pending.
	Force bool
	// Limit overrides the configured pending-jobs fetch limit.
	Limit int
}

// Orchestrator is the digest state machine. Run is safe for concurrent use;
// overlapping runs are rejected unless forced.
type Orchestrator struct {
	cfg      config.MarketingConfig
	alerts   config.AlertConfig
	jobs     ports.JobRepository
	contacts ports.ContactRepository
	log      ports.DigestLog
	channels []Channel
	logger   *zerolog.Logger

	alertSender ports.MessageSender
	now         func() time.Time

	active atomic.Int32

	mu      sync.Mutex
	lastRun *domain.RunSummary
	history []domain.RunSummary
}

func New(cfg *config.Config, jobs ports.JobRepository, contacts ports.ContactRepository, log ports.DigestLog, channels []Channel, logger *zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg.Marketing,
		alerts:   cfg.Alert,
		jobs:     jobs,
		contacts: contacts,
		log:      log,
		channels: channels,
		logger:   logger,
		now:      time.Now,
	}
}

// SetAlertSender enables delivery of operational alerts to the configured
// alert chat.
func (o *Orchestrator) SetAlertSender(sender ports.MessageSender) {
	o.alertSender = sender
}

// Running reports whether a run is in progress.
func (o *Orchestrator) Running() bool {
	return o.active.Load() > 0
}

// Run executes one digest run. It never returns an error: failures are
// recorded in the summary with the stage they came from.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (summary domain.RunSummary) {
	summary = o.newSummary(opts)

	if !o.cfg.Enabled {
		summary.Skipped = true
		summary.Reason = ReasonDisabled
		o.finish(&summary, o.logger)

		return summary
	}

	if o.active.Add(1) > 1 && !opts.Force {
		o.active.Add(-1)

		summary.Skipped = true
		summary.Reason = ReasonAlreadyRunning
		summary.FinishedAt = o.now()

		o.logger.Info().Str(LogFieldSource, opts.Source).Msg("digest run skipped, another run is active")

		return summary
	}

	defer o.active.Add(-1)

	logger := o.logger.With().Str(LogFieldSource, opts.Source).Logger()

	defer func() {
		if r := recover(); r != nil {
			summary.OK = false
			summary.AddError(domain.StageOrchestrator, fmt.Errorf("panic: %v", r))
			logger.Error().Interface("panic", r).Msg("recovered from panic in digest run")
		}

		o.finish(&summary, &logger)
	}()

	o.execute(ctx, opts, &summary, &logger)

	return summary
}

func (o *Orchestrator) newSummary(opts RunOptions) domain.RunSummary {
	source := opts.Source
	if source == "" {
		source = SourceManual
	}

	return domain.RunSummary{
		Source:             source,
		StartedAt:          o.now(),
		Channels:           map[domain.Channel]domain.ChannelSummary{},
		JobsMarkedNotified: domain.JobIDsBySource{},
		Errors:             []domain.RunError{},
	}
}

func (o *Orchestrator) execute(ctx context.Context, opts RunOptions, summary *domain.RunSummary, logger *zerolog.Logger) {
	limit := opts.Limit
	if limit <= 0 {
		limit = o.cfg.JobLimit
	}

	cutoff := o.cfg.Cutoff(o.now())

	jobs, err := o.jobs.FetchPendingJobs(ctx, ports.PendingJobsQuery{Limit: limit, CreatedAfter: cutoff})
	if err != nil {
		summary.AddError(domain.StageJobs, err)
		logger.Error().Err(err).Msg("failed to fetch pending jobs")

		return
	}

	summary.JobsQueried = len(jobs)

	if len(jobs) == 0 && !opts.Force {
		summary.OK = true
		summary.Skipped = true
		summary.Reason = ReasonNoPendingJobs

		return
	}

	included := selectDigestJobs(jobs, o.cfg.DigestSize)
	summary.JobsIncluded = len(included)

	contacts, err := o.contacts.FetchContacts(ctx, o.cfg.ContactLimit)
	if err != nil {
		summary.AddError(domain.StageContacts, err)
		logger.Error().Err(err).Msg("failed to fetch contacts")

		return
	}

	if len(contacts) == 0 {
		summary.AddError(domain.StageContacts, errNoContacts)
		logger.Warn().Int(LogFieldJobs, len(included)).Msg("pending jobs exist but there are no contacts")

		return
	}

	summary.BatchID = newBatchID(o.now())
	batchLogger := logger.With().Str(LogFieldBatchID, summary.BatchID).Logger()

	req := delivery.Request{
		BatchID:       summary.BatchID,
		Contacts:      contacts,
		Jobs:          included,
		JobsByContact: segmentJobs(contacts, included),
	}

	batchLogger.Info().
		Int(LogFieldJobs, len(jobs)).
		Int(LogFieldIncluded, len(included)).
		Int(LogFieldContacts, len(contacts)).
		Int(LogFieldLimit, limit).
		Bool(LogFieldForce, opts.Force).
		Msg("digest batch started")

	o.fanOut(ctx, req, summary, &batchLogger)
	mergeOutcomes(summary, contacts)

	o.markNotified(ctx, summary, &batchLogger)

	summary.OK = summary.ContactsFailed == 0 && !hasFatalError(summary)

	o.evaluateAlerts(ctx, summary, cutoff, &batchLogger)
}

// selectDigestJobs orders pending jobs oldest first and caps the digest.
func selectDigestJobs(jobs []domain.Job, digestSize int) []domain.Job {
	sorted := make([]domain.Job, len(jobs))
	copy(sorted, jobs)
	domain.SortOldestFirst(sorted)

	if digestSize > 0 && len(sorted) > digestSize {
		sorted = sorted[:digestSize]
	}

	return sorted
}

// segmentJobs selects each contact's jobs by experience. Contacts without a
// parseable experience get the full digest.
func segmentJobs(contacts []domain.Contact, jobs []domain.Job) map[int64][]domain.Job {
	out := make(map[int64][]domain.Job, len(contacts))

	for _, c := range contacts {
		out[c.ID] = domain.SelectJobsForContact(c, jobs)
	}

	return out
}

func newBatchID(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:batchIDRandomLen]

	return batchIDPrefix + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + random
}

// fanOut runs every channel concurrently. A channel that fails as a whole
// records a zero-attempt failure for each contact it would have addressed.
func (o *Orchestrator) fanOut(ctx context.Context, req delivery.Request, summary *domain.RunSummary, logger *zerolog.Logger) {
	type result struct {
		summary domain.ChannelSummary
		err     error
	}

	results := make([]result, len(o.channels))

	var wg sync.WaitGroup

	for i, ch := range o.channels {
		wg.Add(1)

		go func() {
			defer wg.Done()

			defer func() {
				if r := recover(); r != nil {
					results[i] = result{summary: domain.NewChannelSummary(ch.Name()), err: fmt.Errorf("panic: %v", r)}
				}
			}()

			s, err := ch.SendDigests(ctx, req)
			results[i] = result{summary: s, err: err}
		}()
	}

	wg.Wait()

	for i, ch := range o.channels {
		res := results[i]
		chSummary := res.summary

		if res.err != nil {
			summary.AddError(string(ch.Name()), res.err)
			logger.Error().Err(res.err).Str(LogFieldChannel, string(ch.Name())).Msg("delivery channel failed")

			chSummary = channelFailure(ch, req, res.err)
		}

		summary.Channels[ch.Name()] = chSummary
	}
}

func channelFailure(ch Channel, req delivery.Request, err error) domain.ChannelSummary {
	s := domain.NewChannelSummary(ch.Name())
	s.Reason = err.Error()

	for _, c := range req.Contacts {
		if !ch.Addresses(c) {
			s.Skipped++

			continue
		}

		s.Record(domain.DeliveryOutcome{
			Channel:   ch.Name(),
			ContactID: c.ID,
			BatchID:   req.BatchID,
			JobIDs:    domain.JobKeys(req.JobsFor(c)),
			Error:     err.Error(),
		})
	}

	return s
}

// mergeOutcomes counts a contact as succeeded when any channel delivered to
// it and as failed when every channel that addressed it failed. Contacts no
// channel addressed are unreachable.
func mergeOutcomes(summary *domain.RunSummary, contacts []domain.Contact) {
	attempted := make(map[int64]bool, len(contacts))
	succeeded := make(map[int64]bool, len(contacts))

	for _, ch := range summary.Channels {
		for _, o := range ch.Outcomes() {
			attempted[o.ContactID] = true

			if o.OK {
				succeeded[o.ContactID] = true
			}
		}
	}

	for _, c := range contacts {
		switch {
		case succeeded[c.ID]:
			summary.ContactsAttempted++
			summary.ContactsSucceeded++
		case attempted[c.ID]:
			summary.ContactsAttempted++
			summary.ContactsFailed++
		default:
			summary.ContactsUnreachable++
		}
	}
}

// notifiedSet collects the jobs carried by at least one successful send.
func notifiedSet(summary *domain.RunSummary) domain.JobIDsBySource {
	var keys []domain.JobKey

	for _, ch := range summary.Channels {
		for _, o := range ch.Successes {
			keys = append(keys, o.JobIDs...)
		}
	}

	return domain.GroupKeys(keys)
}

func (o *Orchestrator) markNotified(ctx context.Context, summary *domain.RunSummary, logger *zerolog.Logger) {
	if summary.ContactsSucceeded == 0 {
		logger.Warn().Msg("no contact received the digest, jobs stay pending")

		return
	}

	ids := notifiedSet(summary)
	if ids.Total() == 0 {
		return
	}

	updated, err := o.jobs.MarkJobsNotified(ctx, ids)
	if err != nil {
		summary.AddError(domain.StageMarkNotified, err)
		logger.Error().Err(err).Int(LogFieldJobs, ids.Total()).Msg("failed to mark jobs notified")

		return
	}

	summary.JobsMarkedNotified = ids

	for source, n := range updated {
		observability.JobsMarkedNotified.WithLabelValues(string(source)).Add(float64(n))
	}

	logger.Info().Int(LogFieldJobs, ids.Total()).Msg("jobs marked notified")
}

func hasFatalError(summary *domain.RunSummary) bool {
	for _, stage := range []string{domain.StageJobs, domain.StageContacts, domain.StageMarkNotified, domain.StageOrchestrator} {
		if summary.HasErrorStage(stage) {
			return true
		}
	}

	return false
}

// finish stamps the summary, publishes metrics and stores it as the last run.
func (o *Orchestrator) finish(summary *domain.RunSummary, logger *zerolog.Logger) {
	summary.FinishedAt = o.now()

	status := StatusFailed

	switch {
	case summary.Skipped:
		status = StatusSkipped
	case summary.OK:
		status = StatusOK
	}

	observability.DigestRuns.WithLabelValues(status).Inc()
	observability.DigestRunDuration.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())

	o.mu.Lock()
	last := *summary
	o.lastRun = &last
	o.history = append(pruneHistory(o.history, summary.FinishedAt), last)
	o.mu.Unlock()

	event := logger.Info()
	if status == StatusFailed {
		event = logger.Warn()
	}

	event.
		Str(LogFieldBatchID, summary.BatchID).
		Bool("ok", summary.OK).
		Bool("skipped", summary.Skipped).
		Str("reason", summary.Reason).
		Int(LogFieldIncluded, summary.JobsIncluded).
		Int(LogFieldSucceeded, summary.ContactsSucceeded).
		Int(LogFieldFailed, summary.ContactsFailed).
		Int("errors", len(summary.Errors)).
		Dur(LogFieldDuration, summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("digest run finished")
}

func pruneHistory(history []domain.RunSummary, now time.Time) []domain.RunSummary {
	cutoff := now.Add(-historyWindow)

	kept := history[:0]

	for _, run := range history {
		if !run.FinishedAt.Before(cutoff) {
			kept = append(kept, run)
		}
	}

	return kept
}
