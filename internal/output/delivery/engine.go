// Package delivery is the batching, bounded-concurrency and retry engine
// shared by the email and Telegram channels.
//
// Targets are split into fixed-size batches that run one after another with a
// pause in between. Inside a batch a pull-based worker pool sends to up to
// Concurrency targets at once. Each target gets 1+MaxRetries attempts and
// every attempt is written to the digest log.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/job-digest-notifier/internal/core/errors"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
	"github.com/lueurxax/job-digest-notifier/internal/platform/observability"
	"github.com/lueurxax/job-digest-notifier/internal/platform/worker"
)

// Log field names.
const (
	LogFieldChannel   = "channel"
	LogFieldBatchID   = "batch_id"
	LogFieldContactID = "contact_id"
	LogFieldRecipient = "recipient"
	LogFieldAttempt   = "attempt"
	LogFieldJobIDs    = "job_ids"
	LogFieldBatch     = "batch"
)

var errIncomplete = errors.New("delivery task did not complete")

const (
	statusSuccess = "success"
	statusFailure = "failure"

	dryRunMessagePrefix = "dry-run"
)

// Target is one contact addressed on one channel.
type Target struct {
	Contact domain.Contact
	// Address is the email address or chat id the message goes to.
	Address string
	// Jobs are the jobs the message carries. Outcomes report exactly these.
	Jobs []domain.Job
	// Body is a message rendered ahead of delivery. Channels that render
	// inside SendFunc leave it empty.
	Body string
}

// SendFunc performs one delivery attempt and returns the provider message id.
type SendFunc func(ctx context.Context, t Target) (string, error)

// Options configures an Engine.
type Options struct {
	Channel     domain.Channel
	BatchSize   int
	BatchPause  time.Duration
	Concurrency int
	MaxRetries  int
	Backoffs    []time.Duration
	DryRun      bool
	// Limiter, when set, is waited on before every attempt.
	Limiter *rate.Limiter
	Log     ports.DigestLog
	Logger  *zerolog.Logger
}

// Engine runs deliveries for one channel.
type Engine struct {
	opts  Options
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine creates an engine. Zero batch size or concurrency mean 1.
func NewEngine(opts Options) *Engine {
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}

	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	return &Engine{opts: opts, sleep: worker.Wait}
}

// Backoff returns the wait before retry number retry (0-based), clamped to
// the last configured backoff.
func Backoff(backoffs []time.Duration, retry int) time.Duration {
	if len(backoffs) == 0 {
		return 0
	}

	if retry < 0 {
		retry = 0
	}

	if retry >= len(backoffs) {
		retry = len(backoffs) - 1
	}

	return backoffs[retry]
}

// Deliver sends to every target and returns the channel summary. Outcomes are
// recorded in target order.
func (e *Engine) Deliver(ctx context.Context, batchID string, targets []Target, send SendFunc) domain.ChannelSummary {
	summary := domain.NewChannelSummary(e.opts.Channel)
	summary.DryRun = e.opts.DryRun

	logger := e.opts.Logger.With().
		Str(LogFieldChannel, string(e.opts.Channel)).
		Str(LogFieldBatchID, batchID).
		Logger()

	for start, batch := 0, 0; start < len(targets); start, batch = start+e.opts.BatchSize, batch+1 {
		end := min(start+e.opts.BatchSize, len(targets))

		if start > 0 {
			if err := e.sleep(ctx, e.opts.BatchPause); err != nil {
				for _, t := range targets[start:] {
					summary.Record(e.abandoned(batchID, t, err))
				}

				break
			}
		}

		logger.Debug().Int(LogFieldBatch, batch).Int("size", end-start).Msg("sending batch")

		for _, o := range e.deliverBatch(ctx, &logger, batchID, targets[start:end], send) {
			summary.Record(o)
		}
	}

	logger.Info().
		Int("attempted", summary.Attempted).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Bool("dry_run", summary.DryRun).
		Msg("channel delivery finished")

	return summary
}

func (e *Engine) deliverBatch(ctx context.Context, logger *zerolog.Logger, batchID string, targets []Target, send SendFunc) []domain.DeliveryOutcome {
	outcomes := make([]domain.DeliveryOutcome, len(targets))
	done := make([]bool, len(targets))

	worker.Pool(ctx, worker.PoolConfig{
		Name:        string(e.opts.Channel),
		Concurrency: e.opts.Concurrency,
		Logger:      logger,
	}, len(targets), func(ctx context.Context, i int) {
		outcomes[i] = e.deliverOne(ctx, logger, batchID, targets[i], send)
		done[i] = true
	})

	for i := range outcomes {
		if !done[i] {
			err := ctx.Err()
			if err == nil {
				err = errIncomplete
			}

			outcomes[i] = e.abandoned(batchID, targets[i], err)
		}
	}

	return outcomes
}

func (e *Engine) abandoned(batchID string, t Target, err error) domain.DeliveryOutcome {
	return domain.DeliveryOutcome{
		Channel:   e.opts.Channel,
		ContactID: t.Contact.ID,
		Recipient: t.Address,
		BatchID:   batchID,
		JobIDs:    domain.JobKeys(t.Jobs),
		Error:     err.Error(),
	}
}

func (e *Engine) deliverOne(ctx context.Context, logger *zerolog.Logger, batchID string, t Target, send SendFunc) domain.DeliveryOutcome {
	outcome := domain.DeliveryOutcome{
		Channel:   e.opts.Channel,
		ContactID: t.Contact.ID,
		Recipient: t.Address,
		BatchID:   batchID,
		JobIDs:    domain.JobKeys(t.Jobs),
	}

	if len(t.Jobs) == 0 {
		outcome.Error = apperrors.ErrNoJobsForContact.Error()
		e.count(statusFailure)

		logger.Debug().Int64(LogFieldContactID, t.Contact.ID).Msg("no jobs for contact, skipping send")

		return outcome
	}

	jobIDs := domain.KeyStrings(outcome.JobIDs)
	maxAttempts := 1 + e.opts.MaxRetries

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		outcome.Attempts = attempt

		messageID, err := e.attempt(ctx, batchID, t, send)
		e.logAttempt(ctx, logger, batchID, t, jobIDs, attempt, messageID, err)

		if err == nil {
			outcome.OK = true
			outcome.MessageID = messageID
			outcome.Error = ""
			e.count(statusSuccess)

			return outcome
		}

		outcome.Error = err.Error()

		if attempt == maxAttempts || !Retryable(err) {
			break
		}

		wait := max(Backoff(e.opts.Backoffs, attempt-1), retryAfter(err))
		if serr := e.sleep(ctx, wait); serr != nil {
			outcome.Error = serr.Error()

			break
		}
	}

	e.count(statusFailure)

	return outcome
}

func (e *Engine) attempt(ctx context.Context, batchID string, t Target, send SendFunc) (string, error) {
	observability.DeliveryAttempts.WithLabelValues(string(e.opts.Channel)).Inc()

	if e.opts.Limiter != nil {
		if err := e.opts.Limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	if e.opts.DryRun {
		return fmt.Sprintf("%s-%s-%d", dryRunMessagePrefix, batchID, t.Contact.ID), nil
	}

	return send(ctx, t)
}

func (e *Engine) logAttempt(ctx context.Context, logger *zerolog.Logger, batchID string, t Target, jobIDs []string, attempt int, messageID string, sendErr error) {
	entry := domain.DigestLogEntry{
		Time:      time.Now(),
		Channel:   e.opts.Channel,
		Recipient: t.Address,
		ContactID: t.Contact.ID,
		BatchID:   batchID,
		JobIDs:    jobIDs,
		Attempt:   attempt,
		MessageID: messageID,
		DryRun:    e.opts.DryRun,
	}

	event := logger.Debug()

	var logErr error

	if sendErr != nil {
		entry.Error = sendErr.Error()
		event = logger.Warn().Err(sendErr)

		if e.opts.Log != nil {
			logErr = e.opts.Log.LogFailure(ctx, entry)
		}
	} else if e.opts.Log != nil {
		logErr = e.opts.Log.LogSuccess(ctx, entry)
	}

	event.
		Int64(LogFieldContactID, t.Contact.ID).
		Str(LogFieldRecipient, t.Address).
		Int(LogFieldAttempt, attempt).
		Strs(LogFieldJobIDs, jobIDs).
		Msg("delivery attempt")

	if logErr != nil {
		logger.Warn().Err(logErr).Int64(LogFieldContactID, t.Contact.ID).Msg("failed to write digest log entry")
	}
}

func (e *Engine) count(status string) {
	observability.Deliveries.WithLabelValues(string(e.opts.Channel), status).Inc()
}
