package digest

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/platform/worker"
)

// Runner executes a single digest run.
type Runner interface {
	Run(ctx context.Context, opts RunOptions) domain.RunSummary
}

// Scheduler triggers digest runs on a cron cadence.
type Scheduler struct {
	cron       *cron.Cron
	runner     Runner
	spec       string
	runOnStart bool
	logger     *zerolog.Logger

	wg sync.WaitGroup
}

// NewScheduler builds a scheduler for spec, a standard cron expression or
// descriptor such as "@every 1h".
func NewScheduler(spec string, runOnStart bool, runner Runner, logger *zerolog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}

	return &Scheduler{
		cron:       cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		runner:     runner,
		spec:       spec,
		runOnStart: runOnStart,
		logger:     logger,
	}
}

// Start registers the digest job and starts the cron loop. Runs triggered by
// the scheduler use ctx, so canceling it aborts an in-flight run.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("add cron job %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info().Str("spec", s.spec).Bool("run_on_start", s.runOnStart).Msg("digest scheduler started")

	if s.runOnStart {
		s.wg.Add(1)

		go func() {
			defer s.wg.Done()
			defer worker.RecoverPanic(s.logger, "digest run on start")

			s.run(ctx)
		}()
	}

	return nil
}

// Run starts the scheduler and blocks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	s.Stop()

	return nil
}

// Stop halts the cron loop and waits for in-flight runs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()

	s.logger.Info().Msg("digest scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.runner.Run(ctx, RunOptions{Source: SourceScheduler})
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
