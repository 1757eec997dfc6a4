// Package app provides the main application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies once and exposes methods to
// run the operational modes:
//
//   - Serve mode: cron scheduler plus the HTTP surface (health checks, metrics,
//     manual trigger, health report and the Telegram webhook)
//   - Digest mode: a single orchestrator run whose summary is printed as JSON
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/lueurxax/job-digest-notifier/internal/api"
	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
	"github.com/lueurxax/job-digest-notifier/internal/digestlog"
	"github.com/lueurxax/job-digest-notifier/internal/inbound/webhook"
	"github.com/lueurxax/job-digest-notifier/internal/output/digest"
	"github.com/lueurxax/job-digest-notifier/internal/output/email"
	"github.com/lueurxax/job-digest-notifier/internal/output/render"
	"github.com/lueurxax/job-digest-notifier/internal/output/telegram"
	"github.com/lueurxax/job-digest-notifier/internal/platform/config"
	"github.com/lueurxax/job-digest-notifier/internal/platform/observability"
	db "github.com/lueurxax/job-digest-notifier/internal/storage"
)

const (
	routeWebhook = "/telegram/webhook"

	logFieldBackend = "backend"
	logFieldPath    = "path"
)

var errDigestRunFailed = errors.New("digest run failed")

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg          *config.Config
	database     *db.DB
	orchestrator *digest.Orchestrator
	scheduler    *digest.Scheduler
	webhook      *webhook.Handler
	api          *api.Handler
	logger       *zerolog.Logger
}

// New builds every collaborator from cfg.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) (*App, error) {
	digestLog, err := newDigestLog(cfg.DigestLog, database, logger)
	if err != nil {
		return nil, err
	}

	builder := render.NewBuilder(cfg.Marketing.SiteBaseURL, cfg.Email.FromName)

	emailChannel, err := email.New(cfg.Email, builder, digestLog, logger)
	if err != nil {
		return nil, fmt.Errorf("email channel init: %w", err)
	}

	tgClient := telegram.NewClient(cfg.Telegram.APIBase, cfg.Telegram.BotToken, cfg.Telegram.Timeout, nil)
	tgChannel := telegram.New(cfg.Telegram, builder, tgClient, digestLog, logger)

	orch := digest.New(cfg, database, database, digestLog, []digest.Channel{emailChannel, tgChannel}, logger)

	if cfg.Alert.ChatID != "" && tgClient.HasToken() {
		orch.SetAlertSender(tgClient)
	}

	matcher := webhook.NewMatcher(database, tgClient, builder.Brand(), cfg.Telegram.BotUsername, logger)

	logger.Info().
		Bool("email_enabled", emailChannel.Enabled()).
		Bool("email_dry_run", cfg.Email.DryRun).
		Bool("telegram_enabled", tgChannel.Enabled()).
		Bool("telegram_dry_run", cfg.Telegram.DryRun).
		Bool("telegram_token", tgClient.HasToken()).
		Msg("delivery channels configured")

	return &App{
		cfg:          cfg,
		database:     database,
		orchestrator: orch,
		scheduler:    digest.NewScheduler(cfg.Marketing.Cron, cfg.Marketing.RunOnStart, orch, logger),
		webhook:      webhook.NewHandler(matcher, cfg.Telegram.WebhookSecret, logger),
		api:          api.NewHandler(orch, cfg.HealthToken, logger),
		logger:       logger,
	}, nil
}

func newDigestLog(cfg config.DigestLogConfig, database *db.DB, logger *zerolog.Logger) (ports.DigestLog, error) {
	if cfg.Backend == config.DigestLogFile {
		fileLog, err := digestlog.NewFile(cfg.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("digest log init: %w", err)
		}

		logger.Info().Str(logFieldBackend, cfg.Backend).Str(logFieldPath, cfg.Path).Msg("digest log ready")

		return fileLog, nil
	}

	logger.Info().Str(logFieldBackend, config.DigestLogTable).Msg("digest log ready")

	return database, nil
}

// StartHTTPServer serves the health checks, metrics, API and webhook until ctx is done.
func (a *App) StartHTTPServer(ctx context.Context) error {
	routes := append(a.api.Routes(), observability.Route{Pattern: routeWebhook, Handler: a.webhook})

	srv := observability.NewServer(a.database, a.cfg.HTTPPort, a.logger, routes...)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}

	return nil
}

// RunServe runs the scheduler and the HTTP server until ctx is canceled.
func (a *App) RunServe(ctx context.Context) error {
	a.logger.Info().Str("cron", a.cfg.Marketing.Cron).Bool("marketing_enabled", a.cfg.Marketing.Enabled).Msg("Starting serve mode")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpErr := make(chan error, 1)

	go func() {
		httpErr <- a.StartHTTPServer(ctx)
	}()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("digest scheduler: %w", err)
	}

	defer a.scheduler.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-httpErr:
		return err
	}
}

// RunDigestOnce performs a single run and writes the summary as JSON to out.
// A summary that is neither ok nor skipped yields errDigestRunFailed.
func (a *App) RunDigestOnce(ctx context.Context, opts digest.RunOptions, out io.Writer) error {
	if opts.Source == "" {
		opts.Source = digest.SourceCLI
	}

	a.logger.Info().Bool("force", opts.Force).Int("limit", opts.Limit).Msg("Starting digest mode")

	summary := a.orchestrator.Run(ctx, opts)

	if err := writeSummary(out, summary); err != nil {
		return err
	}

	if !summary.OK && !summary.Skipped {
		return fmt.Errorf("%w: %d error(s)", errDigestRunFailed, len(summary.Errors))
	}

	return nil
}

func writeSummary(out io.Writer, summary domain.RunSummary) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("write run summary: %w", err)
	}

	return nil
}
