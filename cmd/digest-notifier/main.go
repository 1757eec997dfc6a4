package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/job-digest-notifier/internal/app"
	"github.com/lueurxax/job-digest-notifier/internal/output/digest"
	"github.com/lueurxax/job-digest-notifier/internal/platform/config"
	db "github.com/lueurxax/job-digest-notifier/internal/storage"
)

func main() {
	mode := flag.String("mode", "serve", "Service mode (serve, digest)")
	once := flag.Bool("once", false, "Run a single digest and exit (for digest mode)")
	force := flag.Bool("force", false, "Run even if no jobs are pending (for digest mode)")
	limit := flag.Int("limit", 0, "Override the pending jobs fetch limit (for digest mode)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.IsLocal(), cfg.LogLevel)

	if err := validateMode(*mode, *once); err != nil {
		logger.Fatal().Err(err).Msg("invalid command line")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolOpts := db.PoolOptions{
		MaxConns:          cfg.Database.MaxConnections,
		MinConns:          cfg.Database.MinConnections,
		MaxConnIdleTime:   cfg.Database.MaxConnIdleTime,
		MaxConnLifetime:   cfg.Database.MaxConnLifetime,
		HealthCheckPeriod: cfg.Database.HealthCheckPeriod,
	}

	database, err := db.NewWithOptions(ctx, cfg.Database.PostgresDSN, poolOpts, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	application, err := app.New(cfg, database, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}

	if err := runMode(ctx, application, *mode, *once, digest.RunOptions{Force: *force, Limit: *limit}); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(local bool, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	if local {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(lvl).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

var (
	errOnceRequired = errors.New("digest mode requires --once; use --mode=serve for scheduled runs")
	errUnknownMode  = errors.New("unknown mode")
)

func validateMode(mode string, once bool) error {
	switch mode {
	case "serve":
		return nil
	case "digest":
		if !once {
			return errOnceRequired
		}

		return nil
	default:
		return fmt.Errorf("%w %q; usage: %s --mode=[serve|digest] [--once] [--force] [--limit=N]", errUnknownMode, mode, os.Args[0])
	}
}

func runMode(ctx context.Context, application *app.App, mode string, once bool, opts digest.RunOptions) error {
	if err := validateMode(mode, once); err != nil {
		return err
	}

	if mode == "digest" {
		return application.RunDigestOnce(ctx, opts, os.Stdout)
	}

	return application.RunServe(ctx)
}
