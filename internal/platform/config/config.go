package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	apperrors "github.com/lueurxax/job-digest-notifier/internal/core/errors"
)

// Config is the single typed configuration of the process. Nothing outside
// this package reads the environment.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080" validate:"gte=1,lte=65535"`
	HealthToken string `env:"HEALTH_TOKEN"`

	Database  DatabaseConfig
	Marketing MarketingConfig
	Email     EmailConfig
	Telegram  TelegramConfig
	DigestLog DigestLogConfig
	Alert     AlertConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyLegacyAliases(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks struct-tag rules and the cross-field rules that tags can't
// express. It also resolves the created-after cutoff.
func (c *Config) Validate() error {
	v := validator.New()

	if err := v.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidConfig, err)
	}

	for name, d := range map[string]DeliveryConfig{"email": c.Email.Delivery(), "telegram": c.Telegram.Delivery()} {
		if err := v.Struct(d); err != nil {
			return fmt.Errorf("%w: %s delivery: %w", apperrors.ErrInvalidConfig, name, err)
		}
	}

	if _, err := cron.ParseStandard(c.Marketing.Cron); err != nil {
		return fmt.Errorf("%w: MARKETING_CRON %q: %w", apperrors.ErrInvalidConfig, c.Marketing.Cron, err)
	}

	if c.Marketing.CreatedAfter != "" {
		t, err := dateparse.ParseAny(strings.TrimSpace(c.Marketing.CreatedAfter))
		if err != nil {
			return fmt.Errorf("%w: MARKETING_CREATED_AFTER %q: %w", apperrors.ErrInvalidConfig, c.Marketing.CreatedAfter, err)
		}

		c.Marketing.createdAfter = &t
	}

	if c.DigestLog.Backend == DigestLogFile && c.DigestLog.Path == "" {
		return fmt.Errorf("%w: DIGEST_LOG_PATH is required for the file backend", apperrors.ErrInvalidConfig)
	}

	return nil
}

// Cutoff returns the created-after bound for pending jobs at now: the
// absolute MARKETING_CREATED_AFTER when set, else now-MARKETING_LOOKBACK,
// else nil.
func (c MarketingConfig) Cutoff(now time.Time) *time.Time {
	if c.createdAfter != nil {
		t := *c.createdAfter
		return &t
	}

	if c.Lookback > 0 {
		t := now.Add(-c.Lookback)
		return &t
	}

	return nil
}

// IsLocal reports whether the process runs in a developer environment.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "local"
}

// IsValidationError reports whether err came from Validate.
func IsValidationError(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidConfig)
}

// applyLegacyAliases maps env names used by older deployments onto the
// canonical fields when the canonical name is absent.
func applyLegacyAliases(cfg *Config) {
	if !hasEnv("SMTP_USERNAME") {
		setStringFromEnv("SMTP_USER", &cfg.Email.SMTPUsername)
	}

	if !hasEnv("SMTP_PASSWORD") {
		setStringFromEnv("SMTP_PASS", &cfg.Email.SMTPPassword)
	}

	if !hasEnv("TELEGRAM_BOT_TOKEN") {
		setStringFromEnv("BOT_TOKEN", &cfg.Telegram.BotToken)
	}

	if !hasEnv("EMAIL_FROM") {
		setStringFromEnv("SMTP_FROM", &cfg.Email.From)
	}
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}
