package config

import "time"

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	PostgresDSN       string        `env:"POSTGRES_DSN,required" validate:"required"`
	MaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10" validate:"gte=0"`
	MinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"2" validate:"gte=0"`
	MaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	MaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	HealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

// MarketingConfig controls the digest orchestrator and its schedule.
type MarketingConfig struct {
	Enabled      bool          `env:"MARKETING_ENABLED" envDefault:"true"`
	Cron         string        `env:"MARKETING_CRON" envDefault:"@every 1h" validate:"required"`
	RunOnStart   bool          `env:"MARKETING_RUN_ON_START" envDefault:"false"`
	JobLimit     int           `env:"MARKETING_JOB_LIMIT" envDefault:"200" validate:"gte=1"`
	DigestSize   int           `env:"MARKETING_DIGEST_SIZE" envDefault:"10" validate:"gte=1"`
	ContactLimit int           `env:"MARKETING_CONTACT_LIMIT" envDefault:"0" validate:"gte=0"`
	CreatedAfter string        `env:"MARKETING_CREATED_AFTER"`
	Lookback     time.Duration `env:"MARKETING_LOOKBACK" envDefault:"0s" validate:"gte=0"`
	SiteBaseURL  string        `env:"SITE_BASE_URL" envDefault:"https://jobs.example.com" validate:"omitempty,url"`

	createdAfter *time.Time
}

// DeliveryConfig holds the batching and retry knobs shared by both channels.
type DeliveryConfig struct {
	BatchSize     int             `validate:"gte=1"`
	BatchPause    time.Duration   `validate:"gte=0"`
	Concurrency   int             `validate:"gte=1"`
	MaxRetries    int             `validate:"gte=0"`
	RetryBackoffs []time.Duration `validate:"dive,gte=0"`
}

// EmailConfig holds SMTP and email delivery settings.
type EmailConfig struct {
	Enabled       bool            `env:"EMAIL_ENABLED" envDefault:"true"`
	DryRun        bool            `env:"EMAIL_DRY_RUN" envDefault:"false"`
	SMTPHost      string          `env:"SMTP_HOST"`
	SMTPPort      int             `env:"SMTP_PORT" envDefault:"587" validate:"gte=1,lte=65535"`
	SMTPSecure    bool            `env:"SMTP_SECURE" envDefault:"false"`
	SMTPUsername  string          `env:"SMTP_USERNAME"`
	SMTPPassword  string          `env:"SMTP_PASSWORD"`
	DialTimeout   time.Duration   `env:"SMTP_DIAL_TIMEOUT" envDefault:"15s"`
	From          string          `env:"EMAIL_FROM" envDefault:"no-reply@jobs.example.com" validate:"required,email"`
	FromName      string          `env:"EMAIL_FROM_NAME" envDefault:"Job Board"`
	BatchSize     int             `env:"EMAIL_BATCH_SIZE" envDefault:"50"`
	BatchPause    time.Duration   `env:"EMAIL_BATCH_PAUSE" envDefault:"2s"`
	Concurrency   int             `env:"EMAIL_CONCURRENCY" envDefault:"5"`
	MaxRetries    int             `env:"EMAIL_MAX_RETRIES" envDefault:"2"`
	RetryBackoffs []time.Duration `env:"EMAIL_RETRY_BACKOFFS" envDefault:"1s,5s,15s" envSeparator:","`
}

// Delivery returns the shared delivery knobs of the email channel.
func (c EmailConfig) Delivery() DeliveryConfig {
	return DeliveryConfig{
		BatchSize:     c.BatchSize,
		BatchPause:    c.BatchPause,
		Concurrency:   c.Concurrency,
		MaxRetries:    c.MaxRetries,
		RetryBackoffs: c.RetryBackoffs,
	}
}

// TelegramConfig holds Telegram Bot API and delivery settings.
type TelegramConfig struct {
	Enabled       bool            `env:"TELEGRAM_ENABLED" envDefault:"true"`
	DryRun        bool            `env:"TELEGRAM_DRY_RUN" envDefault:"false"`
	BotToken      string          `env:"TELEGRAM_BOT_TOKEN"`
	BotUsername   string          `env:"TELEGRAM_BOT_USERNAME"`
	APIBase       string          `env:"TELEGRAM_API_BASE" envDefault:"https://api.telegram.org" validate:"required,url"`
	WebhookSecret string          `env:"TELEGRAM_WEBHOOK_SECRET"`
	Timeout       time.Duration   `env:"TELEGRAM_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	RateLimitRPS  float64         `env:"TELEGRAM_RATE_LIMIT_RPS" envDefault:"25" validate:"gte=0"`
	BatchSize     int             `env:"TELEGRAM_BATCH_SIZE" envDefault:"25"`
	BatchPause    time.Duration   `env:"TELEGRAM_BATCH_PAUSE" envDefault:"1s"`
	Concurrency   int             `env:"TELEGRAM_CONCURRENCY" envDefault:"3"`
	MaxRetries    int             `env:"TELEGRAM_MAX_RETRIES" envDefault:"2"`
	RetryBackoffs []time.Duration `env:"TELEGRAM_RETRY_BACKOFFS" envDefault:"1s,3s,10s" envSeparator:","`
}

// Delivery returns the shared delivery knobs of the Telegram channel.
func (c TelegramConfig) Delivery() DeliveryConfig {
	return DeliveryConfig{
		BatchSize:     c.BatchSize,
		BatchPause:    c.BatchPause,
		Concurrency:   c.Concurrency,
		MaxRetries:    c.MaxRetries,
		RetryBackoffs: c.RetryBackoffs,
	}
}

// Digest log backends.
const (
	DigestLogTable = "table"
	DigestLogFile  = "file"
)

// DigestLogConfig selects the delivery audit sink.
type DigestLogConfig struct {
	Backend string `env:"DIGEST_LOG_BACKEND" envDefault:"table" validate:"oneof=table file"`
	Path    string `env:"DIGEST_LOG_PATH" envDefault:"./data/digest-log.jsonl"`
}

// AlertConfig holds the post-run alert thresholds.
type AlertConfig struct {
	BacklogThreshold     int           `env:"ALERT_BACKLOG_THRESHOLD" envDefault:"500" validate:"gte=0"`
	FailureRateThreshold float64       `env:"ALERT_FAILURE_RATE_THRESHOLD" envDefault:"0.25" validate:"gte=0,lte=1"`
	FailureWindow        time.Duration `env:"ALERT_FAILURE_WINDOW" envDefault:"24h" validate:"gt=0"`
	MinSample            int           `env:"ALERT_MIN_SAMPLE" envDefault:"20" validate:"gte=0"`
	ChatID               string        `env:"ALERT_CHAT_ID"`
}
