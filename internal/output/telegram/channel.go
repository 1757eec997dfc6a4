package telegram

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/job-digest-notifier/internal/core/errors"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
	"github.com/lueurxax/job-digest-notifier/internal/output/delivery"
	"github.com/lueurxax/job-digest-notifier/internal/output/render"
	"github.com/lueurxax/job-digest-notifier/internal/platform/config"
)

const reasonDisabled = "telegram channel disabled"

// Channel sends digests to contacts that linked a Telegram chat.
type Channel struct {
	cfg      config.TelegramConfig
	builder  *render.Builder
	sender   ports.MessageSender
	hasToken bool
	engine   *delivery.Engine
	logger   *zerolog.Logger
}

// New creates the channel. The bot token is checked when sending, so a
// disabled or dry-run deployment needs none.
func New(cfg config.TelegramConfig, builder *render.Builder, sender ports.MessageSender, log ports.DigestLog, logger *zerolog.Logger) *Channel {
	engineOpts := delivery.OptionsFrom(domain.ChannelTelegram, cfg.Delivery(), cfg.DryRun)
	engineOpts.Log = log
	engineOpts.Logger = logger

	if cfg.RateLimitRPS > 0 {
		engineOpts.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}

	return &Channel{
		cfg:      cfg,
		builder:  builder,
		sender:   sender,
		hasToken: cfg.BotToken != "",
		engine:   delivery.NewEngine(engineOpts),
		logger:   logger,
	}
}

// Name returns the channel name.
func (c *Channel) Name() domain.Channel {
	return domain.ChannelTelegram
}

// Enabled reports whether the channel sends at all.
func (c *Channel) Enabled() bool {
	return c.cfg.Enabled
}

// Addresses reports whether the channel would message contact.
func (c *Channel) Addresses(contact domain.Contact) bool {
	return c.cfg.Enabled && contact.HasTelegram()
}

// SendDigests messages every contact with a chat id. Contacts without one are
// counted as skipped and never attempted. A digest too long for one message
// is cut before sending, and its outcome lists only the jobs that were shown.
func (c *Channel) SendDigests(ctx context.Context, req delivery.Request) (domain.ChannelSummary, error) {
	if !c.cfg.Enabled {
		summary := domain.NewChannelSummary(domain.ChannelTelegram)
		summary.Reason = reasonDisabled

		return summary, nil
	}

	if !c.cfg.DryRun && !c.hasToken {
		return domain.NewChannelSummary(domain.ChannelTelegram), apperrors.ErrBotTokenMissing
	}

	targets := make([]delivery.Target, 0, len(req.Contacts))
	skipped := 0

	for _, contact := range req.Contacts {
		if !contact.HasTelegram() {
			skipped++

			continue
		}

		msg := c.builder.BuildTelegramMessage(contact, req.JobsFor(contact))

		targets = append(targets, delivery.Target{
			Contact: contact,
			Address: contact.TelegramChatID,
			Jobs:    msg.Jobs,
			Body:    msg.Text,
		})
	}

	summary := c.engine.Deliver(ctx, req.BatchID, targets, c.send)
	summary.Skipped = skipped

	return summary, nil
}

func (c *Channel) send(ctx context.Context, t delivery.Target) (string, error) {
	return c.sender.SendMessage(ctx, t.Address, t.Body)
}
