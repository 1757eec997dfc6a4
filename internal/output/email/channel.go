// Package email is the email delivery channel: it renders a digest per
// contact and sends it over SMTP through the shared delivery engine.
package email

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/job-digest-notifier/internal/core/errors"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
	"github.com/lueurxax/job-digest-notifier/internal/output/delivery"
	"github.com/lueurxax/job-digest-notifier/internal/output/render"
	"github.com/lueurxax/job-digest-notifier/internal/platform/config"
)

const reasonDisabled = "email channel disabled"

// Channel sends digest emails.
type Channel struct {
	cfg     config.EmailConfig
	builder *render.Builder
	engine  *delivery.Engine
	logger  *zerolog.Logger

	newTransport func() Transport
	once         sync.Once
	transport    Transport
}

// Option customizes a Channel.
type Option func(*Channel)

// WithTransport replaces the SMTP transport.
func WithTransport(t Transport) Option {
	return func(c *Channel) {
		c.newTransport = func() Transport { return t }
	}
}

// New creates the channel. An enabled, non-dry-run channel requires an SMTP
// host. The transport itself is created on first send.
func New(cfg config.EmailConfig, builder *render.Builder, log ports.DigestLog, logger *zerolog.Logger, opts ...Option) (*Channel, error) {
	if cfg.Enabled && !cfg.DryRun && strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, apperrors.ErrSMTPNotConfigured
	}

	engineOpts := delivery.OptionsFrom(domain.ChannelEmail, cfg.Delivery(), cfg.DryRun)
	engineOpts.Log = log
	engineOpts.Logger = logger

	c := &Channel{
		cfg:     cfg,
		builder: builder,
		engine:  delivery.NewEngine(engineOpts),
		logger:  logger,
	}

	c.newTransport = func() Transport {
		return NewSMTPTransport(SMTPConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Secure:      cfg.SMTPSecure,
			Username:    cfg.SMTPUsername,
			Password:    cfg.SMTPPassword,
			DialTimeout: cfg.DialTimeout,
		})
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Name returns the channel name.
func (c *Channel) Name() domain.Channel {
	return domain.ChannelEmail
}

// Enabled reports whether the channel sends at all.
func (c *Channel) Enabled() bool {
	return c.cfg.Enabled
}

func (c *Channel) getTransport() Transport {
	c.once.Do(func() {
		c.transport = c.newTransport()
		c.logger.Debug().Str("host", c.cfg.SMTPHost).Int("port", c.cfg.SMTPPort).Msg("smtp transport created")
	})

	return c.transport
}

// SendDigests emails every contact its digest. Contacts without an address are
// counted as skipped.
func (c *Channel) SendDigests(ctx context.Context, req delivery.Request) (domain.ChannelSummary, error) {
	if !c.cfg.Enabled {
		summary := domain.NewChannelSummary(domain.ChannelEmail)
		summary.Reason = reasonDisabled

		return summary, nil
	}

	targets := make([]delivery.Target, 0, len(req.Contacts))
	skipped := 0

	for _, contact := range req.Contacts {
		if contact.Email == "" {
			skipped++

			continue
		}

		targets = append(targets, delivery.Target{
			Contact: contact,
			Address: contact.Email,
			Jobs:    req.JobsFor(contact),
		})
	}

	summary := c.engine.Deliver(ctx, req.BatchID, targets, c.send)
	summary.Skipped = skipped

	return summary, nil
}

func (c *Channel) send(ctx context.Context, t delivery.Target) (string, error) {
	if t.Address == "" {
		return "", apperrors.ErrNoRecipient
	}

	rendered, err := c.builder.BuildEmail(t.Contact, t.Jobs)
	if err != nil {
		return "", fmt.Errorf("build email: %w", err)
	}

	messageID, err := c.getTransport().Send(ctx, Message{
		From:     c.cfg.From,
		FromName: c.cfg.FromName,
		To:       t.Address,
		Subject:  rendered.Subject,
		HTML:     rendered.HTML,
		Text:     rendered.Text,
	})
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}

	return messageID, nil
}

// Addresses reports whether the channel would message contact.
func (c *Channel) Addresses(contact domain.Contact) bool {
	return c.cfg.Enabled && contact.Email != ""
}
