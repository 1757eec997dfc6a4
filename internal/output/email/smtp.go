package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
)

// Message is one outgoing email.
type Message struct {
	From     string
	FromName string
	To       string
	Subject  string
	HTML     string
	Text     string
}

// Transport delivers a composed message and returns its Message-ID.
type Transport interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SMTPConfig configures SMTPTransport.
type SMTPConfig struct {
	Host        string
	Port        int
	Secure      bool
	Username    string
	Password    string
	DialTimeout time.Duration
}

// SMTPTransport sends mail over SMTP with implicit TLS when Secure is set and
// opportunistic STARTTLS otherwise.
type SMTPTransport struct {
	cfg SMTPConfig
	now func() time.Time
}

var _ Transport = (*SMTPTransport)(nil)

// NewSMTPTransport creates a transport. The connection is opened per message.
func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg, now: time.Now}
}

// Compose builds a multipart/alternative message with text and HTML parts.
func Compose(msg Message, date time.Time) ([]byte, string, error) {
	var h mail.Header

	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{{Name: msg.FromName, Address: msg.From}})
	h.SetAddressList("To", []*mail.Address{{Address: msg.To}})
	h.SetSubject(msg.Subject)

	if err := h.GenerateMessageID(); err != nil {
		return nil, "", fmt.Errorf("generate message id: %w", err)
	}

	messageID, err := h.MessageID()
	if err != nil {
		return nil, "", fmt.Errorf("read message id: %w", err)
	}

	var buf bytes.Buffer

	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, "", fmt.Errorf("create mail writer: %w", err)
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, "", fmt.Errorf("create inline writer: %w", err)
	}

	for _, part := range []struct {
		contentType string
		body        string
	}{
		{"text/plain", msg.Text},
		{"text/html", msg.HTML},
	} {
		if part.body == "" {
			continue
		}

		if err := writePart(tw, part.contentType, part.body); err != nil {
			return nil, "", err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, "", fmt.Errorf("close inline writer: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close mail writer: %w", err)
	}

	return buf.Bytes(), messageID, nil
}

func writePart(tw *mail.InlineWriter, contentType, body string) error {
	var ph mail.InlineHeader

	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})

	w, err := tw.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("create %s part: %w", contentType, err)
	}

	if _, err := io.WriteString(w, body); err != nil {
		_ = w.Close()

		return fmt.Errorf("write %s part: %w", contentType, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s part: %w", contentType, err)
	}

	return nil
}

// Send composes msg and delivers it in one SMTP session.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) (string, error) {
	raw, messageID, err := Compose(msg, t.now())
	if err != nil {
		return "", err
	}

	client, err := t.dial(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := t.authenticate(client); err != nil {
		return "", err
	}

	if err := client.Mail(msg.From); err != nil {
		return "", fmt.Errorf("smtp mail from: %w", err)
	}

	if err := client.Rcpt(msg.To); err != nil {
		return "", fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return "", fmt.Errorf("smtp data: %w", err)
	}

	if _, err := w.Write(raw); err != nil {
		_ = w.Close()

		return "", fmt.Errorf("smtp write message: %w", err)
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("smtp close data: %w", err)
	}

	if err := client.Quit(); err != nil {
		return "", fmt.Errorf("smtp quit: %w", err)
	}

	return messageID, nil
}

func (t *SMTPTransport) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	dialer := &net.Dialer{Timeout: t.cfg.DialTimeout}
	tlsConfig := &tls.Config{ServerName: t.cfg.Host, MinVersion: tls.VersionTLS12}

	var conn net.Conn

	var err error

	if t.cfg.Secure {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}

	if err != nil {
		return nil, fmt.Errorf("connect to smtp server %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	if !t.cfg.Secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				_ = client.Close()

				return nil, fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	return client, nil
}

func (t *SMTPTransport) authenticate(client *smtp.Client) error {
	if t.cfg.Username == "" {
		return nil
	}

	if ok, _ := client.Extension("AUTH"); !ok {
		return fmt.Errorf("smtp server %s does not support AUTH", t.cfg.Host)
	}

	if err := client.Auth(smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)); err != nil {
		return fmt.Errorf("smtp authentication failed: %w", err)
	}

	return nil
}
