// Package telegram is the Telegram delivery channel and a minimal Bot API
// client for sendMessage.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperrors "github.com/lueurxax/job-digest-notifier/internal/core/errors"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
	"github.com/lueurxax/job-digest-notifier/internal/output/delivery"
)

const (
	providerName     = "telegram"
	methodSend       = "sendMessage"
	maxResponseBytes = 1 << 20
	defaultTimeout   = 10 * time.Second
)

// Client posts to the Bot API.
type Client struct {
	apiBase string
	token   string
	timeout time.Duration
	http    *http.Client
}

var _ ports.MessageSender = (*Client)(nil)

// NewClient creates a client. A nil httpClient uses http.DefaultClient.
func NewClient(apiBase, token string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		apiBase: strings.TrimRight(apiBase, "/"),
		token:   token,
		timeout: timeout,
		http:    httpClient,
	}
}

// HasToken reports whether a bot token is configured.
func (c *Client) HasToken() bool {
	return c.token != ""
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	tgbotapi.APIResponse
	Error string `json:"error"`
}

// SendMessage sends text to chatID and returns the Telegram message id.
// Each call is bounded by the client timeout.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) (string, error) {
	if c.token == "" {
		return "", apperrors.ErrBotTokenMissing
	}

	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text, DisableWebPagePreview: true})
	if err != nil {
		return "", fmt.Errorf("marshal sendMessage: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, methodSend)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build sendMessage request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error wraps the full URL, which carries the token.
		return "", fmt.Errorf("telegram sendMessage: %w", redact(err, c.token))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read sendMessage response: %w", err)
	}

	return parseSendResponse(resp.StatusCode, raw)
}

// parseSendResponse turns a Bot API reply into a message id or a
// delivery.ProviderError. Any 2xx is a delivered message; the id is empty
// when the body does not carry one.
func parseSendResponse(status int, raw []byte) (string, error) {
	var decoded apiResponse

	decodeErr := json.Unmarshal(raw, &decoded)

	if status >= 200 && status < 300 {
		if decodeErr != nil || len(decoded.Result) == 0 {
			return "", nil
		}

		var msg tgbotapi.Message
		if err := json.Unmarshal(decoded.Result, &msg); err != nil || msg.MessageID == 0 {
			return "", nil
		}

		return strconv.Itoa(msg.MessageID), nil
	}

	perr := &delivery.ProviderError{
		Provider:  providerName,
		Status:    status,
		Permanent: status >= 400 && status < 500 && status != http.StatusTooManyRequests,
	}

	if decodeErr == nil {
		perr.Description = decoded.Description
		if perr.Description == "" {
			perr.Description = decoded.Error
		}

		if decoded.Parameters != nil && decoded.Parameters.RetryAfter > 0 {
			perr.RetryAfter = time.Duration(decoded.Parameters.RetryAfter) * time.Second
		}
	}

	if perr.Description == "" {
		perr.Description = http.StatusText(status)
	}

	return "", perr
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}

	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<token>"), err: err}
}
