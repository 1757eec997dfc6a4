package webhook

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

var errEmptyBody = errors.New("empty request body")

// Handler receives Telegram webhook deliveries.
type Handler struct {
	matcher *Matcher
	secret  string
	logger  *zerolog.Logger
}

// NewHandler creates a webhook handler. An empty secret disables the check.
func NewHandler(matcher *Matcher, secret string, logger *zerolog.Logger) *Handler {
	return &Handler{matcher: matcher, secret: secret, logger: logger}
}

type response struct {
	OK        bool     `json:"ok"`
	Processed []Result `json:"processed,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ServeHTTP processes a single update or an array of updates. One failed
// update never fails the batch.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.writeJSON(w, http.StatusMethodNotAllowed, response{Error: "method not allowed"})

		return
	}

	if !h.authorized(r) {
		h.writeJSON(w, http.StatusUnauthorized, response{Error: "unauthorized"})

		return
	}

	updates, err := decodeUpdates(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn().Err(err).Msg("rejected webhook payload")
		h.writeJSON(w, http.StatusBadRequest, response{Error: "invalid update payload"})

		return
	}

	processed := make([]Result, 0, len(updates))

	for _, raw := range updates {
		var u tgbotapi.Update
		if err := json.Unmarshal(raw, &u); err != nil {
			h.logger.Warn().Err(err).Msg("skipped malformed update")
			processed = append(processed, Result{UpdateID: rawUpdateID(raw), Status: StatusError, Error: "invalid update"})

			continue
		}

		processed = append(processed, h.matcher.Handle(r.Context(), u))
	}

	h.writeJSON(w, http.StatusOK, response{OK: true, Processed: processed})
}

// authorized accepts the secret as a query parameter or in the header
// Telegram sends when the webhook was registered with a secret token.
func (h *Handler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return true
	}

	for _, got := range []string{r.URL.Query().Get(secretQueryParam), r.Header.Get(secretTokenHeader)} {
		if got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) == 1 {
			return true
		}
	}

	return false
}

// decodeUpdates splits the body into raw updates. A batch is split without
// decoding its elements so one malformed update is reported on its own.
func decodeUpdates(body io.Reader) ([]json.RawMessage, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errEmptyBody
	}

	if raw[0] == '[' {
		var updates []json.RawMessage
		if err := json.Unmarshal(raw, &updates); err != nil {
			return nil, fmt.Errorf("decode updates: %w", err)
		}

		return updates, nil
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(raw, &update); err != nil {
		return nil, fmt.Errorf("decode update: %w", err)
	}

	return []json.RawMessage{raw}, nil
}

// rawUpdateID reads update_id from an update that failed to decode, or 0.
func rawUpdateID(raw json.RawMessage) int {
	var head struct {
		UpdateID int `json:"update_id"`
	}

	_ = json.Unmarshal(raw, &head)

	return head.UpdateID
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set(contentTypeHeader, contentTypeJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error().Err(err).Msg("write json failed")
	}
}
