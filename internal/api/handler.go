// Package api serves the manual digest trigger and the digest health report.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	apperrors "github.com/lueurxax/job-digest-notifier/internal/core/errors"
	"github.com/lueurxax/job-digest-notifier/internal/output/digest"
	"github.com/lueurxax/job-digest-notifier/internal/platform/observability"
)

const (
	// Route patterns.
	RouteTrigger = "POST /api/marketing/digest/run"
	RouteHealth  = "GET /api/marketing/health"

	tokenHeader      = "X-Health-Token"
	tokenQueryParam  = "token"
	bearerPrefix     = "Bearer "
	maxBodyBytes     = 64 << 10
	maxTriggerLimit  = 10000
	contentTypeJSON  = "application/json; charset=utf-8"
	logFieldForce    = "force"
	logFieldLimit    = "limit"
	logFieldBatchID  = "batch_id"
	logFieldSkipped  = "skipped"
	logFieldOK       = "ok"
	logFieldRemote   = "remote"
	errMsgBadRequest = "invalid trigger payload"
)

// Orchestrator is the part of the digest orchestrator the API drives.
type Orchestrator interface {
	Run(ctx context.Context, opts digest.RunOptions) domain.RunSummary
	Health(ctx context.Context) digest.Health
}

// TriggerRequest is the optional body of a manual run.
type TriggerRequest struct {
	Force bool `json:"force"`
	Limit int  `json:"limit"`
}

// Handler serves the trigger and health endpoints.
type Handler struct {
	orch   Orchestrator
	token  string
	logger *zerolog.Logger
}

// NewHandler creates the handler. An empty token leaves both endpoints open.
func NewHandler(orch Orchestrator, token string, logger *zerolog.Logger) *Handler {
	return &Handler{orch: orch, token: token, logger: logger}
}

// Routes returns the endpoints for mounting on the observability server.
func (h *Handler) Routes() []observability.Route {
	return []observability.Route{
		{Pattern: RouteTrigger, Handler: h.requireToken(http.HandlerFunc(h.handleTrigger))},
		{Pattern: RouteHealth, Handler: h.requireToken(http.HandlerFunc(h.handleHealth))},
	}
}

func (h *Handler) handleTrigger(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTrigger(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn().Err(err).Str(logFieldRemote, r.RemoteAddr).Msg("rejected digest trigger")
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": errMsgBadRequest})

		return
	}

	h.logger.Info().Bool(logFieldForce, req.Force).Int(logFieldLimit, req.Limit).Msg("manual digest run requested")

	// A client disconnect must not abandon a run that is already delivering.
	summary := h.orch.Run(context.WithoutCancel(r.Context()), digest.RunOptions{
		Source: digest.SourceManual,
		Force:  req.Force,
		Limit:  req.Limit,
	})

	h.logger.Info().
		Str(logFieldBatchID, summary.BatchID).
		Bool(logFieldOK, summary.OK).
		Bool(logFieldSkipped, summary.Skipped).
		Msg("manual digest run finished")

	status := http.StatusOK
	if summary.Skipped && summary.Reason == digest.ReasonAlreadyRunning {
		status = http.StatusConflict
	}

	h.writeJSON(w, status, summary)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.orch.Health(r.Context()))
}

func decodeTrigger(body io.Reader) (TriggerRequest, error) {
	var req TriggerRequest

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return TriggerRequest{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}

	if req.Limit < 0 || req.Limit > maxTriggerLimit {
		return TriggerRequest{}, fmt.Errorf("%w: limit %d out of range", apperrors.ErrInvalidInput, req.Limit)
	}

	return req, nil
}

// requireToken checks the token from the X-Health-Token header, a bearer
// Authorization header or the token query parameter.
func (h *Handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" && !h.validToken(r) {
			h.writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": apperrors.ErrUnauthorized.Error()})

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) validToken(r *http.Request) bool {
	candidates := []string{
		r.Header.Get(tokenHeader),
		r.URL.Query().Get(tokenQueryParam),
	}

	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, bearerPrefix) {
		candidates = append(candidates, strings.TrimPrefix(auth, bearerPrefix))
	}

	for _, c := range candidates {
		if c != "" && subtle.ConstantTimeCompare([]byte(c), []byte(h.token)) == 1 {
			return true
		}
	}

	return false
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error().Err(err).Msg("write json failed")
	}
}
