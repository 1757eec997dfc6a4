package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/output/digest"
	"github.com/lueurxax/job-digest-notifier/internal/platform/observability"
)

type fakeOrchestrator struct {
	mu      sync.Mutex
	runs    []digest.RunOptions
	summary domain.RunSummary
	health  digest.Health
}

func (f *fakeOrchestrator) Run(_ context.Context, opts digest.RunOptions) domain.RunSummary {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.runs = append(f.runs, opts)

	return f.summary
}

func (f *fakeOrchestrator) Health(context.Context) digest.Health {
	return f.health
}

func newTestServer(orch Orchestrator, token string) http.Handler {
	logger := zerolog.Nop()
	h := NewHandler(orch, token, &logger)

	return observability.NewServer(nil, 0, &logger, h.Routes()...).Handler()
}

func TestTrigger(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantForce bool
		wantLimit int
		wantRun   bool
	}{
		{name: "empty body", body: "", wantCode: http.StatusOK, wantRun: true},
		{name: "force and limit", body: `{"force":true,"limit":5}`, wantCode: http.StatusOK, wantForce: true, wantLimit: 5, wantRun: true},
		{name: "unknown field", body: `{"forse":true}`, wantCode: http.StatusBadRequest},
		{name: "negative limit", body: `{"limit":-1}`, wantCode: http.StatusBadRequest},
		{name: "malformed", body: `{`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := &fakeOrchestrator{summary: domain.RunSummary{OK: true, BatchID: "mkt-1-abc", Source: digest.SourceManual}}
			srv := newTestServer(orch, "")

			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/marketing/digest/run", strings.NewReader(tt.body)))

			require.Equal(t, tt.wantCode, rec.Code)

			if !tt.wantRun {
				assert.Empty(t, orch.runs)
				return
			}

			require.Len(t, orch.runs, 1)
			assert.Equal(t, digest.RunOptions{Source: digest.SourceManual, Force: tt.wantForce, Limit: tt.wantLimit}, orch.runs[0])

			var got domain.RunSummary
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.True(t, got.OK)
			assert.Equal(t, "mkt-1-abc", got.BatchID)
		})
	}
}

func TestTrigger_AlreadyRunningIsConflict(t *testing.T) {
	orch := &fakeOrchestrator{summary: domain.RunSummary{Skipped: true, Reason: digest.ReasonAlreadyRunning}}
	srv := newTestServer(orch, "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/marketing/digest/run", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTrigger_WrongMethod(t *testing.T) {
	srv := newTestServer(&fakeOrchestrator{}, "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/marketing/digest/run", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	pending := 12
	orch := &fakeOrchestrator{health: digest.Health{LastBatchID: "mkt-9", PendingJobsCount: &pending, Runs24h: 3, Failures24h: 1}}
	srv := newTestServer(orch, "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/marketing/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "mkt-9", got["lastBatchId"])
	assert.EqualValues(t, 12, got["pendingJobsCount"])
	assert.EqualValues(t, 3, got["runs24h"])
	assert.EqualValues(t, 1, got["failures24h"])
	assert.Contains(t, got, "failureRate24h")
	assert.Nil(t, got["lastRunAt"])
}

func TestTokenGate(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header map[string]string
		want   int
	}{
		{name: "missing", target: "/api/marketing/health", want: http.StatusUnauthorized},
		{name: "wrong", target: "/api/marketing/health?token=nope", want: http.StatusUnauthorized},
		{name: "query", target: "/api/marketing/health?token=t0k", want: http.StatusOK},
		{name: "header", target: "/api/marketing/health", header: map[string]string{tokenHeader: "t0k"}, want: http.StatusOK},
		{name: "bearer", target: "/api/marketing/health", header: map[string]string{"Authorization": "Bearer t0k"}, want: http.StatusOK},
		{name: "bare authorization", target: "/api/marketing/health", header: map[string]string{"Authorization": "t0k"}, want: http.StatusUnauthorized},
		{name: "other scheme", target: "/api/marketing/health", header: map[string]string{"Authorization": "Basic t0k"}, want: http.StatusUnauthorized},
	}

	srv := newTestServer(&fakeOrchestrator{}, "t0k")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}

			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestTokenGate_ProtectsTrigger(t *testing.T) {
	orch := &fakeOrchestrator{}
	srv := newTestServer(orch, "t0k")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/marketing/digest/run", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, orch.runs)
}
