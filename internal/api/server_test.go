package api_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/ledgermatch/ledgermatch/internal/api"
	"github.com/ledgermatch/ledgermatch/internal/application/reconcile"
	"github.com/ledgermatch/ledgermatch/internal/application/service"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/metrics"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/storage"
)

type noopRunner struct{}

func (noopRunner) Run(context.Context, reconcile.Options) (*reconcile.RunSummary, error) {
	return &reconcile.RunSummary{}, nil
}

func newTestServer(t *testing.T, m *metrics.Metrics) *api.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runService := service.NewRunService(noopRunner{}, logger)
	return api.NewServer(api.DefaultConfig(), storage.NewMockRepository(), runService, m, logger)
}

func TestServer_Routes(t *testing.T) {
	server := newTestServer(t, nil)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"health check", http.MethodGet, "/health", http.StatusOK},
		{"list runs", http.MethodGet, "/api/runs", http.StatusOK},
		{"get missing run", http.MethodGet, "/api/runs/99", http.StatusNotFound},
		{"get run bad id", http.MethodGet, "/api/runs/abc", http.StatusBadRequest},
		{"list matches", http.MethodGet, "/api/matches", http.StatusOK},
		{"stats", http.MethodGet, "/api/stats", http.StatusOK},
		{"list jobs", http.MethodGet, "/api/reconcile", http.StatusOK},
		{"get missing job", http.MethodGet, "/api/reconcile/zzz", http.StatusNotFound},
		{"metrics disabled", http.MethodGet, "/metrics", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/api/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			server.Router().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	server := newTestServer(t, m)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_CORS(t *testing.T) {
	server := newTestServer(t, nil)

	t.Run("allows configured origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("handles preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/reconcile", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("rejects unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestServer_ReconcileRoutesAbsentWithoutService(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := api.NewServer(api.DefaultConfig(), storage.NewMockRepository(), nil, nil, logger)

	req := httptest.NewRequest(http.MethodPost, "/api/reconcile", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Read-only routes still work.
	req = httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
