package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgermatch/ledgermatch/internal/api"
	"github.com/ledgermatch/ledgermatch/internal/api/dto"
	"github.com/ledgermatch/ledgermatch/internal/application/reconcile"
	"github.com/ledgermatch/ledgermatch/internal/application/service"
	"github.com/ledgermatch/ledgermatch/internal/domain/ledger"
	"github.com/ledgermatch/ledgermatch/internal/domain/retail"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/storage"
)

// These tests run the full stack against a real SQLite database:
// HTTP request -> router -> handlers -> run service -> orchestrator -> storage.
// They catch what mock-based tests miss: SQL NULL handling, JSON
// serialization through the whole pipeline, and route wiring.

type fixedLedger struct {
	mu           sync.Mutex
	transactions []ledger.TransactionRecord
	memos        map[string]string
}

func (f *fixedLedger) ListTransactions(_ context.Context, _ time.Time) ([]ledger.TransactionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ledger.TransactionRecord, len(f.transactions))
	copy(out, f.transactions)
	return out, nil
}

func (f *fixedLedger) UpdateMemo(_ context.Context, transactionID, memo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.memos == nil {
		f.memos = make(map[string]string)
	}
	f.memos[transactionID] = memo
	return nil
}

type fixedOrders struct {
	retailer retail.Retailer
	orders   []retail.Order
}

func (f *fixedOrders) Name() retail.Retailer { return f.retailer }

func (f *fixedOrders) LoadOrders(_ context.Context) ([]retail.Order, error) {
	return f.orders, nil
}

func createIntegrationServer(t *testing.T) (*httptest.Server, *fixedLedger) {
	t.Helper()

	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "integration.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	ledgerSrc := &fixedLedger{
		transactions: []ledger.TransactionRecord{
			{ID: "tx-1", Date: day, Amount: -4599, Payee: "WALMART.COM"},
			{ID: "tx-2", Date: day, Amount: -1250, Payee: "COFFEE SHOP"},
		},
	}
	source := &fixedOrders{
		retailer: retail.Walmart,
		orders: []retail.Order{{
			Retailer:    retail.Walmart,
			OrderID:     "WM-100",
			Date:        day,
			TotalAmount: -4599,
			Status:      "Delivered",
			Items:       []retail.Item{{Title: "Paper Towels", Quantity: 1, UnitPrice: 4599}},
		}},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orchestrator := reconcile.NewOrchestrator(
		ledgerSrc,
		ledgerSrc,
		[]reconcile.OrderSource{source},
		store,
		store,
		reconcile.DefaultConfig(),
		nil,
		logger,
	)
	runService := service.NewRunService(orchestrator, logger)
	server := api.NewServer(api.DefaultConfig(), store, runService, nil, logger)

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	return ts, ledgerSrc
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// runToCompletion starts a reconcile over HTTP and waits for the job to
// finish, returning its final state.
func runToCompletion(t *testing.T, baseURL, body string) dto.Job {
	t.Helper()

	resp := postJSON(t, baseURL+"/api/reconcile", body)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	accepted := decodeBody[dto.StartReconcileResponse](t, resp)

	var job dto.Job
	require.Eventually(t, func() bool {
		r, err := http.Get(baseURL + "/api/reconcile/" + accepted.JobID)
		if err != nil {
			return false
		}
		defer r.Body.Close()
		if r.StatusCode != http.StatusOK {
			return false
		}
		var j dto.Job
		if err := json.NewDecoder(r.Body).Decode(&j); err != nil {
			return false
		}
		job = j
		return j.Status == "completed" || j.Status == "failed"
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, "completed", job.Status)
	return job
}

func TestIntegration_HealthCheck(t *testing.T) {
	ts, _ := createIntegrationServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	health := decodeBody[dto.HealthResponse](t, resp)
	assert.Equal(t, "ok", health.Status)
}

func TestIntegration_FullReconcileFlow(t *testing.T) {
	ts, ledgerSrc := createIntegrationServer(t)

	job := runToCompletion(t, ts.URL, `{"dry_run":false}`)

	require.NotNil(t, job.Summary)
	assert.Equal(t, 1, job.Summary.Stats.Updated)
	assert.Equal(t, 2, job.Summary.TransactionCount)

	// The memo landed on the matched transaction.
	ledgerSrc.mu.Lock()
	memo := ledgerSrc.memos["tx-1"]
	ledgerSrc.mu.Unlock()
	assert.Contains(t, memo, "WM-100")

	// Run history was persisted.
	resp, err := http.Get(ts.URL + "/api/runs")
	require.NoError(t, err)
	runs := decodeBody[dto.RunListResponse](t, resp)
	require.Equal(t, 1, runs.Count)
	assert.Equal(t, "completed", runs.Runs[0].Status)
	assert.Equal(t, 1, runs.Runs[0].Updated)
	assert.False(t, runs.Runs[0].DryRun)

	// The audit trail has the applied match.
	resp, err = http.Get(ts.URL + "/api/matches?status=applied")
	require.NoError(t, err)
	matches := decodeBody[dto.MatchListResponse](t, resp)
	require.Equal(t, 1, matches.Count)
	assert.Equal(t, "tx-1", matches.Matches[0].TransactionID)
	assert.Equal(t, "WM-100", matches.Matches[0].OrderID)
	assert.Equal(t, "walmart", matches.Matches[0].Retailer)

	// Stats aggregate across runs.
	resp, err = http.Get(ts.URL + "/api/stats")
	require.NoError(t, err)
	stats := decodeBody[dto.Stats](t, resp)
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.TotalUpdated)
	assert.Equal(t, 1, stats.ProcessedTransactions)
}

func TestIntegration_SecondRunIsIdempotent(t *testing.T) {
	ts, _ := createIntegrationServer(t)

	first := runToCompletion(t, ts.URL, `{"dry_run":false}`)
	require.NotNil(t, first.Summary)
	require.Equal(t, 1, first.Summary.Stats.Updated)

	second := runToCompletion(t, ts.URL, `{"dry_run":false}`)
	require.NotNil(t, second.Summary)
	assert.Equal(t, 0, second.Summary.Stats.Updated)
	assert.Equal(t, 1, second.Summary.Stats.SkippedAlreadyProcessed)

	resp, err := http.Get(ts.URL + "/api/runs")
	require.NoError(t, err)
	runs := decodeBody[dto.RunListResponse](t, resp)
	assert.Equal(t, 2, runs.Count)
}

func TestIntegration_DryRunLeavesLedgerUntouched(t *testing.T) {
	ts, ledgerSrc := createIntegrationServer(t)

	job := runToCompletion(t, ts.URL, `{}`)

	require.NotNil(t, job.Summary)
	assert.True(t, job.DryRun)
	assert.Equal(t, 1, job.Summary.Stats.Updated)

	ledgerSrc.mu.Lock()
	memoCount := len(ledgerSrc.memos)
	ledgerSrc.mu.Unlock()
	assert.Zero(t, memoCount)

	// Proposed memos are still recorded for review.
	resp, err := http.Get(ts.URL + "/api/matches?status=dry_run")
	require.NoError(t, err)
	matches := decodeBody[dto.MatchListResponse](t, resp)
	require.Equal(t, 1, matches.Count)
	assert.NotEmpty(t, matches.Matches[0].ProposedMemo)
}
