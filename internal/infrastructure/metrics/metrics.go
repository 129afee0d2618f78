package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application. A single
// instance is constructed at startup and passed to every component that
// records metrics.
type Metrics struct {
	// Reconciliation run metrics
	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec

	// Matching metrics
	matchesProducedTotal *prometheus.CounterVec
	matchConfidence      *prometheus.HistogramVec
	matchOutcomesTotal   *prometheus.CounterVec

	// Ledger API metrics
	ledgerAPICallsTotal   *prometheus.CounterVec
	ledgerAPICallDuration *prometheus.HistogramVec

	// HTTP server metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Reconciliation run metrics
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconcile_runs_total",
				Help: "Total number of reconciliation runs by retailer and status",
			},
			[]string{"retailer", "status"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reconcile_run_duration_seconds",
				Help:    "Duration of reconciliation runs in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"retailer"},
		),

		// Matching metrics
		matchesProducedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matches_produced_total",
				Help: "Total number of matches produced by retailer and mode",
			},
			[]string{"retailer", "mode"},
		),
		matchConfidence: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "match_confidence",
				Help:    "Confidence scores of produced matches (0.0-1.0)",
				Buckets: []float64{0.2, 0.4, 0.6, 0.7, 0.8, 0.9, 0.95, 1.0},
			},
			[]string{"retailer"},
		),
		matchOutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "match_outcomes_total",
				Help: "Total number of match outcomes by retailer and outcome",
			},
			[]string{"retailer", "outcome"},
		),

		// Ledger API metrics
		ledgerAPICallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_api_calls_total",
				Help: "Total number of ledger API calls by operation and status",
			},
			[]string{"operation", "status"},
		),
		ledgerAPICallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_api_call_duration_seconds",
				Help:    "Duration of ledger API calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"operation"},
		),

		// HTTP server metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
	}
}

// Reconciliation run metric helpers

// RecordRun records a completed reconciliation run with duration.
func (m *Metrics) RecordRun(retailer, status string, duration float64) {
	m.runsTotal.WithLabelValues(retailer, status).Inc()
	m.runDuration.WithLabelValues(retailer).Observe(duration)
}

// Matching metric helpers

// RecordMatchProduced records a match emitted by the matcher.
func (m *Metrics) RecordMatchProduced(retailer string, multiTransaction bool, confidence float64) {
	mode := "single"
	if multiTransaction {
		mode = "multi"
	}
	m.matchesProducedTotal.WithLabelValues(retailer, mode).Inc()
	m.matchConfidence.WithLabelValues(retailer).Observe(confidence)
}

// RecordMatchOutcome records what happened to a match during processing
// (applied, dry_run, skipped_already_processed, skipped_low_confidence,
// failed).
func (m *Metrics) RecordMatchOutcome(retailer, outcome string) {
	m.matchOutcomesTotal.WithLabelValues(retailer, outcome).Inc()
}

// Ledger API metric helpers

// RecordLedgerAPICall records a ledger API call with duration.
func (m *Metrics) RecordLedgerAPICall(operation, status string, duration float64) {
	m.ledgerAPICallsTotal.WithLabelValues(operation, status).Inc()
	m.ledgerAPICallDuration.WithLabelValues(operation).Observe(duration)
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
