package reconcile

import (
	"context"
	"time"

	"github.com/ledgermatch/ledgermatch/internal/domain/ledger"
	"github.com/ledgermatch/ledgermatch/internal/domain/matcher"
	"github.com/ledgermatch/ledgermatch/internal/domain/retail"
)

// LedgerSource fetches transactions from the budgeting service.
type LedgerSource interface {
	ListTransactions(ctx context.Context, since time.Time) ([]ledger.TransactionRecord, error)
}

// LedgerUpdater applies memo updates to the budgeting service.
type LedgerUpdater interface {
	UpdateMemo(ctx context.Context, transactionID, memo string) error
}

// OrderSource supplies normalized orders for one retailer.
type OrderSource interface {
	Name() retail.Retailer
	LoadOrders(ctx context.Context) ([]retail.Order, error)
}

// Tracker is the persisted dedup key set. Read errors are fatal to a run;
// a transaction is marked only after its ledger update succeeded.
type Tracker interface {
	IsProcessed(transactionID string) (bool, error)
	MarkProcessed(transactionID, orderID string) error
}

// Options holds reconcile run configuration
type Options struct {
	DryRun       bool
	Force        bool
	LookbackDays int
	Retailer     string // if set, only run this retailer's pass
	Verbose      bool
}

// Thresholds are the confidence gates for applying a match.
type Thresholds struct {
	Medium float64 // below this a match is skipped
	High   float64 // at or above this a match counts as high confidence
}

// DefaultThresholds returns the standard confidence gates
func DefaultThresholds() Thresholds {
	return Thresholds{Medium: 0.6, High: 0.8}
}

// Config bundles the tunables for one orchestrator.
type Config struct {
	Matcher    matcher.Config
	Thresholds Thresholds
}

// DefaultConfig returns the standard orchestrator configuration
func DefaultConfig() Config {
	return Config{
		Matcher:    matcher.DefaultConfig(),
		Thresholds: DefaultThresholds(),
	}
}

// Stats are the per-run counters. Keys mirror the run summary JSON.
type Stats struct {
	Updated                 int `json:"updated"`
	SkippedAlreadyProcessed int `json:"skipped_already_processed"`
	SkippedLowConfidence    int `json:"skipped_low_confidence"`
	HighConfidence          int `json:"high_confidence"`
	MediumConfidence        int `json:"medium_confidence"`
	Failed                  int `json:"failed"`
}

// Add accumulates another pass's counters into s
func (s *Stats) Add(other Stats) {
	s.Updated += other.Updated
	s.SkippedAlreadyProcessed += other.SkippedAlreadyProcessed
	s.SkippedLowConfidence += other.SkippedLowConfidence
	s.HighConfidence += other.HighConfidence
	s.MediumConfidence += other.MediumConfidence
	s.Failed += other.Failed
}

// Map returns the counters keyed the way the run summary reports them
func (s Stats) Map() map[string]int {
	return map[string]int{
		"updated":                   s.Updated,
		"skipped_already_processed": s.SkippedAlreadyProcessed,
		"skipped_low_confidence":    s.SkippedLowConfidence,
		"high_confidence":           s.HighConfidence,
		"medium_confidence":         s.MediumConfidence,
		"failed":                    s.Failed,
	}
}

// Outcomes a match can have during processing.
const (
	OutcomeApplied          = "applied"
	OutcomeDryRun           = "dry_run"
	OutcomeSkippedProcessed = "skipped_already_processed"
	OutcomeSkippedLowConf   = "skipped_low_confidence"
	OutcomeFailed           = "failed"
)

// Application is what happened to one match during processing.
type Application struct {
	Match   matcher.Match
	Outcome string
	Memo    string // proposed memo, set when the gates passed
	Error   string // set when Outcome is failed
}

// ProcessResult is the output of one processor pass.
type ProcessResult struct {
	Stats        Stats
	Applications []Application
}

// RunSummary is the aggregate outcome of one reconcile run.
type RunSummary struct {
	RunID            int64            `json:"run_id,omitempty"`
	DryRun           bool             `json:"dry_run"`
	LookbackDays     int              `json:"lookback_days"`
	TransactionCount int              `json:"transaction_count"`
	OrderCount       int              `json:"order_count"`
	Stats            Stats            `json:"stats"`
	Retailers        map[string]Stats `json:"retailers"`
	Errors           []string         `json:"errors,omitempty"`
	StartedAt        time.Time        `json:"started_at"`
	CompletedAt      time.Time        `json:"completed_at"`
}
