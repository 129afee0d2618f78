package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledgermatch/ledgermatch/internal/domain/ledger"
	"github.com/ledgermatch/ledgermatch/internal/domain/matcher"
	"github.com/ledgermatch/ledgermatch/internal/domain/retail"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/metrics"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/storage"
)

// fetchBufferDays widens the transaction fetch window beyond the lookback:
// a charge can settle days after its order date and still belong to an
// order inside the window.
const fetchBufferDays = 7

const defaultLookbackDays = 30

// Orchestrator runs the reconcile process end to end: fetch transactions,
// load each retailer's orders, match, and apply.
type Orchestrator struct {
	ledger    LedgerSource
	sources   []OrderSource
	matcher   *matcher.Matcher
	processor *Processor
	repo      storage.Repository
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewOrchestrator creates a reconcile orchestrator. repo and m may be nil;
// without a repo no run history or audit trail is persisted, without m no
// metrics are recorded. The tracker must be non-nil.
func NewOrchestrator(
	ledgerSource LedgerSource,
	updater LedgerUpdater,
	sources []OrderSource,
	tracker Tracker,
	repo storage.Repository,
	cfg Config,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		ledger:    ledgerSource,
		sources:   sources,
		matcher:   matcher.New(cfg.Matcher),
		processor: NewProcessor(updater, tracker, cfg.Thresholds, logger),
		repo:      repo,
		metrics:   m,
		logger:    logger,
	}
}

// Run executes one reconcile pass. Retailers run sequentially in
// registration order; updates mark the tracker as they land, so a
// transaction claimed by an earlier pass is skipped by a later one.
//
// A broken order source degrades the run (recorded in Errors, remaining
// retailers still run). Ledger fetch and tracker failures abort it.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*RunSummary, error) {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = defaultLookbackDays
	}

	summary := &RunSummary{
		DryRun:       opts.DryRun,
		LookbackDays: opts.LookbackDays,
		Retailers:    make(map[string]Stats),
		StartedAt:    time.Now(),
	}

	label := opts.Retailer
	if label == "" {
		label = "all"
	}

	o.logger.Info("starting reconcile run",
		"retailer", label,
		"lookback_days", opts.LookbackDays,
		"dry_run", opts.DryRun,
		"force", opts.Force)

	transactions, err := o.fetchTransactions(ctx, opts.LookbackDays)
	if err != nil {
		summary.CompletedAt = time.Now()
		return summary, err
	}
	summary.TransactionCount = len(transactions)

	runID := o.startRun(label, opts)
	summary.RunID = runID

	ran := false
	for _, source := range o.sources {
		if opts.Retailer != "" && string(source.Name()) != opts.Retailer {
			continue
		}
		ran = true

		if err := o.runRetailer(ctx, source, transactions, runID, opts, summary); err != nil {
			o.completeRun(runID, summary, storage.RunStatusFailed, err.Error())
			summary.CompletedAt = time.Now()
			o.recordRunMetric(label, storage.RunStatusFailed, summary)
			return summary, err
		}
	}

	if opts.Retailer != "" && !ran {
		summary.Errors = append(summary.Errors, fmt.Sprintf("no order source for retailer %q", opts.Retailer))
	}

	status := storage.RunStatusCompleted
	if summary.Stats.Failed > 0 || len(summary.Errors) > 0 {
		status = storage.RunStatusCompletedWithErrors
	}
	o.completeRun(runID, summary, status, strings.Join(summary.Errors, "; "))

	summary.CompletedAt = time.Now()
	o.recordRunMetric(label, status, summary)

	o.logger.Info("reconcile run complete",
		"updated", summary.Stats.Updated,
		"skipped_already_processed", summary.Stats.SkippedAlreadyProcessed,
		"skipped_low_confidence", summary.Stats.SkippedLowConfidence,
		"failed", summary.Stats.Failed,
		"duration", time.Since(summary.StartedAt).Round(time.Millisecond))

	return summary, nil
}

// fetchTransactions pulls the lookback window from the ledger and drops
// rows that fail validation.
func (o *Orchestrator) fetchTransactions(ctx context.Context, lookbackDays int) ([]ledger.TransactionRecord, error) {
	since := time.Now().AddDate(0, 0, -(lookbackDays + fetchBufferDays))

	fetched, err := o.ledger.ListTransactions(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}

	transactions := make([]ledger.TransactionRecord, 0, len(fetched))
	for _, tx := range fetched {
		if err := tx.Validate(); err != nil {
			o.logger.Warn("dropping malformed transaction",
				"transaction_id", tx.ID,
				"error", err)
			continue
		}
		transactions = append(transactions, tx)
	}

	o.logger.Debug("fetched transactions",
		"count", len(transactions),
		"since", since.Format("2006-01-02"))

	return transactions, nil
}

// runRetailer performs one retailer's pass: load orders, match against the
// shared transaction window, process, and fold the counters into summary.
func (o *Orchestrator) runRetailer(
	ctx context.Context,
	source OrderSource,
	transactions []ledger.TransactionRecord,
	runID int64,
	opts Options,
	summary *RunSummary,
) error {
	name := string(source.Name())
	logger := o.logger.With("retailer", name)

	orders, err := source.LoadOrders(ctx)
	if err != nil {
		logger.Error("failed to load orders", "error", err)
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", name, err))
		return nil
	}

	valid := make([]retail.Order, 0, len(orders))
	for _, order := range orders {
		if err := order.Validate(); err != nil {
			logger.Warn("dropping malformed order",
				"order_id", order.OrderID,
				"error", err)
			continue
		}
		valid = append(valid, order)
	}
	summary.OrderCount += len(valid)

	matches := o.matcher.Match(valid, transactions)
	logger.Info("matching complete",
		"orders", len(valid),
		"transactions", len(transactions),
		"matches", len(matches))

	if o.metrics != nil {
		for _, m := range matches {
			o.metrics.RecordMatchProduced(name, m.IsMultiTransaction(), m.Confidence)
		}
	}

	procResult, procErr := o.processor.Process(ctx, matches, opts)

	// Persist and count whatever the processor got through, even when it
	// aborted partway.
	o.saveMatchRecords(runID, name, procResult.Applications)
	if o.metrics != nil {
		for _, app := range procResult.Applications {
			o.metrics.RecordMatchOutcome(name, app.Outcome)
		}
	}

	summary.Stats.Add(procResult.Stats)
	retailerStats := summary.Retailers[name]
	retailerStats.Add(procResult.Stats)
	summary.Retailers[name] = retailerStats

	return procErr
}

func (o *Orchestrator) recordRunMetric(retailer, status string, summary *RunSummary) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordRun(retailer, status, summary.CompletedAt.Sub(summary.StartedAt).Seconds())
}
