package reconcile

import (
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/storage"
)

// Recording functions for the reconcile orchestrator. These persist run
// history and the per-match audit trail; every one is a no-op without a
// repo, and persistence failures are logged rather than propagated.

// startRun opens a run history row and returns its id, or 0 when history
// is unavailable.
func (o *Orchestrator) startRun(retailer string, opts Options) int64 {
	if o.repo == nil {
		return 0
	}
	runID, err := o.repo.StartRun(retailer, opts.LookbackDays, opts.DryRun)
	if err != nil {
		o.logger.Warn("failed to start run tracking", "error", err)
		// Continue anyway - tracking failure shouldn't block the run
		return 0
	}
	return runID
}

// completeRun closes the run history row with final counters.
func (o *Orchestrator) completeRun(runID int64, summary *RunSummary, status, errorMessage string) {
	if o.repo == nil || runID == 0 {
		return
	}
	if err := o.repo.CompleteRun(runID, toRunCounts(summary), status, errorMessage); err != nil {
		o.logger.Warn("failed to complete run tracking", "run_id", runID, "error", err)
	}
}

// saveMatchRecords appends one audit row per processed match.
func (o *Orchestrator) saveMatchRecords(runID int64, retailer string, apps []Application) {
	if o.repo == nil {
		return
	}
	for _, app := range apps {
		record := &storage.MatchRecord{
			RunID:            runID,
			TransactionID:    app.Match.Transaction().ID,
			OrderID:          app.Match.Order.OrderID,
			Retailer:         retailer,
			Confidence:       app.Match.Confidence,
			MultiTransaction: app.Match.IsMultiTransaction(),
			ProposedMemo:     app.Memo,
			MatchReason:      app.Match.MatchReason,
			Status:           app.Outcome,
			ErrorMessage:     app.Error,
		}
		if app.Match.IsMultiTransaction() {
			record.SetSiblings(app.Match.SiblingIDs())
		}
		if err := o.repo.SaveMatchRecord(record); err != nil {
			o.logger.Error("failed to save match record",
				"transaction_id", record.TransactionID,
				"order_id", record.OrderID,
				"error", err)
		}
	}
}

func toRunCounts(summary *RunSummary) storage.RunCounts {
	return storage.RunCounts{
		Updated:                 summary.Stats.Updated,
		SkippedAlreadyProcessed: summary.Stats.SkippedAlreadyProcessed,
		SkippedLowConfidence:    summary.Stats.SkippedLowConfidence,
		HighConfidence:          summary.Stats.HighConfidence,
		MediumConfidence:        summary.Stats.MediumConfidence,
		Failed:                  summary.Stats.Failed,
		TransactionCount:        summary.TransactionCount,
		OrderCount:              summary.OrderCount,
	}
}
