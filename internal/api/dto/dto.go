// Package dto defines the request and response shapes of the HTTP API,
// decoupled from the storage and domain models behind them.
package dto

import (
	"time"

	"github.com/ledgermatch/ledgermatch/internal/application/reconcile"
	"github.com/ledgermatch/ledgermatch/internal/application/service"
	"github.com/ledgermatch/ledgermatch/internal/infrastructure/storage"
)

// ReconcileRequest is the body of POST /api/reconcile. DryRun defaults to
// true when absent: a live run has to be asked for explicitly.
type ReconcileRequest struct {
	Retailer     string `json:"retailer"`
	DryRun       *bool  `json:"dry_run"`
	LookbackDays int    `json:"lookback_days"`
	Force        bool   `json:"force"`
}

// Options converts the request into run options.
func (r ReconcileRequest) Options() reconcile.Options {
	dryRun := true
	if r.DryRun != nil {
		dryRun = *r.DryRun
	}
	return reconcile.Options{
		DryRun:       dryRun,
		Force:        r.Force,
		LookbackDays: r.LookbackDays,
		Retailer:     r.Retailer,
	}
}

// Run is one reconcile run history row.
type Run struct {
	ID                      int64  `json:"id"`
	Retailer                string `json:"retailer"`
	StartedAt               string `json:"started_at"`
	CompletedAt             string `json:"completed_at,omitempty"`
	LookbackDays            int    `json:"lookback_days"`
	DryRun                  bool   `json:"dry_run"`
	Updated                 int    `json:"updated"`
	SkippedAlreadyProcessed int    `json:"skipped_already_processed"`
	SkippedLowConfidence    int    `json:"skipped_low_confidence"`
	HighConfidence          int    `json:"high_confidence"`
	MediumConfidence        int    `json:"medium_confidence"`
	Failed                  int    `json:"failed"`
	TransactionCount        int    `json:"transaction_count"`
	OrderCount              int    `json:"order_count"`
	Status                  string `json:"status"`
	ErrorMessage            string `json:"error_message,omitempty"`
}

// FromRun converts a stored run.
func FromRun(run storage.ReconcileRun) Run {
	return Run{
		ID:                      run.ID,
		Retailer:                run.Retailer,
		StartedAt:               run.StartedAt,
		CompletedAt:             run.CompletedAt,
		LookbackDays:            run.LookbackDays,
		DryRun:                  run.DryRun,
		Updated:                 run.Updated,
		SkippedAlreadyProcessed: run.SkippedAlreadyProcessed,
		SkippedLowConfidence:    run.SkippedLowConfidence,
		HighConfidence:          run.HighConfidence,
		MediumConfidence:        run.MediumConfidence,
		Failed:                  run.Failed,
		TransactionCount:        run.TransactionCount,
		OrderCount:              run.OrderCount,
		Status:                  run.Status,
		ErrorMessage:            run.ErrorMessage,
	}
}

// MatchRecord is one audit trail row. Sibling ids come expanded, not in the
// stored comma-joined form.
type MatchRecord struct {
	ID               int64    `json:"id"`
	RunID            int64    `json:"run_id"`
	TransactionID    string   `json:"transaction_id"`
	OrderID          string   `json:"order_id"`
	Retailer         string   `json:"retailer"`
	Confidence       float64  `json:"confidence"`
	MultiTransaction bool     `json:"multi_transaction"`
	SiblingIDs       []string `json:"sibling_ids,omitempty"`
	ProposedMemo     string   `json:"proposed_memo"`
	MatchReason      string   `json:"match_reason"`
	Status           string   `json:"status"`
	ErrorMessage     string   `json:"error_message,omitempty"`
	CreatedAt        string   `json:"created_at"`
}

// FromMatchRecord converts a stored match record.
func FromMatchRecord(r storage.MatchRecord) MatchRecord {
	return MatchRecord{
		ID:               r.ID,
		RunID:            r.RunID,
		TransactionID:    r.TransactionID,
		OrderID:          r.OrderID,
		Retailer:         r.Retailer,
		Confidence:       r.Confidence,
		MultiTransaction: r.MultiTransaction,
		SiblingIDs:       r.Siblings(),
		ProposedMemo:     r.ProposedMemo,
		MatchReason:      r.MatchReason,
		Status:           r.Status,
		ErrorMessage:     r.ErrorMessage,
		CreatedAt:        r.CreatedAt,
	}
}

// RetailerStats is the per-retailer slice of the aggregate stats.
type RetailerStats struct {
	Matches       int     `json:"matches"`
	Applied       int     `json:"applied"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// Stats is the aggregate statistics response.
type Stats struct {
	TotalRuns             int                      `json:"total_runs"`
	TotalUpdated          int                      `json:"total_updated"`
	TotalFailed           int                      `json:"total_failed"`
	TotalSkipped          int                      `json:"total_skipped"`
	ProcessedTransactions int                      `json:"processed_transactions"`
	LastRunAt             string                   `json:"last_run_at,omitempty"`
	Retailers             map[string]RetailerStats `json:"retailers"`
}

// FromStats converts the stored aggregate.
func FromStats(s *storage.AggregateStats) Stats {
	out := Stats{
		TotalRuns:             s.TotalRuns,
		TotalUpdated:          s.TotalUpdated,
		TotalFailed:           s.TotalFailed,
		TotalSkipped:          s.TotalSkipped,
		ProcessedTransactions: s.ProcessedTransactions,
		LastRunAt:             s.LastRunAt,
		Retailers:             make(map[string]RetailerStats, len(s.RetailerStats)),
	}
	for name, rs := range s.RetailerStats {
		out.Retailers[name] = RetailerStats{
			Matches:       rs.Matches,
			Applied:       rs.Applied,
			AvgConfidence: rs.AvgConfidence,
		}
	}
	return out
}

// Job is the API view of a background reconcile job.
type Job struct {
	ID          string                `json:"id"`
	Status      string                `json:"status"`
	Retailer    string                `json:"retailer,omitempty"`
	DryRun      bool                  `json:"dry_run"`
	StartedAt   time.Time             `json:"started_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	Summary     *reconcile.RunSummary `json:"summary,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// FromJob converts a service job snapshot.
func FromJob(job service.Job) Job {
	return Job{
		ID:          job.ID,
		Status:      string(job.Status),
		Retailer:    job.Options.Retailer,
		DryRun:      job.Options.DryRun,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		Summary:     job.Summary,
		Error:       job.Error,
	}
}
