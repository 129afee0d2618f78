package storage

import "strings"

// Run statuses
const (
	RunStatusRunning             = "running"
	RunStatusCompleted           = "completed"
	RunStatusCompletedWithErrors = "completed_with_errors"
	RunStatusFailed              = "failed"
)

// Match record statuses, one per processor outcome
const (
	MatchStatusApplied          = "applied"
	MatchStatusDryRun           = "dry_run"
	MatchStatusSkippedProcessed = "skipped_already_processed"
	MatchStatusSkippedLowConf   = "skipped_low_confidence"
	MatchStatusFailed           = "failed"
)

// ProcessedTransaction is one dedup tracker entry: this ledger transaction
// already carries an annotation for this order.
type ProcessedTransaction struct {
	TransactionID string `json:"transaction_id"`
	OrderID       string `json:"order_id"`
	MarkedAt      string `json:"marked_at"`
}

// ReconcileRun represents one reconcile pass
type ReconcileRun struct {
	ID                      int64  `json:"id"`
	Retailer                string `json:"retailer"` // "all" or a specific retailer
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

// MatchRecord is one audit trail row: a scored match and what the processor
// did with it.
type MatchRecord struct {
	ID               int64   `json:"id"`
	RunID            int64   `json:"run_id"`
	TransactionID    string  `json:"transaction_id"`
	OrderID          string  `json:"order_id"`
	Retailer         string  `json:"retailer"`
	Confidence       float64 `json:"confidence"`
	MultiTransaction bool    `json:"multi_transaction"`
	SiblingIDs       string  `json:"sibling_ids,omitempty"` // comma-separated group members
	ProposedMemo     string  `json:"proposed_memo"`
	MatchReason      string  `json:"match_reason"`
	Status           string  `json:"status"`
	ErrorMessage     string  `json:"error_message,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// SetSiblings stores the rest of the billing group on the record.
func (r *MatchRecord) SetSiblings(ids []string) {
	r.SiblingIDs = strings.Join(ids, ",")
}

// Siblings returns the other transaction ids in the billing group.
func (r *MatchRecord) Siblings() []string {
	if r.SiblingIDs == "" {
		return nil
	}
	return strings.Split(r.SiblingIDs, ",")
}

// AggregateStats contains statistics across all runs
type AggregateStats struct {
	TotalRuns             int                      `json:"total_runs"`
	TotalUpdated          int                      `json:"total_updated"`
	TotalFailed           int                      `json:"total_failed"`
	TotalSkipped          int                      `json:"total_skipped"`
	ProcessedTransactions int                      `json:"processed_transactions"`
	LastRunAt             string                   `json:"last_run_at,omitempty"`
	RetailerStats         map[string]RetailerStats `json:"retailer_stats"`
}

// RetailerStats contains per-retailer statistics
type RetailerStats struct {
	Matches       int     `json:"matches"`
	Applied       int     `json:"applied"`
	AvgConfidence float64 `json:"avg_confidence"`
}
