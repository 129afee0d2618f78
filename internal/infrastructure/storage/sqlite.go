package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for the dedup tracker, run
// history, and match audit trail. It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// IsProcessed reports whether the transaction already has an annotation
func (s *Storage) IsProcessed(transactionID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM processed_transactions WHERE transaction_id = ?`
	if err := s.db.QueryRow(query, transactionID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check processed state for %s: %w", transactionID, err)
	}
	return count > 0, nil
}

// MarkProcessed records the transaction as annotated for the given order
func (s *Storage) MarkProcessed(transactionID, orderID string) error {
	query := `
	INSERT OR REPLACE INTO processed_transactions (transaction_id, order_id, marked_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	`
	if _, err := s.db.Exec(query, transactionID, orderID); err != nil {
		return fmt.Errorf("failed to mark %s processed: %w", transactionID, err)
	}
	return nil
}

// StartRun records the start of a reconcile run
func (s *Storage) StartRun(retailer string, lookbackDays int, dryRun bool) (int64, error) {
	query := `
		INSERT INTO reconcile_runs (retailer, lookback_days, dry_run, status)
		VALUES (?, ?, ?, 'running')
	`

	result, err := s.db.Exec(query, retailer, lookbackDays, dryRun)
	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}

// CompleteRun records the outcome of a reconcile run
func (s *Storage) CompleteRun(runID int64, counts RunCounts, status, errorMessage string) error {
	query := `
		UPDATE reconcile_runs
		SET completed_at = CURRENT_TIMESTAMP,
		    updated = ?,
		    skipped_already_processed = ?,
		    skipped_low_confidence = ?,
		    high_confidence = ?,
		    medium_confidence = ?,
		    failed = ?,
		    transaction_count = ?,
		    order_count = ?,
		    status = ?,
		    error_message = ?
		WHERE id = ?
	`

	_, err := s.db.Exec(query,
		counts.Updated,
		counts.SkippedAlreadyProcessed,
		counts.SkippedLowConfidence,
		counts.HighConfidence,
		counts.MediumConfidence,
		counts.Failed,
		counts.TransactionCount,
		counts.OrderCount,
		status,
		errorMessage,
		runID,
	)
	return err
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(runID int64) (*ReconcileRun, error) {
	query := selectRunColumns + ` WHERE id = ?`

	run := &ReconcileRun{}
	if err := scanRun(s.db.QueryRow(query, runID), run); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns recent runs, newest first
func (s *Storage) ListRuns(limit int) ([]ReconcileRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := selectRunColumns + ` ORDER BY id DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []ReconcileRun
	for rows.Next() {
		var run ReconcileRun
		if err := scanRun(rows, &run); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

const selectRunColumns = `
	SELECT id, retailer, started_at, COALESCE(completed_at, ''), lookback_days, dry_run,
	       updated, skipped_already_processed, skipped_low_confidence,
	       high_confidence, medium_confidence, failed,
	       transaction_count, order_count, status, COALESCE(error_message, '')
	FROM reconcile_runs`

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner, run *ReconcileRun) error {
	return row.Scan(
		&run.ID,
		&run.Retailer,
		&run.StartedAt,
		&run.CompletedAt,
		&run.LookbackDays,
		&run.DryRun,
		&run.Updated,
		&run.SkippedAlreadyProcessed,
		&run.SkippedLowConfidence,
		&run.HighConfidence,
		&run.MediumConfidence,
		&run.Failed,
		&run.TransactionCount,
		&run.OrderCount,
		&run.Status,
		&run.ErrorMessage,
	)
}

// SaveMatchRecord appends one match outcome to the audit trail
func (s *Storage) SaveMatchRecord(record *MatchRecord) error {
	query := `
	INSERT INTO match_records
	(run_id, transaction_id, order_id, retailer, confidence, multi_transaction,
	 sibling_ids, proposed_memo, match_reason, status, error_message)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		record.RunID,
		record.TransactionID,
		record.OrderID,
		record.Retailer,
		record.Confidence,
		record.MultiTransaction,
		record.SiblingIDs,
		record.ProposedMemo,
		record.MatchReason,
		record.Status,
		record.ErrorMessage,
	)
	if err != nil {
		return err
	}

	record.ID, _ = result.LastInsertId()
	return nil
}

// ListMatchRecords returns records matching the given filters
func (s *Storage) ListMatchRecords(filters MatchRecordFilters) ([]MatchRecord, error) {
	query := `
	SELECT id, run_id, transaction_id, order_id, retailer, confidence,
	       multi_transaction, COALESCE(sibling_ids, ''), proposed_memo,
	       match_reason, status, COALESCE(error_message, ''), created_at
	FROM match_records
	WHERE 1=1`

	var args []any
	if filters.RunID > 0 {
		query += ` AND run_id = ?`
		args = append(args, filters.RunID)
	}
	if filters.Retailer != "" {
		query += ` AND retailer = ?`
		args = append(args, filters.Retailer)
	}
	if filters.Status != "" {
		query += ` AND status = ?`
		args = append(args, filters.Status)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, filters.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []MatchRecord
	for rows.Next() {
		var r MatchRecord
		err := rows.Scan(
			&r.ID,
			&r.RunID,
			&r.TransactionID,
			&r.OrderID,
			&r.Retailer,
			&r.Confidence,
			&r.MultiTransaction,
			&r.SiblingIDs,
			&r.ProposedMemo,
			&r.MatchReason,
			&r.Status,
			&r.ErrorMessage,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// GetStats returns aggregate statistics across all runs
func (s *Storage) GetStats() (*AggregateStats, error) {
	stats := &AggregateStats{
		RetailerStats: make(map[string]RetailerStats),
	}

	query := `
	SELECT
		COUNT(*) as total_runs,
		COALESCE(SUM(updated), 0) as total_updated,
		COALESCE(SUM(failed), 0) as total_failed,
		COALESCE(SUM(skipped_already_processed + skipped_low_confidence), 0) as total_skipped,
		COALESCE(MAX(started_at), '') as last_run_at
	FROM reconcile_runs
	`

	err := s.db.QueryRow(query).Scan(
		&stats.TotalRuns,
		&stats.TotalUpdated,
		&stats.TotalFailed,
		&stats.TotalSkipped,
		&stats.LastRunAt,
	)
	if err != nil {
		return nil, err
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM processed_transactions`).Scan(&stats.ProcessedTransactions); err != nil {
		return nil, err
	}

	// Retailer breakdown from the audit trail
	retailerQuery := `
	SELECT
		retailer,
		COUNT(*) as matches,
		COUNT(CASE WHEN status = 'applied' THEN 1 END) as applied,
		COALESCE(AVG(confidence), 0) as avg_confidence
	FROM match_records
	GROUP BY retailer
	`

	rows, err := s.db.Query(retailerQuery)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var retailer string
		var rs RetailerStats
		if err := rows.Scan(&retailer, &rs.Matches, &rs.Applied, &rs.AvgConfidence); err != nil {
			return nil, err
		}
		stats.RetailerStats[retailer] = rs
	}

	return stats, rows.Err()
}
