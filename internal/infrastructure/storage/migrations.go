package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_reconcile_runs_table",
		Up:      migration002AddReconcileRunsTable,
	},
	{
		Version: 3,
		Name:    "add_match_records_table",
		Up:      migration003AddMatchRecordsTable,
	},
	{
		Version: 4,
		Name:    "add_sibling_ids_column",
		Up:      migration004AddSiblingIDsColumn,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	// Ensure migrations table exists
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get applied migrations
	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	// Run pending migrations
	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue // Already applied
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		// Run migration in transaction
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		// Execute migration
		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		// Record migration
		_, err = tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		// Commit
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// migration001InitialSchema creates the processed_transactions dedup table
func migration001InitialSchema(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS processed_transactions (
			transaction_id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			marked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_processed_transactions_order_id
		 ON processed_transactions(order_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// migration002AddReconcileRunsTable creates the reconcile_runs table
func migration002AddReconcileRunsTable(db *sql.Tx) error {
	query := `
	CREATE TABLE IF NOT EXISTS reconcile_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		retailer TEXT NOT NULL DEFAULT 'all',
		started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		completed_at TIMESTAMP,
		lookback_days INTEGER,
		dry_run BOOLEAN DEFAULT 0,
		updated INTEGER DEFAULT 0,
		skipped_already_processed INTEGER DEFAULT 0,
		skipped_low_confidence INTEGER DEFAULT 0,
		high_confidence INTEGER DEFAULT 0,
		medium_confidence INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		transaction_count INTEGER DEFAULT 0,
		order_count INTEGER DEFAULT 0,
		status TEXT DEFAULT 'running',
		error_message TEXT
	)`

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create reconcile_runs: %w", err)
	}

	return nil
}

// migration003AddMatchRecordsTable creates the match audit trail
func migration003AddMatchRecordsTable(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS match_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER REFERENCES reconcile_runs(id),
			transaction_id TEXT NOT NULL,
			order_id TEXT NOT NULL,
			retailer TEXT NOT NULL,
			confidence REAL NOT NULL,
			multi_transaction BOOLEAN DEFAULT 0,
			proposed_memo TEXT,
			match_reason TEXT,
			status TEXT NOT NULL,
			error_message TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_match_records_run_id
		 ON match_records(run_id)`,

		`CREATE INDEX IF NOT EXISTS idx_match_records_transaction_id
		 ON match_records(transaction_id)`,

		`CREATE INDEX IF NOT EXISTS idx_match_records_status
		 ON match_records(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// migration004AddSiblingIDsColumn records split-charge group members on
// each match record
func migration004AddSiblingIDsColumn(db *sql.Tx) error {
	_, err := db.Exec(`ALTER TABLE match_records ADD COLUMN sibling_ids TEXT`)
	if err != nil {
		return fmt.Errorf("failed to add sibling_ids column: %w", err)
	}
	return nil
}
