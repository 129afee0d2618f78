package storage

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	Tracker
	RunRepository
	MatchRecordRepository
	StatsRepository
	Close() error
}

// Tracker is the dedup store behind at-most-once memo application. A
// transaction id appears here once a memo update for it has committed.
type Tracker interface {
	// IsProcessed reports whether the transaction already received an
	// annotation. Errors are surfaced, never swallowed: callers treat a
	// failing tracker as fatal.
	IsProcessed(transactionID string) (bool, error)

	// MarkProcessed records that the transaction was annotated for the
	// given order. Marking twice is allowed and keeps the latest order id.
	MarkProcessed(transactionID, orderID string) error
}

// RunRepository tracks reconcile run history
type RunRepository interface {
	// StartRun records the start of a reconcile run and returns the run ID
	StartRun(retailer string, lookbackDays int, dryRun bool) (int64, error)

	// CompleteRun records the outcome of a reconcile run
	CompleteRun(runID int64, counts RunCounts, status, errorMessage string) error

	// GetRun retrieves a run by ID
	GetRun(runID int64) (*ReconcileRun, error)

	// ListRuns returns recent runs, newest first
	ListRuns(limit int) ([]ReconcileRun, error)
}

// RunCounts carries the per-run statistics written on completion.
type RunCounts struct {
	Updated                 int
	SkippedAlreadyProcessed int
	SkippedLowConfidence    int
	HighConfidence          int
	MediumConfidence        int
	Failed                  int
	TransactionCount        int
	OrderCount              int
}

// MatchRecordRepository stores the per-match audit trail
type MatchRecordRepository interface {
	// SaveMatchRecord appends one match outcome to the audit trail
	SaveMatchRecord(record *MatchRecord) error

	// ListMatchRecords returns records matching the given filters
	ListMatchRecords(filters MatchRecordFilters) ([]MatchRecord, error)
}

// MatchRecordFilters defines filters for listing match records
type MatchRecordFilters struct {
	RunID    int64  // Filter by run (0 = all)
	Retailer string // Filter by retailer (empty = all)
	Status   string // Filter by outcome status (empty = all)
	Limit    int    // Max results (0 = default 50)
	Offset   int    // Pagination offset
}

// StatsRepository exposes aggregate reporting
type StatsRepository interface {
	// GetStats returns aggregate statistics across all runs
	GetStats() (*AggregateStats, error)
}
