package storage

import (
	"fmt"
	"sort"
	"time"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	processed map[string]ProcessedTransaction
	runs      map[int64]*ReconcileRun
	records   []MatchRecord
	nextRunID int64

	// Hooks for test assertions
	IsProcessedCalled     bool
	IsProcessedCalls      int
	MarkProcessedCalled   bool
	LastMarkedTransaction string
	LastMarkedOrder       string
	StartRunCalled        bool
	CompleteRunCalled     bool
	SaveMatchRecordCalled bool

	// Error injection for testing error paths
	IsProcessedErr     error
	MarkProcessedErr   error
	StartRunErr        error
	CompleteRunErr     error
	SaveMatchRecordErr error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		processed: make(map[string]ProcessedTransaction),
		runs:      make(map[int64]*ReconcileRun),
		records:   make([]MatchRecord, 0),
		nextRunID: 1,
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// IsProcessed checks the in-memory dedup set
func (m *MockRepository) IsProcessed(transactionID string) (bool, error) {
	m.IsProcessedCalled = true
	m.IsProcessedCalls++
	if m.IsProcessedErr != nil {
		return false, m.IsProcessedErr
	}
	_, ok := m.processed[transactionID]
	return ok, nil
}

// MarkProcessed records the transaction in the in-memory dedup set
func (m *MockRepository) MarkProcessed(transactionID, orderID string) error {
	m.MarkProcessedCalled = true
	m.LastMarkedTransaction = transactionID
	m.LastMarkedOrder = orderID
	if m.MarkProcessedErr != nil {
		return m.MarkProcessedErr
	}
	m.processed[transactionID] = ProcessedTransaction{
		TransactionID: transactionID,
		OrderID:       orderID,
		MarkedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	return nil
}

// ProcessedCount returns the size of the dedup set
func (m *MockRepository) ProcessedCount() int {
	return len(m.processed)
}

// SeedProcessed pre-marks a transaction, bypassing the call-tracking hooks
func (m *MockRepository) SeedProcessed(transactionID, orderID string) {
	m.processed[transactionID] = ProcessedTransaction{
		TransactionID: transactionID,
		OrderID:       orderID,
		MarkedAt:      time.Now().UTC().Format(time.RFC3339),
	}
}

// StartRun creates a new run and returns its ID
func (m *MockRepository) StartRun(retailer string, lookbackDays int, dryRun bool) (int64, error) {
	m.StartRunCalled = true
	if m.StartRunErr != nil {
		return 0, m.StartRunErr
	}
	id := m.nextRunID
	m.nextRunID++
	m.runs[id] = &ReconcileRun{
		ID:           id,
		Retailer:     retailer,
		StartedAt:    time.Now().UTC().Format(time.RFC3339),
		LookbackDays: lookbackDays,
		DryRun:       dryRun,
		Status:       RunStatusRunning,
	}
	return id, nil
}

// CompleteRun records the outcome of a run
func (m *MockRepository) CompleteRun(runID int64, counts RunCounts, status, errorMessage string) error {
	m.CompleteRunCalled = true
	if m.CompleteRunErr != nil {
		return m.CompleteRunErr
	}
	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %d not found", runID)
	}
	run.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	run.Updated = counts.Updated
	run.SkippedAlreadyProcessed = counts.SkippedAlreadyProcessed
	run.SkippedLowConfidence = counts.SkippedLowConfidence
	run.HighConfidence = counts.HighConfidence
	run.MediumConfidence = counts.MediumConfidence
	run.Failed = counts.Failed
	run.TransactionCount = counts.TransactionCount
	run.OrderCount = counts.OrderCount
	run.Status = status
	run.ErrorMessage = errorMessage
	return nil
}

// GetRun retrieves a run by ID
func (m *MockRepository) GetRun(runID int64) (*ReconcileRun, error) {
	run, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	copied := *run
	return &copied, nil
}

// ListRuns returns runs newest first
func (m *MockRepository) ListRuns(limit int) ([]ReconcileRun, error) {
	if limit <= 0 {
		limit = 20
	}
	runs := make([]ReconcileRun, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, *run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// SaveMatchRecord appends a record to the in-memory audit trail
func (m *MockRepository) SaveMatchRecord(record *MatchRecord) error {
	m.SaveMatchRecordCalled = true
	if m.SaveMatchRecordErr != nil {
		return m.SaveMatchRecordErr
	}
	record.ID = int64(len(m.records) + 1)
	if record.CreatedAt == "" {
		record.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	m.records = append(m.records, *record)
	return nil
}

// ListMatchRecords filters the in-memory audit trail
func (m *MockRepository) ListMatchRecords(filters MatchRecordFilters) ([]MatchRecord, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	var out []MatchRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if filters.RunID > 0 && r.RunID != filters.RunID {
			continue
		}
		if filters.Retailer != "" && r.Retailer != filters.Retailer {
			continue
		}
		if filters.Status != "" && r.Status != filters.Status {
			continue
		}
		out = append(out, r)
	}

	if filters.Offset > 0 {
		if filters.Offset >= len(out) {
			return nil, nil
		}
		out = out[filters.Offset:]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MatchRecords exposes the raw audit trail for assertions
func (m *MockRepository) MatchRecords() []MatchRecord {
	return m.records
}

// GetStats aggregates the in-memory state
func (m *MockRepository) GetStats() (*AggregateStats, error) {
	stats := &AggregateStats{
		RetailerStats:         make(map[string]RetailerStats),
		ProcessedTransactions: len(m.processed),
	}

	for _, run := range m.runs {
		stats.TotalRuns++
		stats.TotalUpdated += run.Updated
		stats.TotalFailed += run.Failed
		stats.TotalSkipped += run.SkippedAlreadyProcessed + run.SkippedLowConfidence
		if run.StartedAt > stats.LastRunAt {
			stats.LastRunAt = run.StartedAt
		}
	}

	sums := make(map[string]float64)
	for _, r := range m.records {
		rs := stats.RetailerStats[r.Retailer]
		rs.Matches++
		if r.Status == MatchStatusApplied {
			rs.Applied++
		}
		sums[r.Retailer] += r.Confidence
		stats.RetailerStats[r.Retailer] = rs
	}
	for retailer, rs := range stats.RetailerStats {
		if rs.Matches > 0 {
			rs.AvgConfidence = sums[retailer] / float64(rs.Matches)
			stats.RetailerStats[retailer] = rs
		}
	}

	return stats, nil
}
