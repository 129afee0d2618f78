// Package ledger defines the bank and card transactions pulled from the
// budgeting service. Reconcile runs read these records, match them against
// retailer orders, and write memo annotations back.
package ledger

import (
	"fmt"
	"strings"
	"time"
)

// TransactionRecord is a single transaction as the budgeting service reports
// it. Amount is in signed minor currency units (cents): purchases are
// negative, refunds and credits positive.
type TransactionRecord struct {
	ID       string
	Date     time.Time // calendar date, midnight UTC
	Amount   int64
	Payee    string
	Memo     string
	Cleared  bool
	Approved bool
}

// Validate reports whether the record carries the fields matching depends on.
// Records that fail validation are dropped from a run with a warning.
func (t TransactionRecord) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("transaction missing id")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction %s missing date", t.ID)
	}
	if t.Amount == 0 {
		return fmt.Errorf("transaction %s missing amount", t.ID)
	}
	return nil
}

// IsExpense reports whether the transaction is an outflow.
func (t TransactionRecord) IsExpense() bool {
	return t.Amount < 0
}

// Day normalizes a timestamp to its calendar date at midnight UTC. Adapters
// call this so date arithmetic in scoring works in whole days.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
