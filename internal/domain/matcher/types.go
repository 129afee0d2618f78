package matcher

import (
	"github.com/ledgermatch/ledgermatch/internal/domain/ledger"
	"github.com/ledgermatch/ledgermatch/internal/domain/retail"
	"github.com/ledgermatch/ledgermatch/internal/domain/scorer"
)

// Config holds matcher configuration
type Config struct {
	Scoring scorer.Config

	// ConfidenceFloor discards matches scoring below it before they reach
	// the processor. Default 0: the structural amount/date gates already
	// reject pairs that cannot plausibly match.
	ConfidenceFloor float64
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Scoring:         scorer.DefaultConfig(),
		ConfidenceFloor: 0,
	}
}

// Match pairs a ledger transaction with the retailer order that explains it.
//
// Transactions holds the anchor transaction first. For split-charge orders
// the rest of the billing group follows, so every match in a group carries
// its siblings; the processor applies a match to its anchor only.
type Match struct {
	Order        retail.Order
	Transactions []ledger.TransactionRecord
	Confidence   float64 // 0-1 score
	MatchReason  string  // audit trail: which factors drove the score
}

// Transaction returns the anchor transaction the match applies to.
func (m Match) Transaction() ledger.TransactionRecord {
	return m.Transactions[0]
}

// IsMultiTransaction reports whether the match is part of a split-charge
// group spanning several transactions.
func (m Match) IsMultiTransaction() bool {
	return len(m.Transactions) > 1
}

// SiblingIDs lists the ids of the other transactions in the billing group.
func (m Match) SiblingIDs() []string {
	if len(m.Transactions) < 2 {
		return nil
	}
	ids := make([]string, 0, len(m.Transactions)-1)
	for _, tx := range m.Transactions[1:] {
		ids = append(ids, tx.ID)
	}
	return ids
}
