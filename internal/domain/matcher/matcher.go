// Package matcher pairs retailer orders with the ledger transactions that
// paid for them.
//
// Matching is greedy and non-overlapping within a retailer pass:
//   - Every eligible single-charge order/transaction pair is scored.
//   - Pairs are taken best-score first; ties go to the smaller date gap,
//     then to input order, so runs are deterministic.
//   - A transaction is never assigned twice, and split-charge orders claim
//     one transaction per billed charge or nothing at all.
//
// Example usage:
//
//	m := matcher.New(matcher.DefaultConfig())
//	matches := m.Match(orders, transactions)
//	for _, match := range matches {
//		// match.Transaction() is the ledger transaction to annotate
//	}
package matcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledgermatch/ledgermatch/internal/domain/ledger"
	"github.com/ledgermatch/ledgermatch/internal/domain/retail"
	"github.com/ledgermatch/ledgermatch/internal/domain/scorer"
)

// Matcher assigns ledger transactions to retailer orders
type Matcher struct {
	scorer *scorer.Scorer
	config Config
}

// New creates a matcher with the given config
func New(config Config) *Matcher {
	return &Matcher{
		scorer: scorer.New(config.Scoring),
		config: config,
	}
}

// candidate is one scored single-charge pairing awaiting assignment.
type candidate struct {
	orderIdx  int
	txIdx     int
	breakdown scorer.Breakdown
	dateDiff  float64
}

// Match runs one retailer pass: orders against the unprocessed transactions.
// Single-charge orders are assigned greedily by descending score; remaining
// transactions then back split-charge resolution. The result carries one
// Match per assigned transaction.
func (m *Matcher) Match(orders []retail.Order, transactions []ledger.TransactionRecord) []Match {
	var matches []Match
	usedTx := make(map[string]bool)

	matches = m.matchSingleCharge(orders, transactions, usedTx, matches)
	matches = m.matchMultiCharge(orders, transactions, usedTx, matches)

	return matches
}

func (m *Matcher) matchSingleCharge(
	orders []retail.Order,
	transactions []ledger.TransactionRecord,
	usedTx map[string]bool,
	matches []Match,
) []Match {
	var candidates []candidate
	for oi, order := range orders {
		if order.IsMultiCharge() || !m.eligible(order) {
			continue
		}
		for ti, tx := range transactions {
			b, ok := m.scorer.ScoreSingle(order, tx)
			if !ok || b.Total < m.config.ConfidenceFloor {
				continue
			}
			candidates = append(candidates, candidate{
				orderIdx:  oi,
				txIdx:     ti,
				breakdown: b,
				dateDiff:  scorer.DaysApart(order.Date, tx.Date),
			})
		}
	}

	// Best score first; ties by date gap, then input position
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.breakdown.Total != b.breakdown.Total {
			return a.breakdown.Total > b.breakdown.Total
		}
		if a.dateDiff != b.dateDiff {
			return a.dateDiff < b.dateDiff
		}
		if a.orderIdx != b.orderIdx {
			return a.orderIdx < b.orderIdx
		}
		return a.txIdx < b.txIdx
	})

	matchedOrders := make(map[int]bool)
	for _, c := range candidates {
		tx := transactions[c.txIdx]
		if matchedOrders[c.orderIdx] || usedTx[tx.ID] {
			continue
		}
		matchedOrders[c.orderIdx] = true
		usedTx[tx.ID] = true
		matches = append(matches, Match{
			Order:        orders[c.orderIdx],
			Transactions: []ledger.TransactionRecord{tx},
			Confidence:   c.breakdown.Total,
			MatchReason:  singleReason(c.breakdown, c.dateDiff),
		})
	}
	return matches
}

// eligible filters orders before any scoring happens. Walmart orders count
// only once delivered; Amazon orders, refunds included, always count.
func (m *Matcher) eligible(order retail.Order) bool {
	if order.Validate() != nil {
		return false
	}
	if order.Retailer == retail.Walmart && !strings.EqualFold(order.Status, "Delivered") {
		return false
	}
	return true
}

func singleReason(b scorer.Breakdown, dateDiff float64) string {
	reason := fmt.Sprintf(
		"single charge: amount %.2f, date %.2f (%.0f days apart), payee %.2f",
		b.Amount, b.Date, dateDiff, b.Payee,
	)
	if b.Memo > 0 {
		reason += fmt.Sprintf(", memo hint %.2f", b.Memo)
	}
	return reason
}

func formatCents(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
