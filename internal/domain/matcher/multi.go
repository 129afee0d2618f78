package matcher

import (
	"fmt"
	"strings"

	"github.com/ledgermatch/ledgermatch/internal/domain/ledger"
	"github.com/ledgermatch/ledgermatch/internal/domain/retail"
	"github.com/ledgermatch/ledgermatch/internal/domain/scorer"
)

// matchMultiCharge resolves split-charge orders against the transactions the
// single-charge pass left unassigned. Orders are taken in input order; an
// order either claims one transaction per billed charge or claims nothing.
func (m *Matcher) matchMultiCharge(
	orders []retail.Order,
	transactions []ledger.TransactionRecord,
	usedTx map[string]bool,
	matches []Match,
) []Match {
	for _, order := range orders {
		if !order.IsMultiCharge() || !m.eligible(order) {
			continue
		}

		group, breakdown, ok := m.resolveChargeGroup(order, transactions, usedTx)
		if !ok || breakdown.Total < m.config.ConfidenceFloor {
			continue
		}

		for _, tx := range group {
			usedTx[tx.ID] = true
		}
		for i := range group {
			matches = append(matches, Match{
				Order:        order,
				Transactions: anchorFirst(group, i),
				Confidence:   breakdown.Total,
				MatchReason:  multiReason(order, i, group),
			})
		}
	}
	return matches
}

// resolveChargeGroup pairs each final charge with its closest-amount unused
// transaction inside the split-charge date window. Every charge must pair,
// and the paired amounts must sum to the billed charges, or the order gets
// no group at all.
func (m *Matcher) resolveChargeGroup(
	order retail.Order,
	transactions []ledger.TransactionRecord,
	usedTx map[string]bool,
) ([]ledger.TransactionRecord, scorer.Breakdown, bool) {
	tolerance := m.scorer.PairTolerance()
	window := float64(m.scorer.DateWindow(true))

	group := make([]ledger.TransactionRecord, 0, len(order.FinalCharges))
	pickedThisOrder := make(map[string]bool)

	for _, charge := range order.FinalCharges {
		best := -1
		var bestAmountDiff int64
		var bestDateDiff float64

		for ti, tx := range transactions {
			if usedTx[tx.ID] || pickedThisOrder[tx.ID] {
				continue
			}
			if (charge < 0) != (tx.Amount < 0) {
				continue
			}
			amountDiff := abs64(tx.Amount - charge)
			if amountDiff > tolerance {
				continue
			}
			dateDiff := scorer.DaysApart(order.Date, tx.Date)
			if dateDiff >= window {
				continue
			}
			if best == -1 || amountDiff < bestAmountDiff ||
				(amountDiff == bestAmountDiff && dateDiff < bestDateDiff) {
				best = ti
				bestAmountDiff = amountDiff
				bestDateDiff = dateDiff
			}
		}

		if best == -1 {
			// A charge with no transaction sinks the whole group
			return nil, scorer.Breakdown{}, false
		}
		group = append(group, transactions[best])
		pickedThisOrder[transactions[best].ID] = true
	}

	if err := validateGroupSum(order, group, tolerance); err != nil {
		return nil, scorer.Breakdown{}, false
	}

	breakdown, ok := m.scorer.ScoreMulti(order, group)
	return group, breakdown, ok
}

// validateGroupSum ensures the paired transactions sum to the billed charges
// within epsilon per charge.
func validateGroupSum(order retail.Order, group []ledger.TransactionRecord, tolerance int64) error {
	var sum, want int64
	for _, tx := range group {
		sum += tx.Amount
	}
	for _, charge := range order.FinalCharges {
		want += charge
	}
	if diff := abs64(sum - want); diff > tolerance*int64(len(group)) {
		return fmt.Errorf(
			"group sum %s does not match billed charges %s for order %s (diff %s)",
			formatCents(sum), formatCents(want), order.OrderID, formatCents(diff),
		)
	}
	return nil
}

// anchorFirst returns the group with element i rotated to the front, keeping
// the rest in pairing order.
func anchorFirst(group []ledger.TransactionRecord, i int) []ledger.TransactionRecord {
	out := make([]ledger.TransactionRecord, 0, len(group))
	out = append(out, group[i])
	for j, tx := range group {
		if j != i {
			out = append(out, tx)
		}
	}
	return out
}

func multiReason(order retail.Order, idx int, group []ledger.TransactionRecord) string {
	ids := make([]string, len(group))
	for i, tx := range group {
		ids[i] = tx.ID
	}
	return fmt.Sprintf(
		"split charge %d of %d (%s) for order %s; group transactions: %s",
		idx+1, len(group), formatCents(order.FinalCharges[idx]), order.OrderID,
		strings.Join(ids, ", "),
	)
}
