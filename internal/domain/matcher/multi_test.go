package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgermatch/ledgermatch/internal/domain/ledger"
	"github.com/ledgermatch/ledgermatch/internal/domain/retail"
)

func splitOrder(t *testing.T, charges ...int64) retail.Order {
	t.Helper()
	var total int64
	for _, c := range charges {
		total += c
	}
	order := walmartDelivered(t, "2000123", total, day(10))
	order.FinalCharges = charges
	return order
}

func TestMatcher_SplitCharges_FullGroupMatched(t *testing.T) {
	// Arrange
	m := New(DefaultConfig())
	order := splitOrder(t, -4500, -1250)
	transactions := []ledger.TransactionRecord{
		makeTx("tx1", -4500, day(11), "WALMART.COM 8009666546"),
		makeTx("tx2", -1250, day(12), "WAL-MART #1234"),
	}

	// Act
	matches := m.Match([]retail.Order{order}, transactions)

	// Assert
	require.Len(t, matches, 2)

	var anchors []string
	var sum int64
	for _, match := range matches {
		assert.True(t, match.IsMultiTransaction())
		assert.Len(t, match.Transactions, 2)
		assert.Equal(t, order.OrderID, match.Order.OrderID)
		anchors = append(anchors, match.Transaction().ID)
		sum += match.Transaction().Amount
	}
	assert.ElementsMatch(t, []string{"tx1", "tx2"}, anchors)

	// Anchors across the group sum to exactly the billed charges
	assert.Equal(t, int64(-5750), sum)

	// Every match carries the other group member as a sibling
	assert.Equal(t, []string{"tx2"}, matches[0].SiblingIDs())
	assert.Equal(t, []string{"tx1"}, matches[1].SiblingIDs())

	// The whole group shares one confidence
	assert.Equal(t, matches[0].Confidence, matches[1].Confidence)
}

func TestMatcher_SplitCharges_MissingCharge_NoMatches(t *testing.T) {
	// Only one of the two billed charges has a transaction: all or nothing
	m := New(DefaultConfig())
	order := splitOrder(t, -4500, -1250)
	transactions := []ledger.TransactionRecord{
		makeTx("tx1", -4500, day(11), "WALMART.COM"),
	}

	matches := m.Match([]retail.Order{order}, transactions)

	assert.Empty(t, matches)
}

func TestMatcher_SplitCharges_ClosestAmountWins(t *testing.T) {
	m := New(DefaultConfig())
	order := splitOrder(t, -4500, -1250)
	transactions := []ledger.TransactionRecord{
		makeTx("tx-exact", -4500, day(12), "WALMART.COM"),
		makeTx("tx-cent-off", -4501, day(11), "WALMART.COM"),
		makeTx("tx-small", -1250, day(11), "WALMART.COM"),
	}

	matches := m.Match([]retail.Order{order}, transactions)

	require.Len(t, matches, 2)
	anchors := []string{matches[0].Transaction().ID, matches[1].Transaction().ID}
	assert.Contains(t, anchors, "tx-exact", "exact amount beats the closer date")
	assert.Contains(t, anchors, "tx-small")
}

func TestMatcher_SplitCharges_OutsideDateWindow(t *testing.T) {
	m := New(DefaultConfig())
	order := splitOrder(t, -4500, -1250)
	transactions := []ledger.TransactionRecord{
		makeTx("tx1", -4500, day(11), "WALMART.COM"),
		makeTx("tx2", -1250, day(25), "WALMART.COM"), // 15 days out
	}

	matches := m.Match([]retail.Order{order}, transactions)

	assert.Empty(t, matches)
}

func TestMatcher_SplitCharges_DoNotReuseSingleChargeWinners(t *testing.T) {
	// A single-charge order claims tx1 first; the split order then cannot
	// complete its group and yields nothing
	m := New(DefaultConfig())
	single := walmartDelivered(t, "3000456", -4500, day(11))
	split := splitOrder(t, -4500, -1250)

	transactions := []ledger.TransactionRecord{
		makeTx("tx1", -4500, day(11), "WALMART.COM"),
		makeTx("tx2", -1250, day(12), "WALMART.COM"),
	}

	matches := m.Match([]retail.Order{split, single}, transactions)

	require.Len(t, matches, 1)
	assert.Equal(t, "3000456", matches[0].Order.OrderID)
	assert.Equal(t, "tx1", matches[0].Transaction().ID)
}

func TestMatcher_SplitCharges_GroupReason(t *testing.T) {
	m := New(DefaultConfig())
	order := splitOrder(t, -4500, -1250)
	transactions := []ledger.TransactionRecord{
		makeTx("tx1", -4500, day(11), "WALMART.COM"),
		makeTx("tx2", -1250, day(12), "WALMART.COM"),
	}

	matches := m.Match([]retail.Order{order}, transactions)

	require.Len(t, matches, 2)
	assert.Contains(t, matches[0].MatchReason, "split charge 1 of 2")
	assert.Contains(t, matches[0].MatchReason, "tx2")
	assert.Contains(t, matches[1].MatchReason, "split charge 2 of 2")
	assert.Contains(t, matches[1].MatchReason, order.OrderID)
}
