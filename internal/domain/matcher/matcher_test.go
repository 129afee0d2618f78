package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgermatch/ledgermatch/internal/domain/ledger"
	"github.com/ledgermatch/ledgermatch/internal/domain/retail"
)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func makeTx(id string, amount int64, date time.Time, payee string) ledger.TransactionRecord {
	return ledger.TransactionRecord{
		ID:     id,
		Date:   date,
		Amount: amount,
		Payee:  payee,
	}
}

func amazonPurchase(t *testing.T, id string, total int64, date time.Time) retail.Order {
	t.Helper()
	order, err := retail.NewPurchase(retail.Amazon, id, date, total)
	require.NoError(t, err)
	return order
}

func walmartDelivered(t *testing.T, id string, total int64, date time.Time) retail.Order {
	t.Helper()
	order, err := retail.NewPurchase(retail.Walmart, id, date, total)
	require.NoError(t, err)
	order.Status = "Delivered"
	return order
}

func TestMatcher_SingleExactMatch(t *testing.T) {
	// Arrange
	m := New(DefaultConfig())
	order := amazonPurchase(t, "111-2223334-5556667", -8643, day(10))
	transactions := []ledger.TransactionRecord{
		makeTx("tx1", -8643, day(11), "AMZN Mktp US*A1B2C3"),
		makeTx("tx2", -15000, day(11), "AMZN Mktp US*D4E5F6"),
	}

	// Act
	matches := m.Match([]retail.Order{order}, transactions)

	// Assert
	require.Len(t, matches, 1)
	match := matches[0]
	assert.Equal(t, "tx1", match.Transaction().ID)
	assert.Equal(t, order.OrderID, match.Order.OrderID)
	assert.False(t, match.IsMultiTransaction())
	assert.GreaterOrEqual(t, match.Confidence, 0.8, "exact amount one day out should be high confidence")
	assert.NotEmpty(t, match.MatchReason)
}

func TestMatcher_NoDoubleAssignment(t *testing.T) {
	// Two orders for the same amount, one transaction: only one can win
	m := New(DefaultConfig())
	orders := []retail.Order{
		amazonPurchase(t, "order-a", -8643, day(10)),
		amazonPurchase(t, "order-b", -8643, day(10)),
	}
	transactions := []ledger.TransactionRecord{
		makeTx("tx1", -8643, day(10), "AMAZON.COM"),
	}

	matches := m.Match(orders, transactions)

	require.Len(t, matches, 1)
	assert.Equal(t, "order-a", matches[0].Order.OrderID, "ties resolve to input order")
}

func TestMatcher_TieBreak_SmallerDateGap(t *testing.T) {
	m := New(DefaultConfig())
	order := amazonPurchase(t, "111-2223334-5556667", -8643, day(10))
	transactions := []ledger.TransactionRecord{
		makeTx("tx-far", -8643, day(13), "AMAZON.COM"),
		makeTx("tx-near", -8643, day(11), "AMAZON.COM"),
	}

	matches := m.Match([]retail.Order{order}, transactions)

	require.Len(t, matches, 1)
	assert.Equal(t, "tx-near", matches[0].Transaction().ID)
}

func TestMatcher_TieBreak_InputOrder(t *testing.T) {
	m := New(DefaultConfig())
	order := amazonPurchase(t, "111-2223334-5556667", -8643, day(10))
	transactions := []ledger.TransactionRecord{
		makeTx("tx-first", -8643, day(11), "AMAZON.COM"),
		makeTx("tx-second", -8643, day(11), "AMAZON.COM"),
	}

	matches := m.Match([]retail.Order{order}, transactions)

	require.Len(t, matches, 1)
	assert.Equal(t, "tx-first", matches[0].Transaction().ID)
}

func TestMatcher_BestScoreWins(t *testing.T) {
	// One transaction, two orders at different date distances: the closer
	// order scores higher and takes the transaction
	m := New(DefaultConfig())
	orders := []retail.Order{
		amazonPurchase(t, "order-far", -8643, day(4)),
		amazonPurchase(t, "order-near", -8643, day(10)),
	}
	transactions := []ledger.TransactionRecord{
		makeTx("tx1", -8643, day(10), "AMAZON.COM"),
	}

	matches := m.Match(orders, transactions)

	require.Len(t, matches, 1)
	assert.Equal(t, "order-near", matches[0].Order.OrderID)
}

func TestMatcher_WalmartRequiresDelivered(t *testing.T) {
	m := New(DefaultConfig())
	shipped, err := retail.NewPurchase(retail.Walmart, "2000123", day(10), -5750)
	require.NoError(t, err)
	shipped.Status = "Shipped"

	transactions := []ledger.TransactionRecord{
		makeTx("tx1", -5750, day(10), "WALMART.COM"),
	}

	matches := m.Match([]retail.Order{shipped}, transactions)
	assert.Empty(t, matches)

	// Status comparison is case-insensitive
	shipped.Status = "delivered"
	matches = m.Match([]retail.Order{shipped}, transactions)
	assert.Len(t, matches, 1)
}

func TestMatcher_RefundMatchesCredit(t *testing.T) {
	m := New(DefaultConfig())
	refund, err := retail.NewRefund(retail.Amazon, "111-2223334-5556667", day(10), 2319)
	require.NoError(t, err)

	transactions := []ledger.TransactionRecord{
		makeTx("tx-expense", -2319, day(10), "AMZN Mktp US"),
		makeTx("tx-credit", 2319, day(11), "AMZN Mktp US"),
	}

	matches := m.Match([]retail.Order{refund}, transactions)

	require.Len(t, matches, 1)
	assert.Equal(t, "tx-credit", matches[0].Transaction().ID)
}

func TestMatcher_WildAmountGap_NoMatch(t *testing.T) {
	// Same day, recognizable payee, but the amounts are nowhere near each
	// other: no amount of date or payee credit may produce a match
	m := New(DefaultConfig())
	order := amazonPurchase(t, "111-2223334-5556667", -8643, day(10))
	transactions := []ledger.TransactionRecord{
		makeTx("tx1", -1200, day(10), "AMZN Mktp US"),
	}

	matches := m.Match([]retail.Order{order}, transactions)

	assert.Empty(t, matches)
}

func TestMatcher_DateOutsideWindow_NoMatch(t *testing.T) {
	m := New(DefaultConfig())
	order := amazonPurchase(t, "111-2223334-5556667", -8643, day(10))
	transactions := []ledger.TransactionRecord{
		makeTx("tx1", -8643, day(20), "AMAZON.COM"),
	}

	matches := m.Match([]retail.Order{order}, transactions)

	assert.Empty(t, matches)
}

func TestMatcher_ConfidenceFloor(t *testing.T) {
	config := DefaultConfig()
	config.ConfidenceFloor = 0.95
	m := New(config)

	// Exact amount but unknown payee and a day out: scores well below 0.95
	order := amazonPurchase(t, "111-2223334-5556667", -8643, day(10))
	transactions := []ledger.TransactionRecord{
		makeTx("tx1", -8643, day(11), "CARD PURCHASE 0142"),
	}

	matches := m.Match([]retail.Order{order}, transactions)

	assert.Empty(t, matches)
}

func TestMatcher_SingleFinalChargeOverridesTotal(t *testing.T) {
	m := New(DefaultConfig())
	order := walmartDelivered(t, "2000123", -5800, day(10))
	order.FinalCharges = []int64{-5750}

	transactions := []ledger.TransactionRecord{
		makeTx("tx1", -5750, day(10), "WALMART.COM"),
	}

	matches := m.Match([]retail.Order{order}, transactions)

	require.Len(t, matches, 1)
	assert.Equal(t, "tx1", matches[0].Transaction().ID)
	assert.False(t, matches[0].IsMultiTransaction())
}

func TestMatcher_InvalidOrderSkipped(t *testing.T) {
	m := New(DefaultConfig())
	order := amazonPurchase(t, "111-2223334-5556667", -8643, day(10))
	order.OrderID = "" // malformed

	transactions := []ledger.TransactionRecord{
		makeTx("tx1", -8643, day(10), "AMAZON.COM"),
	}

	matches := m.Match([]retail.Order{order}, transactions)

	assert.Empty(t, matches)
}

func TestMatcher_EmptyInputs(t *testing.T) {
	m := New(DefaultConfig())

	assert.Empty(t, m.Match(nil, nil))
	assert.Empty(t, m.Match([]retail.Order{amazonPurchase(t, "x", -100, day(10))}, nil))
	assert.Empty(t, m.Match(nil, []ledger.TransactionRecord{makeTx("tx1", -100, day(10), "AMAZON.COM")}))
}
