package scorer

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

func amazonOrder(t *testing.T, total int64) retail.Order {
	t.Helper()
	order, err := retail.NewPurchase(retail.Amazon, "111-2223334-5556667", day(10), total)
	require.NoError(t, err)
	return order
}

func TestWeights_SumToOne(t *testing.T) {
	for _, r := range []retail.Retailer{retail.Amazon, retail.Walmart} {
		w := singleWeights(r)
		assert.InDelta(t, 1.0, w.Amount+w.Date+w.Payee+w.Memo, 1e-9, "retailer %s", r)
	}
	w := multiChargeWeights
	assert.InDelta(t, 1.0, w.Amount+w.Date+w.Payee+w.Memo, 1e-9)
}

func TestScoreSingle_ExactAmazonMatch(t *testing.T) {
	// Arrange
	s := New(DefaultConfig())
	order := amazonOrder(t, -8643)
	tx := makeTx("tx1", -8643, day(10), "AMZN Mktp US*A1B2C3")

	// Act
	b, ok := s.ScoreSingle(order, tx)

	// Assert
	require.True(t, ok)
	assert.Equal(t, 1.0, b.Amount)
	assert.Equal(t, 1.0, b.Date)
	assert.Equal(t, 1.0, b.Payee)
	assert.Equal(t, 0.0, b.Memo)
	assert.InDelta(t, 0.90, b.Total, 1e-9)
}

func TestScoreSingle_FullCreditWithMemoHint(t *testing.T) {
	s := New(DefaultConfig())
	order := amazonOrder(t, -8643)
	tx := makeTx("tx1", -8643, day(10), "AMZN Mktp US*A1B2C3")
	tx.Memo = "amazon order 111-2223334-5556667"

	b, ok := s.ScoreSingle(order, tx)

	require.True(t, ok)
	assert.Equal(t, 1.0, b.Memo)
	assert.InDelta(t, 1.0, b.Total, 1e-9)
}

func TestScoreSingle_WalmartWeights(t *testing.T) {
	s := New(DefaultConfig())
	order, err := retail.NewPurchase(retail.Walmart, "2000123", day(10), -5750)
	require.NoError(t, err)

	b, ok := s.ScoreSingle(order, makeTx("tx1", -5750, day(10), "WALMART.COM 8009666546"))
	require.True(t, ok)
	assert.InDelta(t, 1.0, b.Total, 1e-9)

	// Unrecognized payee drops only the payee factor
	b, ok = s.ScoreSingle(order, makeTx("tx2", -5750, day(10), "CARD PURCHASE 0142"))
	require.True(t, ok)
	assert.Equal(t, 0.0, b.Payee)
	assert.InDelta(t, 0.90, b.Total, 1e-9)
}

func TestScoreSingle_AmountWithinEpsilon(t *testing.T) {
	s := New(DefaultConfig())
	order := amazonOrder(t, -8643)

	b, ok := s.ScoreSingle(order, makeTx("tx1", -8644, day(10), "AMAZON.COM"))

	require.True(t, ok)
	assert.Equal(t, 1.0, b.Amount)
}

func TestScoreSingle_AmountDecay(t *testing.T) {
	// $100.00 charge, $102.50 transaction: inside the 5% band, past epsilon
	s := New(DefaultConfig())
	order := amazonOrder(t, -10000)

	b, ok := s.ScoreSingle(order, makeTx("tx1", -10250, day(10), "AMAZON.COM"))

	require.True(t, ok)
	assert.InDelta(t, 0.501, b.Amount, 0.005)
	assert.Greater(t, b.Amount, 0.0)
	assert.Less(t, b.Amount, 1.0)
}

func TestScoreSingle_AmountOutsideTolerance(t *testing.T) {
	// $6.00 off a $100.00 charge is past the 5% band: structurally ineligible
	s := New(DefaultConfig())
	order := amazonOrder(t, -10000)

	_, ok := s.ScoreSingle(order, makeTx("tx1", -10600, day(10), "AMAZON.COM"))

	assert.False(t, ok)
}

func TestScoreSingle_SignMismatch(t *testing.T) {
	s := New(DefaultConfig())
	refund, err := retail.NewRefund(retail.Amazon, "111-2223334-5556667", day(10), 2319)
	require.NoError(t, err)

	// A refund must match a credit, never an expense of the same magnitude
	_, ok := s.ScoreSingle(refund, makeTx("tx1", -2319, day(10), "AMAZON.COM"))
	assert.False(t, ok)

	b, ok := s.ScoreSingle(refund, makeTx("tx2", 2319, day(10), "AMZN Mktp US"))
	require.True(t, ok)
	assert.Equal(t, 1.0, b.Amount)
}

func TestScoreSingle_DateDecay(t *testing.T) {
	s := New(DefaultConfig())
	order := amazonOrder(t, -8643)

	b, ok := s.ScoreSingle(order, makeTx("tx1", -8643, day(13), "AMAZON.COM"))
	require.True(t, ok)
	assert.InDelta(t, 1.0-3.0/7.0, b.Date, 1e-9)

	// At the window edge the date factor hits zero and gates the pair
	_, ok = s.ScoreSingle(order, makeTx("tx2", -8643, day(17), "AMAZON.COM"))
	assert.False(t, ok)
}

func TestScoreSingle_MemoTitleToken(t *testing.T) {
	s := New(DefaultConfig())
	order := amazonOrder(t, -8643)
	order.Items = []retail.Item{{Title: "Adjustable Desk Lamp", Quantity: 1, UnitPrice: 3499}}

	tx := makeTx("tx1", -8643, day(10), "AMZN Mktp US")
	tx.Memo = "that lamp for the office"

	b, ok := s.ScoreSingle(order, tx)

	require.True(t, ok)
	assert.Equal(t, 0.5, b.Memo)
}

func TestScoreSingle_WalmartIgnoresMemo(t *testing.T) {
	s := New(DefaultConfig())
	order, err := retail.NewPurchase(retail.Walmart, "2000123", day(10), -5750)
	require.NoError(t, err)

	tx := makeTx("tx1", -5750, day(10), "WALMART.COM")
	tx.Memo = "walmart order 2000123"

	b, ok := s.ScoreSingle(order, tx)

	require.True(t, ok)
	assert.Equal(t, 0.0, b.Memo)
}

func TestScoreMulti_ConsistentGroup(t *testing.T) {
	// Arrange
	s := New(DefaultConfig())
	order, err := retail.NewPurchase(retail.Walmart, "2000123", day(10), -5750)
	require.NoError(t, err)
	order.FinalCharges = []int64{-4500, -1250}

	txs := []ledger.TransactionRecord{
		makeTx("tx1", -4500, day(11), "WALMART.COM 8009666546"),
		makeTx("tx2", -1250, day(12), "WAL-MART #1234"),
	}

	// Act
	b, ok := s.ScoreMulti(order, txs)

	// Assert
	require.True(t, ok)
	assert.Equal(t, 1.0, b.Amount)
	assert.Equal(t, 1.0, b.Payee)
	wantDate := ((1.0 - 1.0/14.0) + (1.0 - 2.0/14.0)) / 2.0
	assert.InDelta(t, wantDate, b.Date, 1e-9)
	assert.InDelta(t, 0.5+0.3*wantDate+0.2, b.Total, 1e-9)
}

func TestScoreMulti_InconsistentPayee(t *testing.T) {
	s := New(DefaultConfig())
	order, err := retail.NewPurchase(retail.Walmart, "2000123", day(10), -5750)
	require.NoError(t, err)
	order.FinalCharges = []int64{-4500, -1250}

	txs := []ledger.TransactionRecord{
		makeTx("tx1", -4500, day(10), "WALMART.COM"),
		makeTx("tx2", -1250, day(10), "SOME OTHER STORE"),
	}

	b, ok := s.ScoreMulti(order, txs)

	require.True(t, ok)
	assert.Equal(t, 0.0, b.Payee)
	assert.InDelta(t, 0.80, b.Total, 1e-9)
}

func TestScoreMulti_GatesOnAmount(t *testing.T) {
	s := New(DefaultConfig())
	order, err := retail.NewPurchase(retail.Walmart, "2000123", day(10), -5750)
	require.NoError(t, err)
	order.FinalCharges = []int64{-4500, -1250}

	// Second amount is far outside the band for a $12.50 charge
	txs := []ledger.TransactionRecord{
		makeTx("tx1", -4500, day(10), "WALMART.COM"),
		makeTx("tx2", -1340, day(10), "WALMART.COM"),
	}

	_, ok := s.ScoreMulti(order, txs)

	assert.False(t, ok)
}

func TestScoreMulti_LengthMismatch(t *testing.T) {
	s := New(DefaultConfig())
	order, err := retail.NewPurchase(retail.Walmart, "2000123", day(10), -5750)
	require.NoError(t, err)
	order.FinalCharges = []int64{-4500, -1250}

	_, ok := s.ScoreMulti(order, []ledger.TransactionRecord{
		makeTx("tx1", -4500, day(10), "WALMART.COM"),
	})

	assert.False(t, ok)
}

func TestDaysApart(t *testing.T) {
	assert.Equal(t, 0.0, DaysApart(day(10), day(10)))
	assert.Equal(t, 3.0, DaysApart(day(10), day(13)))
	assert.Equal(t, 3.0, DaysApart(day(13), day(10)))
}
