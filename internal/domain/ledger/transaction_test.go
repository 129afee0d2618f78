package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransactionRecord_Validate(t *testing.T) {
	valid := TransactionRecord{
		ID:     "tx-1",
		Date:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount: -4500,
		Payee:  "WALMART.COM",
	}
	assert.NoError(t, valid.Validate())

	missingID := valid
	missingID.ID = "  "
	assert.Error(t, missingID.Validate())

	missingDate := valid
	missingDate.Date = time.Time{}
	assert.Error(t, missingDate.Validate())

	missingAmount := valid
	missingAmount.Amount = 0
	assert.Error(t, missingAmount.Validate())
}

func TestTransactionRecord_IsExpense(t *testing.T) {
	assert.True(t, TransactionRecord{Amount: -100}.IsExpense())
	assert.False(t, TransactionRecord{Amount: 2319}.IsExpense())
}

func TestDay_NormalizesToMidnightUTC(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	stamp := time.Date(2025, 3, 10, 23, 45, 12, 0, loc)

	got := Day(stamp)

	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}
