package walmart

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSource_LoadOrders_SplitOrder(t *testing.T) {
	path := writeExport(t, `{
		"orders": [
			{
				"orderId": "2000123",
				"orderDate": "2026-07-20",
				"total": "$116.20",
				"status": "Delivered",
				"items": [
					{"name": "Bananas", "unitPrice": "$0.58", "quantity": 3},
					{"name": "Paper Towels", "unitPrice": "$12.97", "quantity": 1}
				],
				"payments": [
					{"finalCharges": ["$56.78", "$59.42"]}
				]
			}
		]
	}`)

	source := New(path, nil)
	orders, err := source.LoadOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)

	order := orders[0]
	assert.Equal(t, "2000123", order.OrderID)
	assert.Equal(t, int64(-11620), order.TotalAmount)
	assert.Equal(t, time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC), order.Date)
	assert.Equal(t, "Delivered", order.Status)
	assert.True(t, order.IsMultiCharge())
	assert.Equal(t, []int64{-5678, -5942}, order.FinalCharges)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Bananas", order.Items[0].Title)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, int64(58), order.Items[0].UnitPrice)
}

func TestSource_LoadOrders_SingleCharge(t *testing.T) {
	path := writeExport(t, `{
		"orders": [
			{
				"orderId": "2000456",
				"orderDate": "2026-07-22T09:15:00Z",
				"total": "$1,234.56",
				"status": "Delivered",
				"payments": [{"finalCharges": ["$1,234.56"]}]
			}
		]
	}`)

	source := New(path, nil)
	orders, err := source.LoadOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)

	order := orders[0]
	assert.Equal(t, int64(-123456), order.TotalAmount)
	assert.False(t, order.IsMultiCharge())
	assert.Equal(t, int64(-123456), order.MatchAmount())
}

func TestSource_LoadOrders_NoPayments(t *testing.T) {
	path := writeExport(t, `{
		"orders": [
			{
				"orderId": "2000789",
				"orderDate": "2026-07-23",
				"total": "$42.00",
				"status": "Processing"
			}
		]
	}`)

	source := New(path, nil)
	orders, err := source.LoadOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Nil(t, orders[0].FinalCharges)
	assert.Equal(t, "Processing", orders[0].Status)
}

func TestSource_LoadOrders_SkipsRefundCredits(t *testing.T) {
	path := writeExport(t, `{
		"orders": [
			{
				"orderId": "2000999",
				"orderDate": "2026-07-24",
				"total": "$30.00",
				"status": "Delivered",
				"payments": [{"finalCharges": ["$30.00", "-$4.50"]}]
			}
		]
	}`)

	source := New(path, nil)
	orders, err := source.LoadOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, []int64{-3000}, orders[0].FinalCharges)
}

func TestSource_LoadOrders_SkipsBadOrders(t *testing.T) {
	path := writeExport(t, `{
		"orders": [
			{"orderId": "good", "orderDate": "2026-07-20", "total": "$10.00", "status": "Delivered"},
			{"orderId": "bad-date", "orderDate": "garbage", "total": "$10.00", "status": "Delivered"},
			{"orderId": "bad-total", "orderDate": "2026-07-21", "total": "ten dollars", "status": "Delivered"}
		]
	}`)

	source := New(path, nil)
	orders, err := source.LoadOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "good", orders[0].OrderID)
}

func TestSource_LoadOrders_MissingFile(t *testing.T) {
	source := New(filepath.Join(t.TempDir(), "nope.json"), nil)
	_, err := source.LoadOrders(context.Background())
	assert.Error(t, err)
}

func TestSource_LoadOrders_NotConfigured(t *testing.T) {
	source := New("", nil)
	_, err := source.LoadOrders(context.Background())
	assert.Error(t, err)
}
