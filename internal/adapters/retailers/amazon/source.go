// Package amazon loads orders from the Amazon order-history CSV export and
// an optional refunds CSV.
package amazon

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ledgermatch/ledgermatch/internal/adapters/retailers"
	"github.com/ledgermatch/ledgermatch/internal/domain/retail"
)

// Order-history export columns. The export has one row per line item.
const (
	colOrderID   = "Order ID"
	colOrderDate = "Order Date"
	colStatus    = "Order Status"
	colProduct   = "Product Name"
	colQuantity  = "Quantity"
	colUnitPrice = "Unit Price"
	colTotalOwed = "Total Owed"
)

// Refunds export columns.
const (
	colRefundDate   = "Refund Date"
	colRefundAmount = "Refund Amount"
)

// Source reads Amazon CSV exports.
type Source struct {
	ordersPath  string
	refundsPath string
	logger      *slog.Logger
}

// New creates an Amazon order source. refundsPath may be empty.
func New(ordersPath, refundsPath string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		ordersPath:  ordersPath,
		refundsPath: refundsPath,
		logger:      logger,
	}
}

// Name returns the retailer this source serves
func (s *Source) Name() retail.Retailer {
	return retail.Amazon
}

// LoadOrders parses the configured exports. Purchases come first, refunds
// after. Bad rows are skipped with a warning, never fatal.
func (s *Source) LoadOrders(ctx context.Context) ([]retail.Order, error) {
	if s.ordersPath == "" && s.refundsPath == "" {
		return nil, fmt.Errorf("no amazon export files configured")
	}

	var orders []retail.Order

	if s.ordersPath != "" {
		purchases, err := s.loadPurchases()
		if err != nil {
			return nil, fmt.Errorf("loading amazon orders: %w", err)
		}
		orders = append(orders, purchases...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.refundsPath != "" {
		refunds, err := s.loadRefunds()
		if err != nil {
			return nil, fmt.Errorf("loading amazon refunds: %w", err)
		}
		orders = append(orders, refunds...)
	}

	s.logger.Debug("loaded amazon orders", "count", len(orders))
	return orders, nil
}

type purchaseAccum struct {
	date   time.Time
	status string
	total  int64
	items  []retail.Item
}

func (s *Source) loadPurchases() ([]retail.Order, error) {
	table, err := readTable(s.ordersPath, colOrderID, colOrderDate, colTotalOwed)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*purchaseAccum)
	var ids []string

	for i, row := range table.rows {
		line := i + 2 // 1-based, after header

		id := table.get(row, colOrderID)
		if id == "" {
			s.logger.Warn("skipping row with empty order id", "line", line)
			continue
		}

		date, err := retailers.ParseDate(table.get(row, colOrderDate))
		if err != nil {
			s.logger.Warn("skipping row with bad date", "line", line, "order_id", id, "error", err)
			continue
		}

		owed, err := retailers.ParseCents(table.get(row, colTotalOwed))
		if err != nil {
			s.logger.Warn("skipping row with bad amount", "line", line, "order_id", id, "error", err)
			continue
		}

		acc, ok := groups[id]
		if !ok {
			acc = &purchaseAccum{date: date, status: table.get(row, colStatus)}
			groups[id] = acc
			ids = append(ids, id)
		}
		acc.total += owed

		if title := table.get(row, colProduct); title != "" {
			qty := 1
			if q := table.get(row, colQuantity); q != "" {
				if n, err := strconv.Atoi(q); err == nil && n > 0 {
					qty = n
				}
			}
			unit, _ := retailers.ParseCents(table.get(row, colUnitPrice))
			acc.items = append(acc.items, retail.Item{Title: title, Quantity: qty, UnitPrice: unit})
		}
	}

	orders := make([]retail.Order, 0, len(ids))
	for _, id := range ids {
		acc := groups[id]
		order, err := retail.NewPurchase(retail.Amazon, id, acc.date, -acc.total)
		if err != nil {
			s.logger.Warn("skipping unbuildable order", "order_id", id, "error", err)
			continue
		}
		order.Status = acc.status
		order.Items = acc.items
		orders = append(orders, order)
	}

	return orders, nil
}

type refundAccum struct {
	orderID string
	date    time.Time
	total   int64
	items   []retail.Item
}

func (s *Source) loadRefunds() ([]retail.Order, error) {
	table, err := readTable(s.refundsPath, colOrderID, colRefundDate, colRefundAmount)
	if err != nil {
		return nil, err
	}

	// One refund order per (order id, refund date): a partial return on a
	// different day is a separate ledger credit.
	groups := make(map[string]*refundAccum)
	var keys []string

	for i, row := range table.rows {
		line := i + 2

		id := table.get(row, colOrderID)
		if id == "" {
			s.logger.Warn("skipping refund row with empty order id", "line", line)
			continue
		}

		dateRaw := table.get(row, colRefundDate)
		date, err := retailers.ParseDate(dateRaw)
		if err != nil {
			s.logger.Warn("skipping refund row with bad date", "line", line, "order_id", id, "error", err)
			continue
		}

		amount, err := retailers.ParseCents(table.get(row, colRefundAmount))
		if err != nil {
			s.logger.Warn("skipping refund row with bad amount", "line", line, "order_id", id, "error", err)
			continue
		}

		key := id + "|" + dateRaw
		acc, ok := groups[key]
		if !ok {
			acc = &refundAccum{orderID: id, date: date}
			groups[key] = acc
			keys = append(keys, key)
		}
		acc.total += amount

		if title := table.get(row, colProduct); title != "" {
			acc.items = append(acc.items, retail.Item{Title: title, Quantity: 1, UnitPrice: amount})
		}
	}

	orders := make([]retail.Order, 0, len(keys))
	for _, key := range keys {
		acc := groups[key]
		order, err := retail.NewRefund(retail.Amazon, acc.orderID, acc.date, acc.total)
		if err != nil {
			s.logger.Warn("skipping unbuildable refund", "order_id", acc.orderID, "error", err)
			continue
		}
		order.Items = acc.items
		orders = append(orders, order)
	}

	return orders, nil
}

// csvTable is a header-indexed CSV file.
type csvTable struct {
	cols map[string]int
	rows [][]string
}

func readTable(path string, required ...string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged rows; cells are looked up by header
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, name)
		}
	}

	return &csvTable{cols: cols, rows: records[1:]}, nil
}

func (t *csvTable) get(row []string, col string) string {
	idx, ok := t.cols[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
