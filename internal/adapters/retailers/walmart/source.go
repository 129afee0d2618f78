// Package walmart loads orders from the order-scraper JSON export.
package walmart

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/ledgermatch/ledgermatch/internal/adapters/retailers"
	"github.com/ledgermatch/ledgermatch/internal/domain/retail"
)

// Wire types for the scraper export. Amounts are dollar strings ("$116.20").
type export struct {
	Orders []orderWire `json:"orders"`
}

type orderWire struct {
	OrderID   string        `json:"orderId"`
	OrderDate string        `json:"orderDate"`
	Total     string        `json:"total"`
	Status    string        `json:"status"`
	Items     []itemWire    `json:"items"`
	Payments  []paymentWire `json:"payments"`
}

type itemWire struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

type paymentWire struct {
	FinalCharges []string `json:"finalCharges"`
}

// Source reads the Walmart scraper export.
type Source struct {
	ordersPath string
	logger     *slog.Logger
}

// New creates a Walmart order source
func New(ordersPath string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		ordersPath: ordersPath,
		logger:     logger,
	}
}

// Name returns the retailer this source serves
func (s *Source) Name() retail.Retailer {
	return retail.Walmart
}

// LoadOrders parses the scraper export. Orders that fail to parse are
// skipped with a warning; a split order keeps its per-delivery charges.
func (s *Source) LoadOrders(ctx context.Context) ([]retail.Order, error) {
	if s.ordersPath == "" {
		return nil, fmt.Errorf("no walmart export file configured")
	}

	data, err := os.ReadFile(s.ordersPath)
	if err != nil {
		return nil, fmt.Errorf("loading walmart orders: %w", err)
	}

	var parsed export
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decoding walmart export: %w", err)
	}

	orders := make([]retail.Order, 0, len(parsed.Orders))
	for _, w := range parsed.Orders {
		order, err := s.convert(w)
		if err != nil {
			s.logger.Warn("skipping walmart order", "order_id", w.OrderID, "error", err)
			continue
		}
		orders = append(orders, order)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug("loaded walmart orders", "count", len(orders))
	return orders, nil
}

func (s *Source) convert(w orderWire) (retail.Order, error) {
	date, err := retailers.ParseDate(w.OrderDate)
	if err != nil {
		return retail.Order{}, err
	}

	totalCents, err := retailers.ParseCents(w.Total)
	if err != nil {
		return retail.Order{}, fmt.Errorf("bad total: %w", err)
	}

	order, err := retail.NewPurchase(retail.Walmart, w.OrderID, date, -totalCents)
	if err != nil {
		return retail.Order{}, err
	}
	order.Status = w.Status

	for _, item := range w.Items {
		unit, err := retailers.ParseCents(item.UnitPrice)
		if err != nil {
			s.logger.Warn("ignoring item with bad unit price",
				"order_id", w.OrderID, "item", item.Name, "error", err)
			continue
		}
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		order.Items = append(order.Items, retail.Item{Title: item.Name, Quantity: qty, UnitPrice: unit})
	}

	order.FinalCharges = s.finalCharges(w)

	if err := order.Validate(); err != nil {
		return retail.Order{}, err
	}
	return order, nil
}

// finalCharges extracts the actual card charges from the first payment
// method. Negative entries are refund credits the scraper interleaves;
// those are skipped here and arrive through the refund flow instead.
func (s *Source) finalCharges(w orderWire) []int64 {
	if len(w.Payments) == 0 {
		return nil
	}

	raw := w.Payments[0].FinalCharges
	charges := make([]int64, 0, len(raw))
	for _, c := range raw {
		cents, err := retailers.ParseCents(c)
		if err != nil {
			s.logger.Warn("ignoring unparseable final charge", "order_id", w.OrderID, "charge", c, "error", err)
			continue
		}
		if cents <= 0 {
			if cents < 0 {
				s.logger.Warn("skipping refund credit in final charges", "order_id", w.OrderID, "amount", cents)
			}
			continue
		}
		charges = append(charges, -cents)
	}

	if len(charges) == 0 {
		return nil
	}
	return charges
}
