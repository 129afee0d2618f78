// Package retail defines the normalized order model the retailer sources
// produce and the matcher consumes. One Order struct covers every retailer;
// the Retailer tag selects scoring behavior downstream.
package retail

import (
	"fmt"
	"strings"
	"time"
)

// Retailer identifies which storefront an order came from.
type Retailer string

const (
	Amazon  Retailer = "amazon"
	Walmart Retailer = "walmart"
)

// ReturnPrefix marks refund orders. A refund keeps the original order id
// behind the prefix so annotations still point at the purchase.
const ReturnPrefix = "RETURN-"

// Known reports whether the retailer tag is one this system scores.
func (r Retailer) Known() bool {
	return r == Amazon || r == Walmart
}

// Item is one line item on an order. UnitPrice is in positive minor units.
type Item struct {
	Title     string
	Quantity  int
	UnitPrice int64
}

// Order is a normalized retailer order.
//
// TotalAmount is in signed minor units: purchases negative, refunds positive.
// FinalCharges, when present, are the amounts actually billed to the card.
// A single entry replaces TotalAmount for matching; multiple entries mean the
// retailer split the order across several charges and matching must find one
// transaction per charge.
type Order struct {
	Retailer     Retailer
	OrderID      string
	Date         time.Time // calendar date, midnight UTC
	TotalAmount  int64
	FinalCharges []int64
	Status       string
	Items        []Item
	IsReturn     bool
}

// NewPurchase builds a purchase order. Total must be expense-negative.
func NewPurchase(retailer Retailer, orderID string, date time.Time, total int64) (Order, error) {
	o := Order{
		Retailer:    retailer,
		OrderID:     strings.TrimSpace(orderID),
		Date:        date,
		TotalAmount: total,
	}
	if total >= 0 {
		return Order{}, fmt.Errorf("purchase %s: total must be negative, got %d", orderID, total)
	}
	if err := o.Validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// NewRefund builds a refund order from the original order id. This is the
// only way to produce a positive-amount order: refund amounts are positive
// and the order id gets the return prefix.
func NewRefund(retailer Retailer, originalOrderID string, date time.Time, amount int64) (Order, error) {
	original := strings.TrimSpace(originalOrderID)
	o := Order{
		Retailer:    retailer,
		OrderID:     ReturnPrefix + strings.TrimPrefix(original, ReturnPrefix),
		Date:        date,
		TotalAmount: amount,
		IsReturn:    true,
	}
	if amount <= 0 {
		return Order{}, fmt.Errorf("refund for %s: amount must be positive, got %d", original, amount)
	}
	if err := o.Validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Validate reports whether the order satisfies the model invariants. Orders
// that fail validation are excluded from a run with a warning.
func (o Order) Validate() error {
	if !o.Retailer.Known() {
		return fmt.Errorf("order %s: unknown retailer %q", o.OrderID, o.Retailer)
	}
	if strings.TrimSpace(o.OrderID) == "" {
		return fmt.Errorf("order missing id")
	}
	if o.Date.IsZero() {
		return fmt.Errorf("order %s: missing date", o.OrderID)
	}
	if o.TotalAmount == 0 && len(o.FinalCharges) == 0 {
		return fmt.Errorf("order %s: no total and no final charges", o.OrderID)
	}
	if o.IsReturn {
		if !strings.HasPrefix(o.OrderID, ReturnPrefix) {
			return fmt.Errorf("refund order %s: missing %s prefix", o.OrderID, ReturnPrefix)
		}
		if o.TotalAmount <= 0 {
			return fmt.Errorf("refund order %s: amount must be positive", o.OrderID)
		}
	} else if o.TotalAmount > 0 {
		return fmt.Errorf("order %s: positive amount on a non-refund order", o.OrderID)
	}
	for i, c := range o.FinalCharges {
		if c == 0 {
			return fmt.Errorf("order %s: final charge %d is zero", o.OrderID, i)
		}
		if (c < 0) != (o.TotalAmount < 0) {
			return fmt.Errorf("order %s: final charge %d sign disagrees with total", o.OrderID, i)
		}
	}
	for i, item := range o.Items {
		if item.Quantity < 0 {
			return fmt.Errorf("order %s: item %d has negative quantity", o.OrderID, i)
		}
	}
	return nil
}

// IsMultiCharge reports whether the order was billed as several separate
// card charges.
func (o Order) IsMultiCharge() bool {
	return len(o.FinalCharges) > 1
}

// MatchAmount is the amount single-charge matching compares against: the
// sole final charge when the retailer reported one, otherwise the total.
func (o Order) MatchAmount() int64 {
	if len(o.FinalCharges) == 1 {
		return o.FinalCharges[0]
	}
	return o.TotalAmount
}

// ChargeAmounts is the full set of billed amounts: FinalCharges when
// present, otherwise the total as a single charge.
func (o Order) ChargeAmounts() []int64 {
	if len(o.FinalCharges) > 0 {
		return o.FinalCharges
	}
	return []int64{o.TotalAmount}
}

// ItemTitles lists the item titles in order.
func (o Order) ItemTitles() []string {
	titles := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}
		titles = append(titles, item.Title)
	}
	return titles
}
