package receipt

import (
	"github.com/google/uuid"

	"github.com/noah-isme/supermarket/internal/catalog"
	"github.com/noah-isme/supermarket/internal/pricing"
)

// Item is one priced line of a receipt.
type Item struct {
	Product    catalog.Product `json:"product"`
	Quantity   float64         `json:"quantity"`
	UnitPrice  float64         `json:"unitPrice"`
	TotalPrice float64         `json:"totalPrice"`
}

// Receipt collects priced lines in cart order followed by discounts.
type Receipt struct {
	ID        uuid.UUID          `json:"id"`
	Items     []Item             `json:"items"`
	Discounts []pricing.Discount `json:"discounts"`
}

// New returns an empty receipt with a fresh identifier.
func New() *Receipt {
	return &Receipt{ID: uuid.New(), Items: []Item{}, Discounts: []pricing.Discount{}}
}

// AddProduct appends a priced line.
func (r *Receipt) AddProduct(p catalog.Product, quantity, unitPrice, totalPrice float64) {
	r.Items = append(r.Items, Item{Product: p, Quantity: quantity, UnitPrice: unitPrice, TotalPrice: totalPrice})
}

// AddDiscount appends a discount.
func (r *Receipt) AddDiscount(d pricing.Discount) {
	r.Discounts = append(r.Discounts, d)
}

// TotalPrice is the sum of line totals minus the sum of discount amounts.
// No rounding is applied.
func (r *Receipt) TotalPrice() float64 {
	var total float64
	for _, it := range r.Items {
		total += it.TotalPrice
	}
	for _, d := range r.Discounts {
		total -= d.Amount
	}
	return total
}

// Finite reports whether every amount on the receipt, and its total, is a
// finite number. Overflowing quantities or prices produce infinities that
// JSON cannot carry.
func (r *Receipt) Finite() bool {
	for _, it := range r.Items {
		if !finite(it.Quantity) || !finite(it.UnitPrice) || !finite(it.TotalPrice) {
			return false
		}
	}
	for _, d := range r.Discounts {
		if !finite(d.Amount) {
			return false
		}
	}
	return finite(r.TotalPrice())
}
