// Package pricing turns an aggregated cart quantity, a unit price and a
// special offer into a line discount.
package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/supermarket/internal/catalog"
	"github.com/noah-isme/supermarket/internal/offer"
)

// Discount is the amount to subtract from the undiscounted total of a product.
// Amount is unrounded and may be negative.
type Discount struct {
	Product     catalog.Product `json:"product"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"`
}

// Evaluate computes the discount o grants on quantity units of p at unitPrice.
// The bundle offers only look at whole units: quantity is truncated toward
// zero before thresholds and group counts are taken. The percentage offer
// applies to the untruncated quantity and always yields a discount.
// Inputs are never range-checked.
func Evaluate(p catalog.Product, quantity, unitPrice float64, o offer.Offer) (Discount, bool) {
	qi := truncate(quantity)
	switch o.Type {
	case offer.ThreeForTwo:
		if qi <= 2 {
			return Discount{}, false
		}
		groups := qi / 3
		charged := float64(groups)*2*unitPrice + float64(qi%3)*unitPrice
		return Discount{Product: p, Description: "3 for 2", Amount: quantity*unitPrice - charged}, true
	case offer.TwoForAmount:
		if qi < 2 {
			return Discount{}, false
		}
		total := o.Argument*float64(qi/2) + float64(qi%2)*unitPrice
		return Discount{Product: p, Description: "2 for " + FormatArgument(o.Argument), Amount: unitPrice*quantity - total}, true
	case offer.FiveForAmount:
		if qi < 5 {
			return Discount{}, false
		}
		total := o.Argument*float64(qi/5) + float64(qi%5)*unitPrice
		return Discount{Product: p, Description: "5 for " + FormatArgument(o.Argument), Amount: unitPrice*quantity - total}, true
	case offer.TenPercentDiscount:
		return Discount{Product: p, Description: FormatArgument(o.Argument) + "% off", Amount: quantity * unitPrice * o.Argument / 100}, true
	default:
		return Discount{}, false
	}
}

// truncate converts q to a whole number toward zero, saturating at the
// 32-bit integer range and mapping NaN to zero.
func truncate(q float64) int64 {
	switch {
	case math.IsNaN(q):
		return 0
	case q >= math.MaxInt32:
		return math.MaxInt32
	case q <= math.MinInt32:
		return math.MinInt32
	}
	return int64(q)
}

// FormatArgument renders an offer argument for descriptions: plain decimal
// with at least one fractional digit ("2.0", "1.5"), scientific notation
// outside [1e-3, 1e7).
func FormatArgument(a float64) string {
	switch {
	case math.IsNaN(a):
		return "NaN"
	case math.IsInf(a, 1):
		return "Infinity"
	case math.IsInf(a, -1):
		return "-Infinity"
	}
	abs := math.Abs(a)
	if abs == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(a, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(a, 'E', -1, 64), "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	e, _ := strconv.Atoi(exp)
	return mantissa + "E" + strconv.Itoa(e)
}
