package receipt

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/supermarket/internal/catalog"
)

// DefaultColumns is the width of a printed receipt.
const DefaultColumns = 40

// Printer renders receipts as fixed-width text. Money is rounded half away
// from zero to two decimals at render time only.
type Printer struct {
	Columns int
}

// Print renders r.
func (p Printer) Print(r *Receipt) string {
	var b strings.Builder
	for _, it := range r.Items {
		b.WriteString(p.line(it.Product.Name, money(it.TotalPrice)))
		if it.Quantity != 1 {
			b.WriteString("  " + money(it.UnitPrice) + " * " + quantity(it.Product.Unit, it.Quantity) + "\n")
		}
	}
	for _, d := range r.Discounts {
		b.WriteString(p.line(d.Description+"("+d.Product.Name+")", money(-d.Amount)))
	}
	b.WriteString("\n")
	b.WriteString(p.line("Total: ", money(r.TotalPrice())))
	return b.String()
}

func (p Printer) columns() int {
	if p.Columns <= 0 {
		return DefaultColumns
	}
	return p.Columns
}

func (p Printer) line(name, value string) string {
	pad := p.columns() - utf8.RuneCountInString(name) - utf8.RuneCountInString(value)
	if pad < 1 {
		pad = 1
	}
	return name + strings.Repeat(" ", pad) + value + "\n"
}

func money(v float64) string {
	if !finite(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func quantity(u catalog.Unit, q float64) string {
	if !finite(q) {
		return strconv.FormatFloat(q, 'f', -1, 64)
	}
	if u == catalog.Each {
		return decimal.NewFromFloat(q).Truncate(0).String()
	}
	return decimal.NewFromFloat(q).StringFixed(3)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
