package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPriceNotFound is returned when the catalog holds no unit price for a product.
	ErrPriceNotFound = errors.New("price not found")
	// ErrUnknownUnit indicates an unsupported unit of measure.
	ErrUnknownUnit = errors.New("unknown unit")
)

// Unit is the unit of measure a product is sold by.
type Unit int

const (
	// Each prices a product per piece.
	Each Unit = iota + 1
	// Kilo prices a product per kilogram.
	Kilo
)

// String returns the lowercase name of the unit.
func (u Unit) String() string {
	switch u {
	case Each:
		return "each"
	case Kilo:
		return "kilo"
	default:
		return fmt.Sprintf("unit(%d)", int(u))
	}
}

// ParseUnit converts "each" or "kilo" (any case) into a Unit.
func ParseUnit(value string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "each":
		return Each, nil
	case "kilo":
		return Kilo, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, value)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u Unit) MarshalText() ([]byte, error) {
	if u != Each && u != Kilo {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUnit, int(u))
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(text []byte) error {
	parsed, err := ParseUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Product identifies a sellable article. Two products are equal when both
// name and unit match, so Product can be used directly as a map key.
type Product struct {
	Name string `json:"name"`
	Unit Unit   `json:"unit"`
}

// Catalog resolves the current unit price of a product.
type Catalog interface {
	UnitPrice(ctx context.Context, p Product) (float64, error)
}

func priceNotFound(p Product) error {
	return fmt.Errorf("%s (%s): %w", p.Name, p.Unit, ErrPriceNotFound)
}
