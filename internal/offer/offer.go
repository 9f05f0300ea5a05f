package offer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/supermarket/internal/catalog"
)

// ErrUnknownType is returned when parsing an unsupported offer type.
var ErrUnknownType = errors.New("unknown offer type")

// Type enumerates the special offers a product can carry.
type Type int

const (
	// ThreeForTwo charges two units out of every complete group of three.
	ThreeForTwo Type = iota + 1
	// TwoForAmount sells every pair at the offer argument.
	TwoForAmount
	// FiveForAmount sells every group of five at the offer argument.
	FiveForAmount
	// TenPercentDiscount takes the argument as a percentage off the line.
	TenPercentDiscount
)

var typeNames = map[Type]string{
	ThreeForTwo:        "ThreeForTwo",
	TwoForAmount:       "TwoForAmount",
	FiveForAmount:      "FiveForAmount",
	TenPercentDiscount: "TenPercentDiscount",
}

// String returns the canonical name of the type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType accepts the canonical name in any case.
func ParseType(value string) (Type, error) {
	trimmed := strings.TrimSpace(value)
	for t, name := range typeNames {
		if strings.EqualFold(name, trimmed) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, value)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	name, ok := typeNames[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Offer is a special offer active on one product. Argument is the bundle
// price for the "for amount" types and the percentage for TenPercentDiscount;
// ThreeForTwo ignores it.
type Offer struct {
	Type     Type            `json:"type"`
	Product  catalog.Product `json:"product"`
	Argument float64         `json:"argument"`
}
