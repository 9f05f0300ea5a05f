package resilience

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/supermarket/internal/catalog"
)

// Catalog guards a catalog backend with a Breaker. A missing price is a
// healthy answer and never counts as a failure.
type Catalog struct {
	Source  catalog.Catalog
	Breaker *Breaker
}

// UnitPrice implements catalog.Catalog.
func (c Catalog) UnitPrice(ctx context.Context, p catalog.Product) (float64, error) {
	if !c.Breaker.Allow(ctx) {
		return 0, fmt.Errorf("unit price of %s: %w", p.Name, ErrOpenCircuit)
	}
	price, err := c.Source.UnitPrice(ctx, p)
	c.Breaker.Report(ctx, err == nil || errors.Is(err, catalog.ErrPriceNotFound))
	return price, err
}
