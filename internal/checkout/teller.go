package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/supermarket/internal/cart"
	"github.com/noah-isme/supermarket/internal/catalog"
	"github.com/noah-isme/supermarket/internal/obs"
	"github.com/noah-isme/supermarket/internal/offer"
	"github.com/noah-isme/supermarket/internal/pricing"
	"github.com/noah-isme/supermarket/internal/receipt"
)

// Teller prices carts against a catalog and applies the registered offers.
// A Teller performs no locking of its own; callers must not mutate the cart
// while Checkout runs.
type Teller struct {
	Catalog catalog.Catalog
	Offers  *offer.Registry
}

// NewTeller returns a teller with an empty offer registry.
func NewTeller(c catalog.Catalog) *Teller {
	return &Teller{Catalog: c, Offers: offer.NewRegistry()}
}

// AddSpecialOffer installs or replaces the offer for product.
func (t *Teller) AddSpecialOffer(kind offer.Type, product catalog.Product, argument float64) {
	if t.Offers == nil {
		t.Offers = offer.NewRegistry()
	}
	t.Offers.Set(kind, product, argument)
}

// Checkout prices every cart item in insertion order, then evaluates the
// offer of each aggregated product. If any item has no catalog price the
// error wraps catalog.ErrPriceNotFound and no receipt is returned. A nil
// cart is checked out as an empty one.
func (t *Teller) Checkout(ctx context.Context, c *cart.ShoppingCart) (*receipt.Receipt, error) {
	if t == nil || t.Catalog == nil {
		return nil, errors.New("teller not configured")
	}
	ctx, span := otel.Tracer("supermarket/checkout").Start(ctx, "checkout")
	defer span.End()
	logger := zerolog.Ctx(ctx)
	if c == nil {
		c = cart.New()
	}

	items := c.Items()
	span.SetAttributes(attribute.Int("checkout.items", len(items)))

	r := receipt.New()
	prices := make(map[catalog.Product]float64, len(items))
	for _, it := range items {
		unitPrice, ok := prices[it.Product]
		if !ok {
			var err error
			unitPrice, err = t.Catalog.UnitPrice(ctx, it.Product)
			if err != nil {
				result := "error"
				if errors.Is(err, catalog.ErrPriceNotFound) {
					result = "price_not_found"
				}
				obs.ObserveCheckout(result, 0)
				span.RecordError(err)
				span.SetStatus(codes.Error, result)
				logger.Warn().Err(err).Str("product", it.Product.Name).Msg("checkout aborted")
				return nil, fmt.Errorf("checkout: %w", err)
			}
			prices[it.Product] = unitPrice
		}
		r.AddProduct(it.Product, it.Quantity, unitPrice, it.Quantity*unitPrice)
	}

	if t.Offers != nil {
		quantities := c.ProductQuantities()
		for _, p := range c.Products() {
			o, ok := t.Offers.Lookup(p)
			if !ok {
				continue
			}
			d, ok := pricing.Evaluate(p, quantities[p], prices[p], o)
			if !ok {
				continue
			}
			r.AddDiscount(d)
			obs.ObserveDiscount(o.Type.String())
		}
	}

	span.SetAttributes(attribute.Int("checkout.discounts", len(r.Discounts)))
	obs.ObserveCheckout("ok", len(r.Items))
	logger.Debug().
		Str("receipt_id", r.ID.String()).
		Int("lines", len(r.Items)).
		Int("discounts", len(r.Discounts)).
		Float64("total", r.TotalPrice()).
		Msg("checkout completed")
	return r, nil
}
