package checkout_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/supermarket/internal/cart"
	"github.com/noah-isme/supermarket/internal/catalog"
	"github.com/noah-isme/supermarket/internal/checkout"
	"github.com/noah-isme/supermarket/internal/obs"
	"github.com/noah-isme/supermarket/internal/offer"
	"github.com/noah-isme/supermarket/internal/receipt"
)

var (
	apples     = catalog.Product{Name: "apples", Unit: catalog.Kilo}
	toothbrush = catalog.Product{Name: "toothbrush", Unit: catalog.Each}
)

func init() {
	obs.MustRegisterDomainMetrics("test", prometheus.NewRegistry())
}

func newTeller(prices map[catalog.Product]float64) *checkout.Teller {
	c := catalog.NewMemory()
	for p, price := range prices {
		c.AddProduct(p, price)
	}
	return checkout.NewTeller(c)
}

func checkoutOf(t *testing.T, teller *checkout.Teller, adds ...cart.Item) *receipt.Receipt {
	t.Helper()
	c := cart.New()
	for _, it := range adds {
		c.AddItemQuantity(it.Product, it.Quantity)
	}
	r, err := teller.Checkout(context.Background(), c)
	require.NoError(t, err)
	return r
}

func TestEmptyCart(t *testing.T) {
	for _, prices := range []map[catalog.Product]float64{nil, {apples: 1.99}} {
		r := checkoutOf(t, newTeller(prices))
		require.Empty(t, r.Items)
		require.Empty(t, r.Discounts)
		require.Zero(t, r.TotalPrice())
	}
}

func TestNilCartIsEmpty(t *testing.T) {
	r, err := newTeller(map[catalog.Product]float64{apples: 1.99}).Checkout(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, r.Items)
	require.Zero(t, r.TotalPrice())
}

func TestProductNotInCatalog(t *testing.T) {
	teller := newTeller(map[catalog.Product]float64{toothbrush: 0.99})
	c := cart.New()
	c.AddItem(toothbrush)
	c.AddItemQuantity(apples, 0.5)

	before := testutil.ToFloat64(obs.CheckoutTotal.WithLabelValues("price_not_found"))
	r, err := teller.Checkout(context.Background(), c)
	require.Nil(t, r)
	require.ErrorIs(t, err, catalog.ErrPriceNotFound)
	require.Equal(t, before+1, testutil.ToFloat64(obs.CheckoutTotal.WithLabelValues("price_not_found")))
}

type failingCatalog struct{}

func (failingCatalog) UnitPrice(context.Context, catalog.Product) (float64, error) {
	return 0, errors.New("catalog offline")
}

func TestCatalogFailurePropagates(t *testing.T) {
	c := cart.New()
	c.AddItem(apples)
	r, err := checkout.NewTeller(failingCatalog{}).Checkout(context.Background(), c)
	require.Nil(t, r)
	require.EqualError(t, err, "checkout: catalog offline")
}

func TestProductWithoutOffer(t *testing.T) {
	r := checkoutOf(t, newTeller(map[catalog.Product]float64{apples: 1.99}), cart.Item{Product: apples, Quantity: 3})
	require.Len(t, r.Items, 1)
	require.Equal(t, apples, r.Items[0].Product)
	require.Equal(t, 3.0, r.Items[0].Quantity)
	require.Equal(t, 1.99, r.Items[0].UnitPrice)
	require.InDelta(t, 5.97, r.Items[0].TotalPrice, 1e-9)
	require.Empty(t, r.Discounts)
}

func TestOfferOnOtherProductIsIgnored(t *testing.T) {
	teller := newTeller(map[catalog.Product]float64{apples: 1.99, toothbrush: 0.99})
	teller.AddSpecialOffer(offer.TenPercentDiscount, toothbrush, 10)
	r := checkoutOf(t, teller, cart.Item{Product: apples, Quantity: 2.5})
	require.Len(t, r.Items, 1)
	require.Empty(t, r.Discounts)
}

func TestPermissiveInputs(t *testing.T) {
	t.Run("negative quantity", func(t *testing.T) {
		r := checkoutOf(t, newTeller(map[catalog.Product]float64{apples: 1.99}), cart.Item{Product: apples, Quantity: -2})
		require.InDelta(t, -3.98, r.Items[0].TotalPrice, 1e-9)
	})
	t.Run("negative price", func(t *testing.T) {
		r := checkoutOf(t, newTeller(map[catalog.Product]float64{apples: -1.99}), cart.Item{Product: apples, Quantity: 2})
		require.InDelta(t, -3.98, r.TotalPrice(), 1e-9)
	})
	t.Run("half toothbrush", func(t *testing.T) {
		r := checkoutOf(t, newTeller(map[catalog.Product]float64{toothbrush: 1.99}), cart.Item{Product: toothbrush, Quantity: 0.5})
		require.InDelta(t, 0.995, r.Items[0].TotalPrice, 1e-9)
	})
}

func TestOffers(t *testing.T) {
	cases := []struct {
		name        string
		kind        offer.Type
		argument    float64
		quantity    float64
		description string
		amount      float64
		none        bool
	}{
		{name: "three for two, two units", kind: offer.ThreeForTwo, argument: 2, quantity: 2, none: true},
		{name: "three for two, three units", kind: offer.ThreeForTwo, argument: 2, quantity: 3, description: "3 for 2", amount: 1.99},
		{name: "three for two, seven units", kind: offer.ThreeForTwo, argument: 2, quantity: 7, description: "3 for 2", amount: 3.98},
		{name: "two for amount, one unit", kind: offer.TwoForAmount, argument: 2, quantity: 1, none: true},
		{name: "two for amount, two units", kind: offer.TwoForAmount, argument: 2, quantity: 2, description: "2 for 2.0", amount: 1.98},
		{name: "two for amount, seven units", kind: offer.TwoForAmount, argument: 2, quantity: 7, description: "2 for 2.0", amount: 13.93 - 7.99},
		{name: "two for amount, negative quantity", kind: offer.TwoForAmount, argument: 2, quantity: -7, none: true},
		{name: "two for negative amount", kind: offer.TwoForAmount, argument: -2, quantity: 7, description: "2 for -2.0", amount: 13.93 - (-6 + 1.99)},
		{name: "five for amount, one unit", kind: offer.FiveForAmount, argument: 2, quantity: 1, none: true},
		{name: "five for amount, five units", kind: offer.FiveForAmount, argument: 2, quantity: 5, description: "5 for 2.0", amount: 9.95 - 2},
		{name: "five for amount, eleven units", kind: offer.FiveForAmount, argument: 2, quantity: 11, description: "5 for 2.0", amount: 15.90},
		{name: "five for amount, negative quantity", kind: offer.FiveForAmount, argument: 2, quantity: -7, none: true},
		{name: "five for negative amount", kind: offer.FiveForAmount, argument: -2, quantity: 11, description: "5 for -2.0", amount: 21.89 - (-4 + 1.99)},
		{name: "percent, eleven units", kind: offer.TenPercentDiscount, argument: 2, quantity: 11, description: "2.0% off", amount: 11 * 1.99 * 2 / 100},
		{name: "percent, negative quantity", kind: offer.TenPercentDiscount, argument: 2, quantity: -11, description: "2.0% off", amount: -11 * 1.99 * 2 / 100},
		{name: "negative percent", kind: offer.TenPercentDiscount, argument: -2, quantity: 11, description: "-2.0% off", amount: 11 * 1.99 * -2 / 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			teller := newTeller(map[catalog.Product]float64{apples: 1.99})
			teller.AddSpecialOffer(tc.kind, apples, tc.argument)
			r := checkoutOf(t, teller, cart.Item{Product: apples, Quantity: tc.quantity})

			require.Len(t, r.Items, 1)
			if tc.none {
				require.Empty(t, r.Discounts)
				return
			}
			require.Len(t, r.Discounts, 1)
			d := r.Discounts[0]
			require.Equal(t, apples, d.Product)
			require.Equal(t, tc.description, d.Description)
			require.InDelta(t, tc.amount, d.Amount, 1e-9)
		})
	}
}

func TestRepeatedAdditionsAggregateForOffers(t *testing.T) {
	teller := newTeller(map[catalog.Product]float64{apples: 1.99, toothbrush: 0.99})
	teller.AddSpecialOffer(offer.ThreeForTwo, apples, 0)
	teller.AddSpecialOffer(offer.TenPercentDiscount, toothbrush, 10)

	r := checkoutOf(t, teller,
		cart.Item{Product: apples, Quantity: 2},
		cart.Item{Product: toothbrush, Quantity: 1},
		cart.Item{Product: apples, Quantity: 1},
	)
	require.Len(t, r.Items, 3)
	require.Equal(t, 2.0, r.Items[0].Quantity)
	require.Equal(t, toothbrush, r.Items[1].Product)
	require.Equal(t, 1.0, r.Items[2].Quantity)

	require.Len(t, r.Discounts, 2)
	require.Equal(t, apples, r.Discounts[0].Product)
	require.InDelta(t, 1.99, r.Discounts[0].Amount, 1e-9)
	require.Equal(t, toothbrush, r.Discounts[1].Product)
	require.Equal(t, "10.0% off", r.Discounts[1].Description)
}

func TestReplacedOfferWins(t *testing.T) {
	teller := newTeller(map[catalog.Product]float64{apples: 1.99})
	teller.AddSpecialOffer(offer.ThreeForTwo, apples, 0)
	teller.AddSpecialOffer(offer.FiveForAmount, apples, 2)

	r := checkoutOf(t, teller, cart.Item{Product: apples, Quantity: 3})
	require.Empty(t, r.Discounts)
}

type countingCatalog struct {
	catalog.Catalog
	calls int
}

func (c *countingCatalog) UnitPrice(ctx context.Context, p catalog.Product) (float64, error) {
	c.calls++
	return c.Catalog.UnitPrice(ctx, p)
}

func TestEachProductPricedOnce(t *testing.T) {
	src := &countingCatalog{Catalog: catalog.NewMemory(catalog.Listing{Product: apples, UnitPrice: 1.99})}
	teller := checkout.NewTeller(src)
	teller.AddSpecialOffer(offer.ThreeForTwo, apples, 0)
	checkoutOf(t, teller, cart.Item{Product: apples, Quantity: 1}, cart.Item{Product: apples, Quantity: 2})
	require.Equal(t, 1, src.calls)
}
