package cart_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/supermarket/internal/cart"
	"github.com/noah-isme/supermarket/internal/catalog"
)

var (
	apples     = catalog.Product{Name: "apples", Unit: catalog.Kilo}
	toothbrush = catalog.Product{Name: "toothbrush", Unit: catalog.Each}
)

func TestAddItemQuantityAggregates(t *testing.T) {
	c := cart.New()
	c.AddItemQuantity(apples, 7)
	c.AddItem(toothbrush)
	c.AddItemQuantity(apples, 2.5)

	require.Equal(t, []cart.Item{
		{Product: apples, Quantity: 7},
		{Product: toothbrush, Quantity: 1},
		{Product: apples, Quantity: 2.5},
	}, c.Items())
	require.Equal(t, map[catalog.Product]float64{apples: 9.5, toothbrush: 1}, c.ProductQuantities())
	require.Equal(t, []catalog.Product{apples, toothbrush}, c.Products())
}

func TestAddItemQuantityAcceptsZeroAndNegative(t *testing.T) {
	c := cart.New()
	c.AddItemQuantity(apples, 0)
	c.AddItemQuantity(apples, -2)

	q, ok := c.Quantity(apples)
	require.True(t, ok)
	require.Equal(t, -2.0, q)
	require.Len(t, c.Items(), 2)
}

func TestZeroValueCart(t *testing.T) {
	var c cart.ShoppingCart
	require.Empty(t, c.Items())
	require.Empty(t, c.ProductQuantities())

	c.AddItem(toothbrush)
	q, ok := c.Quantity(toothbrush)
	require.True(t, ok)
	require.Equal(t, 1.0, q)
}

func TestAccessorsReturnCopies(t *testing.T) {
	c := cart.New()
	c.AddItemQuantity(apples, 1)

	items := c.Items()
	items[0].Quantity = 100
	quantities := c.ProductQuantities()
	quantities[apples] = 100

	require.Equal(t, 1.0, c.Items()[0].Quantity)
	q, _ := c.Quantity(apples)
	require.Equal(t, 1.0, q)
}

func TestAggregateEqualsSumOfItems(t *testing.T) {
	c := cart.New()
	adds := []float64{1.25, -0.5, 3, 0, 10.75}
	for _, q := range adds {
		c.AddItemQuantity(apples, q)
	}
	var sum float64
	for _, it := range c.Items() {
		sum += it.Quantity
	}
	q, _ := c.Quantity(apples)
	require.InDelta(t, sum, q, 1e-9)
}
