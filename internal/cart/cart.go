package cart

import "github.com/noah-isme/supermarket/internal/catalog"

// Item is a single addition to a cart.
type Item struct {
	Product  catalog.Product `json:"product"`
	Quantity float64         `json:"quantity"`
}

// ShoppingCart keeps every added item in insertion order together with the
// running quantity per product. Quantities are accepted as given: zero and
// negative amounts are valid input.
type ShoppingCart struct {
	items      []Item
	quantities map[catalog.Product]float64
	order      []catalog.Product
}

// New returns an empty cart.
func New() *ShoppingCart {
	return &ShoppingCart{quantities: make(map[catalog.Product]float64)}
}

// AddItem adds a single unit of p.
func (c *ShoppingCart) AddItem(p catalog.Product) {
	c.AddItemQuantity(p, 1)
}

// AddItemQuantity appends a line for p and adds quantity to its running total.
func (c *ShoppingCart) AddItemQuantity(p catalog.Product, quantity float64) {
	if c.quantities == nil {
		c.quantities = make(map[catalog.Product]float64)
	}
	c.items = append(c.items, Item{Product: p, Quantity: quantity})
	if _, ok := c.quantities[p]; !ok {
		c.order = append(c.order, p)
	}
	c.quantities[p] += quantity
}

// Items returns a copy of the added items in insertion order.
func (c *ShoppingCart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// ProductQuantities returns a copy of the aggregated quantity per product.
func (c *ShoppingCart) ProductQuantities() map[catalog.Product]float64 {
	out := make(map[catalog.Product]float64, len(c.quantities))
	for p, q := range c.quantities {
		out[p] = q
	}
	return out
}

// Products lists aggregated products in order of first addition.
func (c *ShoppingCart) Products() []catalog.Product {
	out := make([]catalog.Product, len(c.order))
	copy(out, c.order)
	return out
}

// Quantity returns the aggregated quantity for p.
func (c *ShoppingCart) Quantity(p catalog.Product) (float64, bool) {
	q, ok := c.quantities[p]
	return q, ok
}
