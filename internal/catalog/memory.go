package catalog

import (
	"context"
	"sort"
	"sync"
)

// Listing is a product together with its unit price.
type Listing struct {
	Product   Product `json:"product"`
	UnitPrice float64 `json:"unitPrice"`
}

// Memory is an in-process catalog. The zero value is ready to use.
type Memory struct {
	mu     sync.RWMutex
	prices map[Product]float64
}

// NewMemory returns a catalog pre-populated with the given listings.
func NewMemory(listings ...Listing) *Memory {
	m := &Memory{}
	for _, l := range listings {
		m.AddProduct(l.Product, l.UnitPrice)
	}
	return m
}

// AddProduct sets the unit price for p, replacing any previous price.
func (m *Memory) AddProduct(p Product, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prices == nil {
		m.prices = make(map[Product]float64)
	}
	m.prices[p] = price
}

// UnitPrice implements Catalog.
func (m *Memory) UnitPrice(_ context.Context, p Product) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	price, ok := m.prices[p]
	if !ok {
		return 0, priceNotFound(p)
	}
	return price, nil
}

// Products returns every listing sorted by name then unit.
func (m *Memory) Products(_ context.Context) ([]Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Listing, 0, len(m.prices))
	for p, price := range m.prices {
		out = append(out, Listing{Product: p, UnitPrice: price})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Product.Name != out[j].Product.Name {
			return out[i].Product.Name < out[j].Product.Name
		}
		return out[i].Product.Unit < out[j].Product.Unit
	})
	return out, nil
}
