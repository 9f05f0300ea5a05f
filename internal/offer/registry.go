package offer

import (
	"sort"
	"sync"

	"github.com/noah-isme/supermarket/internal/catalog"
)

// Registry holds at most one offer per product.
type Registry struct {
	mu     sync.RWMutex
	offers map[catalog.Product]Offer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{offers: make(map[catalog.Product]Offer)}
}

// Set installs the offer for product, replacing any existing one.
func (r *Registry) Set(t Type, product catalog.Product, argument float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.offers == nil {
		r.offers = make(map[catalog.Product]Offer)
	}
	r.offers[product] = Offer{Type: t, Product: product, Argument: argument}
}

// Lookup returns the offer installed for product, if any.
func (r *Registry) Lookup(product catalog.Product) (Offer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.offers[product]
	return o, ok
}

// List returns all offers sorted by product name then unit.
func (r *Registry) List() []Offer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Offer, 0, len(r.offers))
	for _, o := range r.offers {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Product.Name != out[j].Product.Name {
			return out[i].Product.Name < out[j].Product.Name
		}
		return out[i].Product.Unit < out[j].Product.Unit
	})
	return out
}
