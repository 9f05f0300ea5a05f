package app

import (
	"github.com/noah-isme/supermarket/internal/catalog"
	"github.com/noah-isme/supermarket/internal/offer"
)

// DefaultListings is the starter catalog served without a database and
// written by the seeder.
func DefaultListings() []catalog.Listing {
	return []catalog.Listing{
		{Product: catalog.Product{Name: "apples", Unit: catalog.Kilo}, UnitPrice: 1.99},
		{Product: catalog.Product{Name: "toothbrush", Unit: catalog.Each}, UnitPrice: 0.99},
	}
}

// DefaultOffers accompany DefaultListings.
func DefaultOffers() []offer.Offer {
	return []offer.Offer{
		{Type: offer.ThreeForTwo, Product: catalog.Product{Name: "toothbrush", Unit: catalog.Each}},
		{Type: offer.TenPercentDiscount, Product: catalog.Product{Name: "apples", Unit: catalog.Kilo}, Argument: 10},
	}
}
