package catalog

import (
	"context"
	"net/http"

	"github.com/noah-isme/supermarket/internal/common"
)

// Lister enumerates catalog listings for presentation.
type Lister interface {
	Products(ctx context.Context) ([]Listing, error)
}

// Handler exposes public catalog endpoints.
type Handler struct {
	Products Lister
}

// List handles GET /api/v1/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Products == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	rows, err := h.Products.Products(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if rows == nil {
		rows = []Listing{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}
