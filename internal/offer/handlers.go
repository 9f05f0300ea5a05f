package offer

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/supermarket/internal/catalog"
	"github.com/noah-isme/supermarket/internal/common"
)

// Saver persists offers installed through the admin endpoint.
type Saver interface {
	Save(ctx context.Context, o Offer) error
}

// Handler exposes offer listing and administration. When Store is set an
// offer is persisted before it becomes visible to checkouts.
type Handler struct {
	Registry *Registry
	Store    Saver
}

type setRequest struct {
	Type     string  `json:"type" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Unit     string  `json:"unit" validate:"required"`
	Argument float64 `json:"argument"`
}

// List handles GET /api/v1/offers.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	if h.Registry == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "offer registry not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Registry.List()})
}

// Set handles PUT /api/v1/admin/offers. The argument is stored as sent.
func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	if h.Registry == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "offer registry not configured", nil)
		return
	}
	var req setRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	t, err := ParseType(req.Type)
	if err != nil {
		common.WriteError(w, common.BadRequest("unknown offer type", err))
		return
	}
	unit, err := catalog.ParseUnit(req.Unit)
	if err != nil {
		common.WriteError(w, common.BadRequest("unknown unit", err))
		return
	}
	product := catalog.Product{Name: req.Name, Unit: unit}
	if h.Store != nil {
		if err := h.Store.Save(r.Context(), Offer{Type: t, Product: product, Argument: req.Argument}); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("persist offer")
			common.WriteError(w, err)
			return
		}
	}
	h.Registry.Set(t, product, req.Argument)
	zerolog.Ctx(r.Context()).Info().
		Str("product", product.Name).
		Str("unit", unit.String()).
		Str("offer_type", t.String()).
		Float64("argument", req.Argument).
		Msg("offer installed")

	o, _ := h.Registry.Lookup(product)
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}
