package checkout

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/supermarket/internal/cart"
	"github.com/noah-isme/supermarket/internal/catalog"
	"github.com/noah-isme/supermarket/internal/common"
	"github.com/noah-isme/supermarket/internal/receipt"
)

// ReceiptQueue hands receipts to the background printer.
type ReceiptQueue interface {
	EnqueueReceipt(ctx context.Context, r *receipt.Receipt) error
}

// Handler exposes the checkout endpoint.
type Handler struct {
	Teller  *Teller
	Printer receipt.Printer
	Queue   ReceiptQueue
}

type lineRequest struct {
	Name     string   `json:"name" validate:"required"`
	Unit     string   `json:"unit" validate:"required"`
	Quantity *float64 `json:"quantity"`
}

type checkoutRequest struct {
	Items []lineRequest `json:"items" validate:"dive"`
	Print bool          `json:"print"`
}

type checkoutResponse struct {
	Receipt *receipt.Receipt `json:"receipt"`
	Total   float64          `json:"total"`
	Text    string           `json:"text"`
	Queued  bool             `json:"queued"`
}

// Checkout handles POST /api/v1/checkout. A line without a quantity counts
// as one unit; quantities are otherwise taken as sent, including zero and
// negative values.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Teller == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "checkout not configured", nil)
		return
	}
	var req checkoutRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := buildCart(req.Items)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	rec, err := h.Teller.Checkout(r.Context(), c)
	if err != nil {
		if errors.Is(err, catalog.ErrPriceNotFound) {
			common.WriteError(w, common.Unprocessable(common.CodePriceNotFound, err.Error(), err))
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("checkout failed")
		common.WriteError(w, err)
		return
	}

	if !rec.Finite() {
		zerolog.Ctx(r.Context()).Warn().Str("receipt_id", rec.ID.String()).Msg("checkout amounts overflow")
		common.WriteError(w, common.Unprocessable(common.CodeOutOfRange, "receipt amounts are not finite", nil))
		return
	}

	resp := checkoutResponse{Receipt: rec, Total: rec.TotalPrice(), Text: h.Printer.Print(rec)}
	if req.Print && h.Queue != nil {
		if err := h.Queue.EnqueueReceipt(r.Context(), rec); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Str("receipt_id", rec.ID.String()).Msg("enqueue receipt print")
		} else {
			resp.Queued = true
		}
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": resp})
}

func buildCart(lines []lineRequest) (*cart.ShoppingCart, error) {
	c := cart.New()
	for _, line := range lines {
		unit, err := catalog.ParseUnit(line.Unit)
		if err != nil {
			return nil, common.BadRequest("unknown unit", err)
		}
		p := catalog.Product{Name: line.Name, Unit: unit}
		if line.Quantity == nil {
			c.AddItem(p)
			continue
		}
		c.AddItemQuantity(p, *line.Quantity)
	}
	return c, nil
}
