package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/middleware"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/services"
)

// CartHandler handles the session's shopping cart
type CartHandler struct {
	carts services.CartStore
	log   logrus.FieldLogger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts services.CartStore, log logrus.FieldLogger) *CartHandler {
	return &CartHandler{
		carts: carts,
		log:   log.WithField("component", "handlers.cart"),
	}
}

type cartRequest struct {
	Items []models.CartItem `json:"items" validate:"max=50,dive"`
}

type cartView struct {
	Items         []models.CartItem `json:"items"`
	TotalQuantity int               `json:"total_quantity"`
}

func newCartView(cart models.Cart) cartView {
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return cartView{Items: items, TotalQuantity: cart.TotalQuantity()}
}

// ViewCart handles GET /api/cart
func (h *CartHandler) ViewCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetCart(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, newCartView(cart))
}

// ReplaceCart handles PUT /api/cart. The body replaces the whole cart.
func (h *CartHandler) ReplaceCart(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	for _, item := range req.Items {
		if err := item.Validate(); err != nil {
			respondError(w, r, h.log, err)
			return
		}
	}

	sessionID := middleware.SessionIDFromContext(r.Context())
	if err := h.carts.SetCart(r.Context(), sessionID, req.Items); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, newCartView(models.Cart{Items: req.Items}))
}

// ClearCart handles DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.ClearCart(r.Context(), middleware.SessionIDFromContext(r.Context())); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
