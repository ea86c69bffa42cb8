package handlers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/middleware"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/services"
)

// CheckoutHandler exposes the checkout state machine
type CheckoutHandler struct {
	checkout *services.CheckoutService
	log      logrus.FieldLogger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout *services.CheckoutService, log logrus.FieldLogger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		log:      log.WithField("component", "handlers.checkout"),
	}
}

type transitionFunc func(ctx context.Context, sessionID string) (*models.CheckoutView, error)

func (h *CheckoutHandler) serve(fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := fn(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			respondError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// Status handles GET /api/checkout
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.serve(h.checkout.Status)(w, r)
}

// Open handles POST /api/checkout/open
func (h *CheckoutHandler) Open(w http.ResponseWriter, r *http.Request) {
	h.serve(h.checkout.Open)(w, r)
}

// Pay handles POST /api/checkout/pay
func (h *CheckoutHandler) Pay(w http.ResponseWriter, r *http.Request) {
	h.serve(h.checkout.Pay)(w, r)
}

// Confirm handles POST /api/checkout/confirm
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.serve(h.checkout.Confirm)(w, r)
}

// Retry handles POST /api/checkout/retry
func (h *CheckoutHandler) Retry(w http.ResponseWriter, r *http.Request) {
	h.serve(h.checkout.Retry)(w, r)
}

// Abandon handles POST /api/checkout/abandon
func (h *CheckoutHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	h.serve(h.checkout.Abandon)(w, r)
}
