package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/middleware"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/services"
)

// QR edge length bounds accepted from the size query parameter
const (
	minQRSize = 64
	maxQRSize = 1024
)

// TicketHandler serves the session's tickets
type TicketHandler struct {
	tickets *services.TicketService
	log     logrus.FieldLogger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(tickets *services.TicketService, log logrus.FieldLogger) *TicketHandler {
	return &TicketHandler{
		tickets: tickets,
		log:     log.WithField("component", "handlers.tickets"),
	}
}

// ListTickets handles GET /api/tickets
func (h *TicketHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.tickets.ListTickets(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tickets": tickets})
}

// QRCode handles GET /api/tickets/{id}/qr.png
func (h *TicketHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	size := services.DefaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			middleware.WriteError(w, http.StatusBadRequest, "invalid_input",
				"size must be between "+strconv.Itoa(minQRSize)+" and "+strconv.Itoa(maxQRSize))
			return
		}
		size = n
	}

	png, err := h.tickets.QRCode(r.Context(), middleware.SessionIDFromContext(r.Context()), chi.URLParam(r, "id"), size)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
