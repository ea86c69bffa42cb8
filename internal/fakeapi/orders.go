package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/utils"
)

// PaymentProviderTest is the only provider the fake API accepts
const PaymentProviderTest = "test"

type fakeOrder struct {
	order  models.Order
	userID string
}

type itemsRequest struct {
	Items []models.CartItem `json:"items"`
}

// lineError describes why an item cannot be priced
type lineError struct {
	status  int
	code    string
	message string
}

// priceItems computes the subtotal, caller holds mu
func (s *Server) priceItems(items []models.CartItem) (int, *lineError) {
	if len(items) == 0 {
		return 0, &lineError{http.StatusUnprocessableEntity, "empty_cart", "at least one item is required"}
	}

	subtotal := 0
	for _, item := range items {
		if err := item.Quantity.Validate(); err != nil {
			return 0, &lineError{http.StatusUnprocessableEntity, "invalid_quantity", err.Error()}
		}
		_, tt, ok := s.ticketType(item.TicketTypeID)
		if !ok {
			return 0, &lineError{http.StatusUnprocessableEntity, "unknown_ticket_type",
				fmt.Sprintf("unknown ticket type %s", item.TicketTypeID)}
		}
		subtotal += tt.PriceCents * int(item.Quantity)
	}
	return subtotal, nil
}

func (s *Server) serviceFee(subtotal int) int {
	return (subtotal*s.feeBPS + 5000) / 10000
}

func (s *Server) handlePriceCheck(w http.ResponseWriter, r *http.Request) {
	var req itemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	s.mu.Lock()
	subtotal, lineErr := s.priceItems(req.Items)
	s.mu.Unlock()

	if lineErr != nil {
		writeError(w, lineErr.status, lineErr.code, lineErr.message)
		return
	}

	fee := s.serviceFee(subtotal)
	writeJSON(w, http.StatusOK, models.PriceQuote{
		SubtotalCents:   subtotal,
		ServiceFeeCents: fee,
		TotalCents:      subtotal + fee,
	})
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if req.PaymentProvider != PaymentProviderTest {
		writeError(w, http.StatusUnprocessableEntity, "unsupported_provider",
			fmt.Sprintf("unsupported payment provider %q", req.PaymentProvider))
		return
	}

	userID := userIDFrom(r.Context())
	idemKey := r.Header.Get("Idempotency-Key")

	s.mu.Lock()
	defer s.mu.Unlock()

	if idemKey != "" {
		if orderID, seen := s.idempotency[userID+"|"+idemKey]; seen {
			writeJSON(w, http.StatusOK, s.orders[orderID].order)
			return
		}
	}

	subtotal, lineErr := s.priceItems(req.Items)
	if lineErr != nil {
		writeError(w, lineErr.status, lineErr.code, lineErr.message)
		return
	}

	for _, item := range req.Items {
		_, tt, _ := s.ticketType(item.TicketTypeID)
		if tt.RemainingCapacity < int(item.Quantity) {
			writeError(w, http.StatusConflict, "sold_out",
				fmt.Sprintf("%s is sold out", tt.Name))
			return
		}
	}
	for _, item := range req.Items {
		_, tt, _ := s.ticketType(item.TicketTypeID)
		tt.RemainingCapacity -= int(item.Quantity)
	}

	order := &fakeOrder{
		userID: userID,
		order: models.Order{
			ID:              uuid.NewString(),
			Status:          models.OrderPending,
			Items:           append([]models.CartItem(nil), req.Items...),
			PaymentProvider: req.PaymentProvider,
			TotalCents:      subtotal + s.serviceFee(subtotal),
			CreatedAt:       s.now().UTC(),
		},
	}
	s.orders[order.order.ID] = order
	if idemKey != "" {
		s.idempotency[userID+"|"+idemKey] = order.order.ID
	}

	s.log.WithField("order_id", order.order.ID).Debug("order created")
	writeJSON(w, http.StatusCreated, order.order)
}

func (s *Server) handleConfirmOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := userIDFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok || order.userID != userID {
		writeError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}

	switch order.order.Status {
	case models.OrderConfirmed:
		writeJSON(w, http.StatusOK, order.order)
		return
	case models.OrderFailed:
		writeError(w, http.StatusConflict, "order_failed", "order can no longer be confirmed")
		return
	}

	tickets, err := s.issueTickets(order)
	if err != nil {
		s.log.WithError(err).Error("failed to issue tickets")
		writeError(w, http.StatusInternalServerError, "internal", "failed to issue tickets")
		return
	}

	order.order.Status = models.OrderConfirmed
	order.order.ProviderRef = "test_" + order.order.ID[:8]
	s.tickets[userID] = append(s.tickets[userID], tickets...)

	s.log.WithField("order_id", id).Debug("order confirmed")
	writeJSON(w, http.StatusOK, order.order)
}

// issueTickets creates one ticket per admitted quantity, caller holds mu
func (s *Server) issueTickets(order *fakeOrder) ([]models.Ticket, error) {
	var tickets []models.Ticket
	for _, item := range order.order.Items {
		ref, tt, ok := s.ticketType(item.TicketTypeID)
		if !ok {
			return nil, fmt.Errorf("unknown ticket type %s", item.TicketTypeID)
		}
		for i := 0; i < int(item.Quantity); i++ {
			code, err := utils.GenerateSecureToken(24)
			if err != nil {
				return nil, err
			}
			tickets = append(tickets, models.Ticket{
				ID:             uuid.NewString(),
				Event:          models.TicketEvent{ID: ref.event.detail.ID, Title: ref.event.detail.Title},
				Venue:          models.TicketVenue{Name: ref.event.venueName},
				TicketTypeName: tt.Name,
				Instance:       models.TicketInstance{ID: ref.instance.ID, StartTime: ref.instance.StartTime},
				QRCodeData:     "BUZZ-" + code,
			})
		}
	}
	return tickets, nil
}

func (s *Server) handleMyTickets(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	tickets := append([]models.Ticket{}, s.tickets[userIDFrom(r.Context())]...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, tickets)
}

// Order returns a copy of the stored order
func (s *Server) Order(id string) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return models.Order{}, false
	}
	return order.order, true
}

// OrderCount returns how many orders have been created
func (s *Server) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}
