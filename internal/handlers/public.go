package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/services"
)

// PublicHandler serves the catalog, which needs no login
type PublicHandler struct {
	catalog *services.CatalogService
	log     logrus.FieldLogger
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(catalog *services.CatalogService, log logrus.FieldLogger) *PublicHandler {
	return &PublicHandler{
		catalog: catalog,
		log:     log.WithField("component", "handlers.public"),
	}
}

type eventSummaryView struct {
	models.EventSummary
	StartingPrice string `json:"starting_price"`
}

type ticketTypeView struct {
	models.TicketType
	Price   string `json:"price"`
	SoldOut bool   `json:"sold_out"`
}

type eventInstanceView struct {
	ID          string           `json:"id"`
	StartTime   time.Time        `json:"start_time"`
	TicketTypes []ticketTypeView `json:"ticket_types"`
}

type eventDetailView struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Instances   []eventInstanceView `json:"instances"`
}

func newEventDetailView(event *models.EventDetail) eventDetailView {
	view := eventDetailView{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		Instances:   make([]eventInstanceView, 0, len(event.Instances)),
	}

	for _, inst := range event.Instances {
		iv := eventInstanceView{
			ID:          inst.ID,
			StartTime:   inst.StartTime,
			TicketTypes: make([]ticketTypeView, 0, len(inst.TicketTypes)),
		}
		for _, tt := range inst.TicketTypes {
			iv.TicketTypes = append(iv.TicketTypes, ticketTypeView{
				TicketType: tt,
				Price:      tt.Price(),
				SoldOut:    tt.IsSoldOut(),
			})
		}
		view.Instances = append(view.Instances, iv)
	}
	return view
}

// ListEvents handles GET /api/events?city=&search=&category=
func (h *PublicHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	events, err := h.catalog.ListEvents(r.Context(), services.EventSearchFilters{
		City:     query.Get("city"),
		Search:   query.Get("search"),
		Category: query.Get("category"),
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	views := make([]eventSummaryView, 0, len(events))
	for _, event := range events {
		views = append(views, eventSummaryView{EventSummary: event, StartingPrice: event.StartingPrice()})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"events": views})
}

// GetEvent handles GET /api/events/{id}
func (h *PublicHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.catalog.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, newEventDetailView(event))
}

// Categories handles GET /api/categories
func (h *PublicHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": h.catalog.Categories()})
}
