package fakeapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
)

type fakeEvent struct {
	detail    models.EventDetail
	city      string
	category  models.Category
	venueName string
}

func (e *fakeEvent) summary() models.EventSummary {
	summary := models.EventSummary{
		ID:        e.detail.ID,
		Title:     e.detail.Title,
		VenueName: e.venueName,
	}

	lowest := -1
	for _, inst := range e.detail.Instances {
		summary.UpcomingInstances = append(summary.UpcomingInstances, models.InstanceTime{StartTime: inst.StartTime})
		for _, tt := range inst.TicketTypes {
			if lowest < 0 || tt.PriceCents < lowest {
				lowest = tt.PriceCents
			}
		}
	}
	if lowest > 0 {
		summary.StartingPriceCents = lowest
	}
	return summary
}

func (e *fakeEvent) matches(city, search string, category models.Category) bool {
	if city != "" && !strings.EqualFold(e.city, city) {
		return false
	}
	if category != "" && e.category != category {
		return false
	}
	if search != "" {
		needle := strings.ToLower(search)
		haystack := strings.ToLower(e.detail.Title + " " + e.detail.Description + " " + e.venueName)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

// EventFixture describes an event to add to the catalog
type EventFixture struct {
	City      string
	Category  models.Category
	VenueName string
	Detail    models.EventDetail
}

// AddEvent registers an event and its ticket types. Ticket type ids must be
// unique across the catalog.
func (s *Server) AddEvent(fixture EventFixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addEventLocked(fixture)
}

func (s *Server) addEventLocked(fixture EventFixture) error {
	for _, existing := range s.events {
		if existing.detail.ID == fixture.Detail.ID {
			return fmt.Errorf("event %s already exists", fixture.Detail.ID)
		}
	}

	event := &fakeEvent{
		detail:    fixture.Detail,
		city:      fixture.City,
		category:  fixture.Category,
		venueName: fixture.VenueName,
	}

	for i := range event.detail.Instances {
		inst := &event.detail.Instances[i]
		for j, tt := range inst.TicketTypes {
			if _, exists := s.ticketTypes[tt.ID]; exists {
				return fmt.Errorf("ticket type %s already exists", tt.ID)
			}
			s.ticketTypes[tt.ID] = ticketTypeRef{event: event, instance: inst, index: j}
		}
	}

	s.events = append(s.events, event)
	return nil
}

// SetCapacity overrides the remaining capacity of a ticket type
func (s *Server) SetCapacity(ticketTypeID string, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref, ok := s.ticketTypes[ticketTypeID]; ok {
		ref.instance.TicketTypes[ref.index].RemainingCapacity = remaining
	}
}

// Capacity returns the remaining capacity of a ticket type
func (s *Server) Capacity(ticketTypeID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref, ok := s.ticketTypes[ticketTypeID]; ok {
		return ref.instance.TicketTypes[ref.index].RemainingCapacity
	}
	return 0
}

func (s *Server) ticketType(id string) (ticketTypeRef, *models.TicketType, bool) {
	ref, ok := s.ticketTypes[id]
	if !ok {
		return ticketTypeRef{}, nil, false
	}
	return ref, &ref.instance.TicketTypes[ref.index], true
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	category, err := models.ParseCategory(query.Get("category"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_category", err.Error())
		return
	}

	s.mu.Lock()
	events := make([]models.EventSummary, 0, len(s.events))
	for _, e := range s.events {
		if e.matches(query.Get("city"), query.Get("search"), category) {
			events = append(events, e.summary())
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.events {
		if e.detail.ID == id {
			writeJSON(w, http.StatusOK, e.detail)
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", "event not found")
}

// seed loads a small Austin catalog and the demo account
func (s *Server) seed() error {
	base := time.Now().UTC().Truncate(time.Hour).Add(7 * 24 * time.Hour)

	fixtures := []EventFixture{
		{
			City:      "Austin",
			Category:  models.CategoryMusic,
			VenueName: "Mohawk",
			Detail: models.EventDetail{
				ID:          "e1",
				Title:       "Neon Nights Live",
				Description: "Synth-pop double bill on the outdoor stage.",
				Instances: []models.EventInstance{
					{
						ID:        "i1",
						StartTime: base,
						TicketTypes: []models.TicketType{
							{ID: "tt1", Name: "General Admission", PriceCents: 2000, RemainingCapacity: 150},
							{ID: "tt2", Name: "VIP", PriceCents: 6500, RemainingCapacity: 20},
						},
					},
					{
						ID:        "i2",
						StartTime: base.Add(24 * time.Hour),
						TicketTypes: []models.TicketType{
							{ID: "tt3", Name: "General Admission", PriceCents: 2000, RemainingCapacity: 150},
						},
					},
				},
			},
		},
		{
			City:      "Austin",
			Category:  models.CategoryComedy,
			VenueName: "Cap City Comedy Club",
			Detail: models.EventDetail{
				ID:          "e2",
				Title:       "Late Show Standup",
				Description: "Five comics, one mic, no filter.",
				Instances: []models.EventInstance{
					{
						ID:        "i3",
						StartTime: base.Add(2 * 24 * time.Hour),
						TicketTypes: []models.TicketType{
							{ID: "tt4", Name: "Seat", PriceCents: 1800, RemainingCapacity: 80},
						},
					},
				},
			},
		},
		{
			City:      "Austin",
			Category:  models.CategoryWorkshop,
			VenueName: "East Side Studio",
			Detail: models.EventDetail{
				ID:          "e3",
				Title:       "Screen Printing Workshop",
				Description: "Print your own tote in two hours.",
				Instances: []models.EventInstance{
					{
						ID:        "i4",
						StartTime: base.Add(3 * 24 * time.Hour),
						TicketTypes: []models.TicketType{
							{ID: "tt5", Name: "Participant", PriceCents: 4500, RemainingCapacity: 12},
						},
					},
				},
			},
		},
		{
			City:      "Denver",
			Category:  models.CategoryTheatre,
			VenueName: "Buell Theatre",
			Detail: models.EventDetail{
				ID:          "e4",
				Title:       "Midsummer in the Round",
				Description: "Shakespeare, reimagined.",
				Instances: []models.EventInstance{
					{
						ID:        "i5",
						StartTime: base.Add(4 * 24 * time.Hour),
						TicketTypes: []models.TicketType{
							{ID: "tt6", Name: "Orchestra", PriceCents: 5500, RemainingCapacity: 200},
						},
					},
				},
			},
		},
	}

	s.mu.Lock()
	for _, fixture := range fixtures {
		if err := s.addEventLocked(fixture); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	_, err := s.AddUser("jane@example.com", "Jane Doe", "password")
	return err
}
