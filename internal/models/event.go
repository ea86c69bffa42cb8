package models

import "time"

// EventFilter narrows the event listing
type EventFilter struct {
	City     string
	Search   string
	Category Category
}

// InstanceTime is the start time of an upcoming occurrence in a listing
type InstanceTime struct {
	StartTime time.Time `json:"start_time"`
}

// EventSummary is one entry of the event listing
type EventSummary struct {
	ID                 string         `json:"id"`
	Title              string         `json:"title"`
	VenueName          string         `json:"venue_name"`
	StartingPriceCents int            `json:"starting_price_cents"`
	UpcomingInstances  []InstanceTime `json:"upcoming_instances"`
}

// StartingPrice returns the formatted lowest ticket price
func (e EventSummary) StartingPrice() string {
	return FormatCents(e.StartingPriceCents)
}

// EventDetail is the full view of one event
type EventDetail struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Instances   []EventInstance `json:"instances"`
}

// EventInstance is one scheduled occurrence of an event
type EventInstance struct {
	ID          string       `json:"id"`
	StartTime   time.Time    `json:"start_time"`
	TicketTypes []TicketType `json:"ticket_types"`
}

// TicketType is a purchasable class of admission for an instance
type TicketType struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	PriceCents        int    `json:"price_cents"`
	RemainingCapacity int    `json:"remaining_capacity"`
}

// IsSoldOut checks if no capacity remains
func (t TicketType) IsSoldOut() bool {
	return t.RemainingCapacity <= 0
}

// Price returns the formatted ticket price
func (t TicketType) Price() string {
	return FormatCents(t.PriceCents)
}

// FindTicketType looks a ticket type up across all instances of the event
func (e *EventDetail) FindTicketType(id string) (*EventInstance, *TicketType, bool) {
	for i := range e.Instances {
		inst := &e.Instances[i]
		for j := range inst.TicketTypes {
			if inst.TicketTypes[j].ID == id {
				return inst, &inst.TicketTypes[j], true
			}
		}
	}
	return nil, nil, false
}
