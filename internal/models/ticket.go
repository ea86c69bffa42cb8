package models

import "time"

// Ticket is proof of a confirmed purchase
type Ticket struct {
	ID             string         `json:"id"`
	Event          TicketEvent    `json:"event"`
	Venue          TicketVenue    `json:"venue"`
	TicketTypeName string         `json:"ticket_type_name"`
	Instance       TicketInstance `json:"instance"`
	QRCodeData     string         `json:"qr_code_data"`
}

// TicketEvent references the event a ticket admits to
type TicketEvent struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
}

// TicketVenue references the venue of the event
type TicketVenue struct {
	Name string `json:"name"`
}

// TicketInstance references the occurrence a ticket is valid for
type TicketInstance struct {
	ID        string    `json:"id,omitempty"`
	StartTime time.Time `json:"start_time"`
}

// FindTicket returns the ticket with the given id
func FindTicket(tickets []Ticket, id string) (*Ticket, error) {
	for i := range tickets {
		if tickets[i].ID == id {
			return &tickets[i], nil
		}
	}
	return nil, ErrTicketNotFound
}
