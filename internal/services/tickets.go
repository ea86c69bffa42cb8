package services

import (
	"context"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
)

// DefaultQRSize is the edge length of rendered ticket QR codes in pixels
const DefaultQRSize = 256

// TicketService retrieves the tickets issued to a session
type TicketService struct {
	api         TicketAPI
	credentials CredentialStore
}

// NewTicketService creates a new ticket service
func NewTicketService(api TicketAPI, credentials CredentialStore) *TicketService {
	return &TicketService{api: api, credentials: credentials}
}

// ListTickets returns the session's tickets. Without a credential it fails
// with ErrAuthRequired and sends nothing.
func (s *TicketService) ListTickets(ctx context.Context, sessionID string) ([]models.Ticket, error) {
	token, ok, err := s.credentials.GetCredential(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrAuthRequired
	}

	tickets, err := s.api.MyTickets(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}
	return tickets, nil
}

// GetTicket returns one of the session's tickets
func (s *TicketService) GetTicket(ctx context.Context, sessionID, ticketID string) (*models.Ticket, error) {
	tickets, err := s.ListTickets(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return models.FindTicket(tickets, ticketID)
}

// QRCode renders the ticket's opaque QR payload as a PNG
func (s *TicketService) QRCode(ctx context.Context, sessionID, ticketID string, size int) ([]byte, error) {
	ticket, err := s.GetTicket(ctx, sessionID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.QRCodeData == "" {
		return nil, fmt.Errorf("ticket %s has no QR data", ticketID)
	}
	if size <= 0 {
		size = DefaultQRSize
	}

	png, err := qrcode.Encode(ticket.QRCodeData, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}
