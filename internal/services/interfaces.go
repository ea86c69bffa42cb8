package services

import (
	"context"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
)

// CatalogAPI defines the read-only catalog calls of the remote API
type CatalogAPI interface {
	ListEvents(ctx context.Context, filter models.EventFilter) ([]models.EventSummary, error)
	GetEvent(ctx context.Context, id string) (*models.EventDetail, error)
}

// AuthAPI defines the identity calls of the remote API
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context, token string) (*models.Identity, error)
}

// OrderAPI defines the calls the checkout orchestrator issues
type OrderAPI interface {
	PriceCheck(ctx context.Context, items []models.CartItem) (*models.PriceQuote, error)
	CreateOrder(ctx context.Context, token string, req models.OrderRequest, idempotencyKey string) (*models.Order, error)
	ConfirmOrder(ctx context.Context, token, orderID string) (*models.Order, error)
}

// TicketAPI defines the ticket retrieval call of the remote API
type TicketAPI interface {
	MyTickets(ctx context.Context, token string) ([]models.Ticket, error)
}

// EventAPI is the full remote API; *apiclient.Client implements it
type EventAPI interface {
	CatalogAPI
	AuthAPI
	OrderAPI
	TicketAPI
}

// CredentialStore holds the bearer credential of each session
type CredentialStore interface {
	SetCredential(ctx context.Context, sessionID, token string) error
	GetCredential(ctx context.Context, sessionID string) (string, bool, error)
	ClearCredential(ctx context.Context, sessionID string) error
}

// CartStore holds the cart of each session
type CartStore interface {
	SetCart(ctx context.Context, sessionID string, items []models.CartItem) error
	GetCart(ctx context.Context, sessionID string) (models.Cart, error)
	ClearCart(ctx context.Context, sessionID string) error
}

// CheckoutStore persists the checkout record of each session
type CheckoutStore interface {
	Get(ctx context.Context, sessionID string) (*models.CheckoutRecord, error)
	Save(ctx context.Context, sessionID string, rec *models.CheckoutRecord) error
	Reset(ctx context.Context, sessionID string) error
}
