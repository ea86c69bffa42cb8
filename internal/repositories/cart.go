package repositories

import (
	"context"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/storage"
)

// CartRepository keeps the in-progress selection of each browser session.
// It does not validate items; the server does on price-check.
type CartRepository struct {
	backend storage.Backend
}

// NewCartRepository creates a new cart repository
func NewCartRepository(backend storage.Backend) *CartRepository {
	return &CartRepository{backend: backend}
}

// SetCart overwrites the session's cart in full
func (r *CartRepository) SetCart(ctx context.Context, sessionID string, items []models.CartItem) error {
	if len(items) == 0 {
		return r.ClearCart(ctx, sessionID)
	}
	cart := models.Cart{Items: items}
	return saveJSON(ctx, r.backend, storage.NamespaceCart, sessionID, cart.Clone())
}

// GetCart returns the session's cart; an unknown session has an empty cart
func (r *CartRepository) GetCart(ctx context.Context, sessionID string) (models.Cart, error) {
	var cart models.Cart
	if _, err := loadJSON(ctx, r.backend, storage.NamespaceCart, sessionID, &cart); err != nil {
		return models.Cart{}, err
	}
	return cart, nil
}

// ClearCart empties the session's cart
func (r *CartRepository) ClearCart(ctx context.Context, sessionID string) error {
	return r.backend.Delete(ctx, storage.NamespaceCart, sessionID)
}
