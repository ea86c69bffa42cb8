package repositories

import (
	"context"
	"time"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/storage"
)

// CheckoutRepository persists the checkout record so that a held order id
// survives navigation and restarts.
type CheckoutRepository struct {
	backend storage.Backend
	now     func() time.Time
}

// NewCheckoutRepository creates a new checkout repository
func NewCheckoutRepository(backend storage.Backend) *CheckoutRepository {
	return &CheckoutRepository{backend: backend, now: time.Now}
}

// Get returns the session's record, or a fresh Idle record
func (r *CheckoutRepository) Get(ctx context.Context, sessionID string) (*models.CheckoutRecord, error) {
	rec := models.NewCheckoutRecord()
	found, err := loadJSON(ctx, r.backend, storage.NamespaceCheckout, sessionID, rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return models.NewCheckoutRecord(), nil
	}
	return rec, nil
}

// Save stores the record
func (r *CheckoutRepository) Save(ctx context.Context, sessionID string, rec *models.CheckoutRecord) error {
	rec.UpdatedAt = r.now().UTC()
	return saveJSON(ctx, r.backend, storage.NamespaceCheckout, sessionID, rec)
}

// Reset drops the record; the next Get yields Idle
func (r *CheckoutRepository) Reset(ctx context.Context, sessionID string) error {
	return r.backend.Delete(ctx, storage.NamespaceCheckout, sessionID)
}
