package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/storage"
)

// CredentialRepository holds the bearer credential of each browser session.
// A credential is either present or absent; expiry is the server's concern.
type CredentialRepository struct {
	backend storage.Backend
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(backend storage.Backend) *CredentialRepository {
	return &CredentialRepository{backend: backend}
}

// SetCredential stores the token for the session, replacing any previous one
func (r *CredentialRepository) SetCredential(ctx context.Context, sessionID, token string) error {
	if token == "" {
		return errors.New("credential cannot be empty")
	}
	if err := r.backend.Put(ctx, storage.NamespaceCredential, sessionID, []byte(token)); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// GetCredential returns the token and whether one is present
func (r *CredentialRepository) GetCredential(ctx context.Context, sessionID string) (string, bool, error) {
	raw, err := r.backend.Get(ctx, storage.NamespaceCredential, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load credential: %w", err)
	}
	if len(raw) == 0 {
		return "", false, nil
	}
	return string(raw), true, nil
}

// ClearCredential forgets the session's token
func (r *CredentialRepository) ClearCredential(ctx context.Context, sessionID string) error {
	if err := r.backend.Delete(ctx, storage.NamespaceCredential, sessionID); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}
