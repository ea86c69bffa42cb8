package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/storage"
)

// loadJSON decodes the value at namespace/key into dst. It reports false when
// nothing is stored.
func loadJSON(ctx context.Context, backend storage.Backend, namespace, key string, dst interface{}) (bool, error) {
	raw, err := backend.Get(ctx, namespace, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s state: %w", namespace, err)
	}
	return true, nil
}

func saveJSON(ctx context.Context, backend storage.Backend, namespace, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s state: %w", namespace, err)
	}
	return backend.Put(ctx, namespace, key, raw)
}
