package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key is missing or expired
var ErrNotFound = errors.New("storage: key not found")

// Namespaces used by the repositories
const (
	NamespaceCredential = "credential"
	NamespaceCart       = "cart"
	NamespaceCheckout   = "checkout"
)

// Backend is a small key/value store for session-scoped client state.
// Values are opaque bytes; callers encode them.
type Backend interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Put(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
	Close() error
}

// Pinger is implemented by backends that sit behind a network connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks the backend is reachable. Backends without a connection are
// always ready.
func Ping(ctx context.Context, backend Backend) error {
	if p, ok := backend.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
