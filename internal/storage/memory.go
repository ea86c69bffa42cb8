package storage

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryBackend keeps state in process memory. State is lost on restart.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryBackend creates an in-memory backend. A zero ttl keeps entries forever.
func NewMemoryBackend(ttl time.Duration) *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func memoryKey(namespace, key string) string {
	return namespace + "\x00" + key
}

func (b *MemoryBackend) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	b.mu.RLock()
	entry, ok := b.entries[memoryKey(namespace, key)]
	b.mu.RUnlock()

	if !ok || b.expired(entry) {
		return nil, ErrNotFound
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

func (b *MemoryBackend) Put(ctx context.Context, namespace, key string, value []byte) error {
	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if b.ttl > 0 {
		entry.expiresAt = b.now().Add(b.ttl)
	}

	b.mu.Lock()
	b.entries[memoryKey(namespace, key)] = entry
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Delete(ctx context.Context, namespace, key string) error {
	b.mu.Lock()
	delete(b.entries, memoryKey(namespace, key))
	b.mu.Unlock()
	return nil
}

// PurgeExpired drops expired entries and returns how many were removed
func (b *MemoryBackend) PurgeExpired(ctx context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var removed int64
	for k, entry := range b.entries {
		if b.expired(entry) {
			delete(b.entries, k)
			removed++
		}
	}
	return removed, nil
}

func (b *MemoryBackend) Close() error {
	return nil
}

func (b *MemoryBackend) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !b.now().Before(entry.expiresAt)
}
