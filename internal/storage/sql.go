package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/database"
)

const (
	selectStateSQL = `SELECT value, expires_at FROM client_state WHERE namespace = $1 AND state_key = $2`

	upsertStateSQL = `INSERT INTO client_state (namespace, state_key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (namespace, state_key)
		DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at, updated_at = excluded.updated_at`

	deleteStateSQL = `DELETE FROM client_state WHERE namespace = $1 AND state_key = $2`

	purgeStateSQL = `DELETE FROM client_state WHERE expires_at IS NOT NULL AND expires_at <= $1`
)

// SQLBackend stores state in the client_state table. The same statements run
// on PostgreSQL and SQLite.
type SQLBackend struct {
	db  *database.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLBackend creates a backend over an open, migrated database
func NewSQLBackend(db *database.DB, ttl time.Duration) *SQLBackend {
	return &SQLBackend{
		db:  db,
		ttl: ttl,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (b *SQLBackend) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var (
		value     string
		expiresAt sql.NullTime
	)

	err := b.db.QueryRowContext(ctx, selectStateSQL, namespace, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s state: %w", namespace, err)
	}

	if expiresAt.Valid && !b.now().Before(expiresAt.Time) {
		return nil, ErrNotFound
	}

	return []byte(value), nil
}

func (b *SQLBackend) Put(ctx context.Context, namespace, key string, value []byte) error {
	now := b.now()

	var expiresAt sql.NullTime
	if b.ttl > 0 {
		expiresAt = sql.NullTime{Time: now.Add(b.ttl), Valid: true}
	}

	if _, err := b.db.ExecContext(ctx, upsertStateSQL, namespace, key, string(value), expiresAt, now); err != nil {
		return fmt.Errorf("failed to write %s state: %w", namespace, err)
	}
	return nil
}

func (b *SQLBackend) Delete(ctx context.Context, namespace, key string) error {
	if _, err := b.db.ExecContext(ctx, deleteStateSQL, namespace, key); err != nil {
		return fmt.Errorf("failed to delete %s state: %w", namespace, err)
	}
	return nil
}

// PurgeExpired removes expired rows and returns how many were deleted
func (b *SQLBackend) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := b.db.ExecContext(ctx, purgeStateSQL, b.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired state: %w", err)
	}
	return res.RowsAffected()
}

func (b *SQLBackend) Close() error {
	return b.db.Close()
}

// Ping checks the database connection
func (b *SQLBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}
