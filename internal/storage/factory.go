package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/config"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/database"
)

// Purger is implemented by backends that need expired entries swept
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Factory creates the configured storage backend
type Factory struct {
	config *config.Config
	log    logrus.FieldLogger
}

// NewFactory creates a new storage factory
func NewFactory(cfg *config.Config, log logrus.FieldLogger) *Factory {
	return &Factory{config: cfg, log: log}
}

// Create opens the backend selected by STORE_DRIVER. SQL backends are migrated
// before use.
func (f *Factory) Create(ctx context.Context) (Backend, error) {
	ttl := f.config.Store.TTL
	log := f.log.WithField("driver", f.config.Store.Driver)

	switch f.config.Store.Driver {
	case "memory":
		log.Warn("using in-memory state store; checkout state is lost on restart")
		return NewMemoryBackend(ttl), nil

	case "sqlite", "postgres":
		db, err := database.NewConnection(f.DatabaseConfig(), f.log)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate state store: %w", err)
		}
		log.Info("SQL state store ready")
		return NewSQLBackend(db, ttl), nil

	case "redis":
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		backend, err := NewRedisBackend(ctx, f.config.Redis.URL, ttl)
		if err != nil {
			return nil, err
		}
		log.Info("redis state store ready")
		return backend, nil
	}

	return nil, fmt.Errorf("unsupported store driver %q", f.config.Store.Driver)
}

// DatabaseConfig returns the connection settings for the SQL drivers
func (f *Factory) DatabaseConfig() database.Config {
	db := f.config.Database
	driver := database.DriverPostgres
	if f.config.Store.Driver == "sqlite" {
		driver = database.DriverSQLite
	}

	return database.Config{
		Driver:     driver,
		URL:        db.URL,
		Host:       db.Host,
		Port:       db.Port,
		User:       db.User,
		Password:   db.Password,
		DBName:     db.DBName,
		SSLMode:    db.SSLMode,
		SQLitePath: db.SQLitePath,
	}
}

// RunJanitor purges expired entries every interval until ctx is done. Backends
// that expire keys on their own are left alone.
func RunJanitor(ctx context.Context, backend Backend, interval time.Duration, log logrus.FieldLogger) {
	purger, ok := backend.(Purger)
	if !ok {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := purger.PurgeExpired(ctx)
			if err != nil {
				log.WithError(err).Warn("failed to purge expired state")
				continue
			}
			if removed > 0 {
				log.WithField("removed", removed).Debug("purged expired state")
			}
		}
	}
}
