package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/catalog-sync/internal/config"
	"github.com/stacklok/catalog-sync/internal/db"
	"github.com/stacklok/catalog-sync/internal/sync/state"
)

// DatabaseFactory creates PostgreSQL-backed storage components
type DatabaseFactory struct {
	config *config.Config
	pool   *pgxpool.Pool
}

var _ Factory = (*DatabaseFactory)(nil)

// NewDatabaseFactory connects to the configured database. The schema is
// expected to be migrated with `catalog-sync migrate up`.
func NewDatabaseFactory(ctx context.Context, cfg *config.Config) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required for database storage type")
	}

	slog.Info("Creating database-backed storage factory")

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	return &DatabaseFactory{config: cfg, pool: pool}, nil
}

// newDatabaseFactoryWithPool wraps an existing pool
func newDatabaseFactoryWithPool(cfg *config.Config, pool *pgxpool.Pool) *DatabaseFactory {
	return &DatabaseFactory{config: cfg, pool: pool}
}

// CreateStateService creates a database-backed run status service
func (d *DatabaseFactory) CreateStateService(_ context.Context) (state.RunStateService, error) {
	slog.Debug("Creating database-backed state service")
	return state.NewStateService(d.config, nil, d.pool)
}

// CreateStore creates a database-backed product state store
func (d *DatabaseFactory) CreateStore(_ context.Context) (state.Store, error) {
	slog.Debug("Creating database-backed product state store")
	return state.NewStore(d.config, d.pool)
}

// Cleanup closes the database connection pool
func (d *DatabaseFactory) Cleanup() {
	if d.pool != nil {
		slog.Info("Closing database connection pool")
		d.pool.Close()
	}
}
