package state

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/catalog-sync/internal/config"
	"github.com/stacklok/catalog-sync/internal/status"
)

// NewStateService creates a RunStateService for the configured storage type.
// The pool must not be nil when database storage is configured.
func NewStateService(
	cfg *config.Config,
	statusPersistence status.StatusPersistence,
	pool *pgxpool.Pool,
) (RunStateService, error) {
	switch cfg.GetStorageType() {
	case config.StorageTypeDatabase:
		if pool == nil {
			return nil, fmt.Errorf("database pool is required when storage type is database")
		}
		return NewDBStateService(pool), nil
	case config.StorageTypeFile:
		if statusPersistence == nil {
			return nil, fmt.Errorf("status persistence is required when storage type is file")
		}
		return NewFileStateService(statusPersistence), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.GetStorageType())
	}
}

// NewStore creates the product sync state Store for the configured storage type
func NewStore(cfg *config.Config, pool *pgxpool.Pool) (Store, error) {
	switch cfg.GetStorageType() {
	case config.StorageTypeDatabase:
		if pool == nil {
			return nil, fmt.Errorf("database pool is required when storage type is database")
		}
		return NewDBStore(pool), nil
	case config.StorageTypeFile:
		store, err := NewFileStore(cfg.GetDataDir())
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.GetStorageType())
	}
}
