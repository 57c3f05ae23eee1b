// Package storage creates the storage-dependent components of the sync as a
// family, so that the run status and the product sync state always live in
// the same backend.
package storage

import (
	"context"
	"fmt"

	"github.com/stacklok/catalog-sync/internal/config"
	"github.com/stacklok/catalog-sync/internal/sync/state"
)

// Factory creates storage-dependent components.
// Implementations ensure all components use the same backend.
type Factory interface {
	// CreateStateService creates the service tracking run status
	CreateStateService(ctx context.Context) (state.RunStateService, error)

	// CreateStore creates the store of per-product fingerprints
	CreateStore(ctx context.Context) (state.Store, error)

	// Cleanup releases any resources held by this factory, e.g. the
	// database connection pool
	Cleanup()
}

// NewStorageFactory creates a storage factory based on the configured storage type
func NewStorageFactory(ctx context.Context, cfg *config.Config) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch cfg.GetStorageType() {
	case config.StorageTypeDatabase:
		return NewDatabaseFactory(ctx, cfg)
	case config.StorageTypeFile:
		return NewFileFactory(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.GetStorageType())
	}
}
