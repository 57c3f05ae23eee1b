package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/stacklok/catalog-sync/internal/config"
	"github.com/stacklok/catalog-sync/internal/status"
	"github.com/stacklok/catalog-sync/internal/sync/state"
)

// FileFactory creates storage components kept under the configured data directory
type FileFactory struct {
	config            *config.Config
	statusPersistence status.StatusPersistence
}

var _ Factory = (*FileFactory)(nil)

// NewFileFactory creates a file-based storage factory, creating the data
// directory when needed
func NewFileFactory(cfg *config.Config) (*FileFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	slog.Info("Creating file-based storage factory", "data_dir", dataDir)

	return &FileFactory{
		config:            cfg,
		statusPersistence: status.NewFileStatusPersistence(dataDir),
	}, nil
}

// CreateStateService creates a file-based run status service
func (f *FileFactory) CreateStateService(_ context.Context) (state.RunStateService, error) {
	slog.Debug("Creating file-based state service")
	return state.NewStateService(f.config, f.statusPersistence, nil)
}

// CreateStore creates a file-based product state store
func (f *FileFactory) CreateStore(_ context.Context) (state.Store, error) {
	slog.Debug("Creating file-based product state store")
	return state.NewStore(f.config, nil)
}

// Cleanup is a no-op for file storage
func (*FileFactory) Cleanup() {}
