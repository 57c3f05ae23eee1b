package sync

import (
	"context"
	"fmt"

	"github.com/stacklok/catalog-sync/internal/config"
	"github.com/stacklok/catalog-sync/internal/sources"
	"github.com/stacklok/catalog-sync/internal/status"
)

// DataChangeDetector detects changes in source data
type DataChangeDetector interface {
	// IsDataChanged compares the current source hash with the one of the last completed run
	IsDataChanged(ctx context.Context, syncStatus *status.SyncStatus) (bool, error)
}

// defaultDataChangeDetector implements DataChangeDetector with the source handler's CurrentHash
type defaultDataChangeDetector struct {
	handlerFactory sources.SourceHandlerFactory
	source         *config.SourceConfig
}

// NewDataChangeDetector creates a detector for the given source
func NewDataChangeDetector(handlerFactory sources.SourceHandlerFactory, source *config.SourceConfig) DataChangeDetector {
	return &defaultDataChangeDetector{handlerFactory: handlerFactory, source: source}
}

// IsDataChanged checks if source data has changed by comparing hashes
func (d *defaultDataChangeDetector) IsDataChanged(ctx context.Context, syncStatus *status.SyncStatus) (bool, error) {
	var lastSourceHash string
	if syncStatus != nil {
		lastSourceHash = syncStatus.LastSourceHash
	}

	// Without a previous hash there is nothing to compare with
	if lastSourceHash == "" {
		return true, nil
	}

	handler, err := d.handlerFactory.CreateHandler(d.source.GetType())
	if err != nil {
		return true, err
	}

	currentHash, err := handler.CurrentHash(ctx, d.source)
	if err != nil {
		return true, fmt.Errorf("failed to compute source hash: %w", err)
	}

	return currentHash != lastSourceHash, nil
}
