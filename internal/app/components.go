package app

import (
	"github.com/stacklok/catalog-sync/internal/sources"
	"github.com/stacklok/catalog-sync/internal/sync/coordinator"
	"github.com/stacklok/catalog-sync/internal/sync/state"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator schedules and runs syncs
	SyncCoordinator coordinator.Coordinator

	// StateService exposes the run status of the sync target
	StateService state.RunStateService

	// Watcher requests a sync check when the source file changes (optional)
	Watcher *sources.FileWatcher
}
