// Package state persists what the sync has already delivered: the
// per-product fingerprints used for delta detection and the run-level status
// of each sync target.
package state

import (
	"context"
	"errors"

	"github.com/stacklok/catalog-sync/internal/status"
)

// ErrTargetNotFound is returned when no status exists for a sync target
var ErrTargetNotFound = errors.New("sync target not found")

// RunStateService provides methods for inspecting and updating the run status of sync targets.
//
//go:generate mockgen -destination=mocks/mock_run_state_service.go -package=mocks github.com/stacklok/catalog-sync/internal/sync/state RunStateService
type RunStateService interface {
	// Initialize loads or creates the status of every target. It is intended
	// to be called at startup; a run left in Syncing by a previous process is
	// reset to Failed.
	Initialize(ctx context.Context, targets []string) error
	// ListSyncStatuses lists all available sync statuses.
	ListSyncStatuses(ctx context.Context) (map[string]*status.SyncStatus, error)
	// GetSyncStatus returns the status of the named target or ErrTargetNotFound.
	GetSyncStatus(ctx context.Context, target string) (*status.SyncStatus, error)
	// UpdateSyncStatus overrides the status of the named target.
	UpdateSyncStatus(ctx context.Context, target string, syncStatus *status.SyncStatus) error
	// UpdateStatusAtomically fetches the current status, applies
	// testAndUpdateFn and stores the result if the function reports a change,
	// all as a single atomic action. It returns whether the status changed.
	UpdateStatusAtomically(
		ctx context.Context,
		target string,
		testAndUpdateFn func(syncStatus *status.SyncStatus) bool,
	) (bool, error)
}

const (
	messageNoPreviousSync = "No previous sync status found"
	messageInterrupted    = "Previous sync was interrupted"
)
