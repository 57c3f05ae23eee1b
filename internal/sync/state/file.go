package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stacklok/catalog-sync/internal/status"
)

type fileStateService struct {
	statusPersistence status.StatusPersistence

	mu             sync.RWMutex
	cachedStatuses map[string]*status.SyncStatus
}

// NewFileStateService creates a run state service backed by status files
func NewFileStateService(statusPersistence status.StatusPersistence) RunStateService {
	return &fileStateService{
		statusPersistence: statusPersistence,
		cachedStatuses:    make(map[string]*status.SyncStatus),
	}
}

func (f *fileStateService) Initialize(ctx context.Context, targets []string) error {
	for _, target := range targets {
		f.loadOrInitializeStatus(ctx, target)
	}
	return nil
}

func (f *fileStateService) ListSyncStatuses(_ context.Context) (map[string]*status.SyncStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make(map[string]*status.SyncStatus, len(f.cachedStatuses))
	for name, syncStatus := range f.cachedStatuses {
		statusCopy := *syncStatus
		result[name] = &statusCopy
	}
	return result, nil
}

func (f *fileStateService) GetSyncStatus(_ context.Context, target string) (*status.SyncStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	syncStatus, exists := f.cachedStatuses[target]
	if !exists {
		return nil, ErrTargetNotFound
	}
	statusCopy := *syncStatus
	return &statusCopy, nil
}

func (f *fileStateService) UpdateStatusAtomically(
	ctx context.Context,
	target string,
	testAndUpdateFn func(syncStatus *status.SyncStatus) bool,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cached, exists := f.cachedStatuses[target]
	if !exists {
		return false, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
	}

	syncStatus := *cached
	if !testAndUpdateFn(&syncStatus) {
		return false, nil
	}
	if err := f.statusPersistence.SaveStatus(ctx, target, &syncStatus); err != nil {
		return false, err
	}
	f.cachedStatuses[target] = &syncStatus
	return true, nil
}

func (f *fileStateService) UpdateSyncStatus(ctx context.Context, target string, syncStatus *status.SyncStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.statusPersistence.SaveStatus(ctx, target, syncStatus); err != nil {
		return err
	}
	statusCopy := *syncStatus
	f.cachedStatuses[target] = &statusCopy
	return nil
}

// loadOrInitializeStatus assumes a single process owns the status files
func (f *fileStateService) loadOrInitializeStatus(ctx context.Context, target string) {
	syncStatus, err := f.statusPersistence.LoadStatus(ctx, target)
	if err != nil {
		slog.Warn("Failed to load sync status, initializing with defaults", "target", target, "error", err)
		syncStatus = &status.SyncStatus{}
	}

	switch {
	case syncStatus.Phase == "" && syncStatus.LastSyncTime == nil:
		slog.Info("No previous sync status found, initializing with defaults", "target", target)
		syncStatus.Phase = status.SyncPhaseFailed
		syncStatus.Message = messageNoPreviousSync
		if err := f.statusPersistence.SaveStatus(ctx, target, syncStatus); err != nil {
			slog.Warn("Failed to persist default sync status", "target", target, "error", err)
		}
	case syncStatus.Phase == status.SyncPhaseSyncing:
		slog.Warn("Previous sync was interrupted (status=Syncing), resetting to Failed", "target", target)
		syncStatus.Phase = status.SyncPhaseFailed
		syncStatus.Message = messageInterrupted
		if err := f.statusPersistence.SaveStatus(ctx, target, syncStatus); err != nil {
			slog.Warn("Failed to persist corrected sync status", "target", target, "error", err)
		}
	}

	if syncStatus.LastSyncTime != nil {
		slog.Info("Loaded sync status",
			"target", target,
			"phase", syncStatus.Phase,
			"last_sync", syncStatus.LastSyncTime.Format(time.RFC3339),
			"sent", syncStatus.Sent,
			"skipped", syncStatus.Skipped,
			"errors", syncStatus.Errors)
	} else {
		slog.Info("Sync status loaded, no previous sync", "target", target, "phase", syncStatus.Phase)
	}

	f.mu.Lock()
	f.cachedStatuses[target] = syncStatus
	f.mu.Unlock()
}
