package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stacklok/catalog-sync/internal/status"
	pkgsync "github.com/stacklok/catalog-sync/internal/sync"
)

// performSync marks the target as Syncing when the manager decides a run is
// needed, runs it and records the final status. It returns a nil result when
// no run was needed. The caller must hold runMu.
func (c *defaultCoordinator) performSync(ctx context.Context, manual bool) (*pkgsync.Result, error) {
	var (
		reason  pkgsync.Reason
		current status.SyncStatus
	)

	started, err := c.statusSvc.UpdateStatusAtomically(ctx, c.target, func(syncStatus *status.SyncStatus) bool {
		reason = c.manager.ShouldSync(ctx, syncStatus, manual)
		if !reason.ShouldSync() {
			return false
		}

		now := time.Now()
		syncStatus.Phase = status.SyncPhaseSyncing
		syncStatus.Message = "Sync in progress"
		syncStatus.LastAttempt = &now
		syncStatus.AttemptCount++
		current = *syncStatus
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update sync status: %w", err)
	}
	if !started {
		if reason == pkgsync.ReasonAlreadyInProgress {
			return nil, ErrSyncInProgress
		}
		slog.Debug("Target does not need sync", "target", c.target, "reason", reason.String())
		return nil, nil
	}

	// Set a default error in case the run is killed by an unexpected failure.
	// The final status must land even when ctx was cancelled during the run.
	current.Phase = status.SyncPhaseFailed
	current.Message = fmt.Sprintf("Unexpected failure while syncing %s", c.target)
	defer func() {
		if err := c.statusSvc.UpdateSyncStatus(context.WithoutCancel(ctx), c.target, &current); err != nil {
			slog.Error("Error updating sync status", "target", c.target, "error", err)
		}
	}()

	slog.Info("Starting sync operation",
		"target", c.target,
		"reason", reason.String(),
		"attempt", current.AttemptCount)

	startTime := time.Now()
	result, syncErr := c.manager.PerformSync(ctx)
	syncDuration := time.Since(startTime)

	if result != nil {
		current.RunID = result.RunID
	}

	if syncErr != nil {
		current.Phase = status.SyncPhaseFailed
		current.Message = syncErr.Error()
		slog.Error("Sync failed", "target", c.target, "error", syncErr)
		c.syncMetrics.RecordSyncDuration(ctx, c.target, syncDuration, false)
		return result, syncErr
	}

	finishedAt := result.FinishedAt
	current.Phase = status.SyncPhaseComplete
	current.Message = fmt.Sprintf("Sync completed: %d sent, %d skipped, %d errors",
		result.Sent, result.Skipped, result.Errors)
	current.LastSyncTime = &finishedAt
	current.LastSourceHash = result.SourceHash
	current.Sent = result.Sent
	current.Skipped = result.Skipped
	current.Errors = result.Errors
	current.AttemptCount = 0

	slog.Info("Sync completed",
		"target", c.target,
		"run_id", result.RunID,
		"sent", result.Sent,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"duration", syncDuration)
	c.syncMetrics.RecordSyncDuration(ctx, c.target, syncDuration, true)

	return result, nil
}
