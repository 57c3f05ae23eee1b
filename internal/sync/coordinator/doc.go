// Package coordinator schedules catalog sync runs and keeps their run status.
//
// It sits on top of sync.Manager and handles:
//
//   - periodic checks on a ticker at the configured interval (±10% jitter)
//   - an initial check on startup
//   - manual runs requested through TriggerSync, and checks requested by the
//     source file watcher through RequestCheck
//   - run status updates through state.RunStateService
//   - graceful shutdown
//
// At most one run is active per process. A run in progress is guarded by a
// try-lock; a manual request made while it holds returns ErrSyncInProgress.
// Across processes sharing a database, the Syncing phase stored by the
// state service plays the same role.
//
// # Usage Example
//
//	coord := coordinator.New(manager, statusSvc, cfg)
//	go func() {
//	    if err := coord.Start(ctx); err != nil {
//	        slog.Error("Coordinator failed", "error", err)
//	    }
//	}()
//	defer coord.Stop()
package coordinator
