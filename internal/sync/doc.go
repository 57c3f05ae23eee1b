// Package sync runs the delta synchronization of the ERP catalog to the
// e-shop.
//
// A run fetches the export through a sources.SourceHandler, normalizes it
// with catalog.Transformer and walks the resulting products in order. Each
// product is fingerprinted and compared with the state.Store:
//
//   - no stored state: the product is created (POST)
//   - same fingerprint: the product is skipped without a network call
//   - different fingerprint: the product is updated (PATCH)
//
// The stored state only changes after the e-shop confirmed a send, so a
// product that failed is retried by the next run. A failing product never
// aborts the run; it is counted in Result.Errors and reported as a
// catalog.KindRecordFailed diagnostic.
//
// # Sync Reasons
//
// Manager.ShouldSync returns a Reason. Use Reason.ShouldSync() to check if a
// run is needed and Reason.String() to log it.
//
// Reasons that do not start a run:
//   - ReasonAlreadyInProgress: a run is already in progress
//   - ReasonUpToDate: the last run completed and the source is unchanged
//
// Reasons that start a run:
//   - ReasonNotReady: never synced, or the last run failed
//   - ReasonRecordErrors: the last run left products unsent
//   - ReasonSourceDataChanged: the source hash changed
//   - ReasonErrorCheckingChanges: the source hash could not be read
//   - ReasonManualRequested: a run was requested explicitly
//
// The coordinator subpackage schedules runs and keeps the run status.
package sync
