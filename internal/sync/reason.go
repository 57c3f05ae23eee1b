package sync

// Reason explains a ShouldSync decision
type Reason int

const (
	// ReasonAlreadyInProgress means a run is already in progress
	ReasonAlreadyInProgress Reason = iota
	// ReasonUpToDate means the last run completed and the source did not change
	ReasonUpToDate
	// ReasonNotReady means there was no completed run yet or the last one failed
	ReasonNotReady
	// ReasonRecordErrors means the last run completed with unsent products
	ReasonRecordErrors
	// ReasonSourceDataChanged means the source hash differs from the last run
	ReasonSourceDataChanged
	// ReasonErrorCheckingChanges means the source hash could not be computed
	ReasonErrorCheckingChanges
	// ReasonManualRequested means a run was requested by an operator
	ReasonManualRequested
)

// ShouldSync reports whether the reason calls for a run
func (r Reason) ShouldSync() bool {
	switch r {
	case ReasonNotReady, ReasonRecordErrors, ReasonSourceDataChanged,
		ReasonErrorCheckingChanges, ReasonManualRequested:
		return true
	default:
		return false
	}
}

// String returns the reason as used in logs and status messages
func (r Reason) String() string {
	switch r {
	case ReasonAlreadyInProgress:
		return "sync-already-in-progress"
	case ReasonUpToDate:
		return "up-to-date"
	case ReasonNotReady:
		return "not-ready"
	case ReasonRecordErrors:
		return "previous-run-had-record-errors"
	case ReasonSourceDataChanged:
		return "source-data-changed"
	case ReasonErrorCheckingChanges:
		return "error-checking-data-changes"
	case ReasonManualRequested:
		return "manual-sync-requested"
	default:
		return "unknown"
	}
}
