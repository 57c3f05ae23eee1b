package status

import "time"

// SyncPhase represents the current phase of a sync run
type SyncPhase string

const (
	// SyncPhaseSyncing means a run is in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means the last run finished; individual records may still have failed
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means the last run could not process the source
	SyncPhaseFailed SyncPhase = "Failed"
)

// SyncStatus is the run-level status of the catalog sync for one target
type SyncStatus struct {
	// Phase represents the current synchronization phase
	Phase SyncPhase `json:"phase"`

	// Message provides additional information about the last run
	Message string `json:"message,omitempty"`

	// RunID identifies the last run
	RunID string `json:"runId,omitempty"`

	// LastAttempt is the timestamp of the last run start
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`

	// AttemptCount is the number of failed runs since the last completed one
	AttemptCount int `json:"attemptCount,omitempty"`

	// LastSyncTime is the timestamp of the last completed run
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`

	// LastSourceHash is the hash of the source data processed by the last completed run
	LastSourceHash string `json:"lastSourceHash,omitempty"`

	// Sent, Skipped and Errors are the record counts of the last completed run
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// HasRecordErrors reports whether the last completed run left records unsent
func (s *SyncStatus) HasRecordErrors() bool {
	return s != nil && s.Errors > 0
}
