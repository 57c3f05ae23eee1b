package state

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/catalog-sync/database"
	"github.com/stacklok/catalog-sync/internal/db/sqlc"
	"github.com/stacklok/catalog-sync/internal/status"
)

func TestDBStore(t *testing.T) {
	t.Parallel()

	pool, _ := database.SetupTestDB(t)
	store := NewDBStore(pool)
	testStoreContract(t, store)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDBStateService(t *testing.T) {
	t.Parallel()

	pool, _ := database.SetupTestDB(t)
	ctx := context.Background()
	service := NewDBStateService(pool)

	_, err := service.GetSyncStatus(ctx, testTarget)
	require.ErrorIs(t, err, ErrTargetNotFound)

	require.NoError(t, service.Initialize(ctx, []string{testTarget}))

	got, err := service.GetSyncStatus(ctx, testTarget)
	require.NoError(t, err)
	assert.Equal(t, status.SyncPhaseFailed, got.Phase)
	assert.Equal(t, messageNoPreviousSync, got.Message)

	runID := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Microsecond)
	changed, err := service.UpdateStatusAtomically(ctx, testTarget, func(s *status.SyncStatus) bool {
		s.Phase = status.SyncPhaseSyncing
		s.Message = ""
		s.RunID = runID
		s.LastAttempt = &now
		return true
	})
	require.NoError(t, err)
	assert.True(t, changed)

	// A restart while Syncing resets the phase
	require.NoError(t, service.Initialize(ctx, []string{testTarget}))
	got, err = service.GetSyncStatus(ctx, testTarget)
	require.NoError(t, err)
	assert.Equal(t, status.SyncPhaseFailed, got.Phase)
	assert.Equal(t, messageInterrupted, got.Message)
	assert.Equal(t, runID, got.RunID)

	require.NoError(t, service.UpdateSyncStatus(ctx, testTarget, &status.SyncStatus{
		Phase:          status.SyncPhaseComplete,
		RunID:          runID,
		LastAttempt:    &now,
		LastSyncTime:   &now,
		LastSourceHash: "source-hash",
		Sent:           5,
		Skipped:        2,
		Errors:         1,
	}))

	all, err := service.ListSyncStatuses(ctx)
	require.NoError(t, err)
	require.Contains(t, all, testTarget)
	assert.Equal(t, status.SyncPhaseComplete, all[testTarget].Phase)
	assert.Equal(t, "source-hash", all[testTarget].LastSourceHash)
	assert.Equal(t, 5, all[testTarget].Sent)
	assert.Equal(t, 2, all[testTarget].Skipped)
	assert.Equal(t, 1, all[testTarget].Errors)

	changed, err = service.UpdateStatusAtomically(ctx, testTarget, func(*status.SyncStatus) bool { return false })
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = service.UpdateStatusAtomically(ctx, "unknown", func(*status.SyncStatus) bool { return true })
	require.ErrorIs(t, err, ErrTargetNotFound)
}

func TestSyncPhaseConversion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		phase  status.SyncPhase
		db     sqlc.SyncStatus
		phaseB status.SyncPhase
	}{
		{phase: status.SyncPhaseSyncing, db: sqlc.SyncStatusINPROGRESS, phaseB: status.SyncPhaseSyncing},
		{phase: status.SyncPhaseComplete, db: sqlc.SyncStatusCOMPLETED, phaseB: status.SyncPhaseComplete},
		{phase: status.SyncPhaseFailed, db: sqlc.SyncStatusFAILED, phaseB: status.SyncPhaseFailed},
		{phase: "", db: sqlc.SyncStatusFAILED, phaseB: status.SyncPhaseFailed},
	}

	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.db, syncPhaseToDBStatus(tt.phase))
			assert.Equal(t, tt.phaseB, dbSyncStatusToPhase(tt.db))
		})
	}
}

func TestStatusToUpsertParams(t *testing.T) {
	t.Parallel()

	params := statusToUpsertParams(testTarget, &status.SyncStatus{Phase: status.SyncPhaseComplete, RunID: "not-a-uuid"})
	assert.Equal(t, testTarget, params.Name)
	assert.Nil(t, params.ErrorMsg)
	assert.Nil(t, params.RunID)
	assert.Nil(t, params.LastSourceHash)

	id := uuid.New()
	params = statusToUpsertParams(testTarget, &status.SyncStatus{RunID: id.String(), Message: "m", LastSourceHash: "h"})
	require.NotNil(t, params.RunID)
	assert.Equal(t, id, *params.RunID)
	require.NotNil(t, params.ErrorMsg)
	assert.Equal(t, "m", *params.ErrorMsg)

	back := dbSyncToStatus(sqlc.TargetSync{
		Name:           testTarget,
		SyncStatus:     params.SyncStatus,
		ErrorMsg:       params.ErrorMsg,
		RunID:          params.RunID,
		LastSourceHash: params.LastSourceHash,
	})
	assert.Equal(t, id.String(), back.RunID)
	assert.Equal(t, "m", back.Message)
	assert.Equal(t, "h", back.LastSourceHash)
}
