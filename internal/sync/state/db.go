package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/catalog-sync/internal/db/sqlc"
	"github.com/stacklok/catalog-sync/internal/status"
)

type dbStateService struct {
	pool *pgxpool.Pool
}

// NewDBStateService creates a run state service backed by the target_sync table
func NewDBStateService(pool *pgxpool.Pool) RunStateService {
	return &dbStateService{pool: pool}
}

func (d *dbStateService) Initialize(ctx context.Context, targets []string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	queries := sqlc.New(d.pool).WithTx(tx)

	reset, err := queries.ResetInterruptedTargetSyncs(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset interrupted syncs: %w", err)
	}
	if reset > 0 {
		slog.Warn("Previous sync was interrupted (status=Syncing), resetting to Failed", "targets", reset)
	}

	msg := messageNoPreviousSync
	for _, target := range targets {
		err := queries.InitializeTargetSync(ctx, sqlc.InitializeTargetSyncParams{
			Name:       target,
			SyncStatus: sqlc.SyncStatusFAILED,
			ErrorMsg:   &msg,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize target %s: %w", target, err)
		}
	}

	return tx.Commit(ctx)
}

func (d *dbStateService) ListSyncStatuses(ctx context.Context) (map[string]*status.SyncStatus, error) {
	rows, err := sqlc.New(d.pool).ListTargetSyncs(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*status.SyncStatus, len(rows))
	for _, row := range rows {
		result[row.Name] = dbSyncToStatus(row)
	}
	return result, nil
}

func (d *dbStateService) GetSyncStatus(ctx context.Context, target string) (*status.SyncStatus, error) {
	row, err := sqlc.New(d.pool).GetTargetSync(ctx, target)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTargetNotFound
		}
		return nil, err
	}
	return dbSyncToStatus(row), nil
}

func (d *dbStateService) UpdateSyncStatus(ctx context.Context, target string, syncStatus *status.SyncStatus) error {
	return sqlc.New(d.pool).UpsertTargetSync(ctx, statusToUpsertParams(target, syncStatus))
}

func (d *dbStateService) UpdateStatusAtomically(
	ctx context.Context,
	target string,
	testAndUpdateFn func(syncStatus *status.SyncStatus) bool,
) (bool, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	queries := sqlc.New(d.pool).WithTx(tx)

	row, err := queries.GetTargetSyncForUpdate(ctx, target)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrTargetNotFound
		}
		return false, err
	}

	syncStatus := dbSyncToStatus(row)
	shouldUpdate := testAndUpdateFn(syncStatus)
	if shouldUpdate {
		if err := queries.UpsertTargetSync(ctx, statusToUpsertParams(target, syncStatus)); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return shouldUpdate, nil
}

func statusToUpsertParams(target string, syncStatus *status.SyncStatus) sqlc.UpsertTargetSyncParams {
	return sqlc.UpsertTargetSyncParams{
		Name:           target,
		SyncStatus:     syncPhaseToDBStatus(syncStatus.Phase),
		ErrorMsg:       optionalString(syncStatus.Message),
		RunID:          parseRunID(syncStatus.RunID),
		StartedAt:      syncStatus.LastAttempt,
		EndedAt:        syncStatus.LastSyncTime,
		AttemptCount:   int64(syncStatus.AttemptCount),
		LastSourceHash: optionalString(syncStatus.LastSourceHash),
		SentCount:      int64(syncStatus.Sent),
		SkippedCount:   int64(syncStatus.Skipped),
		ErrorCount:     int64(syncStatus.Errors),
	}
}

// dbSyncToStatus converts a target_sync row to a status.SyncStatus
func dbSyncToStatus(row sqlc.TargetSync) *status.SyncStatus {
	syncStatus := &status.SyncStatus{
		Phase:        dbSyncStatusToPhase(row.SyncStatus),
		LastAttempt:  row.StartedAt,
		LastSyncTime: row.EndedAt,
		AttemptCount: int(row.AttemptCount),
		Sent:         int(row.SentCount),
		Skipped:      int(row.SkippedCount),
		Errors:       int(row.ErrorCount),
	}
	if row.ErrorMsg != nil {
		syncStatus.Message = *row.ErrorMsg
	}
	if row.RunID != nil {
		syncStatus.RunID = row.RunID.String()
	}
	if row.LastSourceHash != nil {
		syncStatus.LastSourceHash = *row.LastSourceHash
	}
	return syncStatus
}

func dbSyncStatusToPhase(dbStatus sqlc.SyncStatus) status.SyncPhase {
	switch dbStatus {
	case sqlc.SyncStatusINPROGRESS:
		return status.SyncPhaseSyncing
	case sqlc.SyncStatusCOMPLETED:
		return status.SyncPhaseComplete
	default:
		return status.SyncPhaseFailed
	}
}

func syncPhaseToDBStatus(phase status.SyncPhase) sqlc.SyncStatus {
	switch phase {
	case status.SyncPhaseSyncing:
		return sqlc.SyncStatusINPROGRESS
	case status.SyncPhaseComplete:
		return sqlc.SyncStatusCOMPLETED
	default:
		return sqlc.SyncStatusFAILED
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseRunID returns nil for empty or malformed run IDs
func parseRunID(s string) *uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
