package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/catalog-sync/internal/db/sqlc"
)

// DBStore keeps sync state in the product_sync_state table
type DBStore struct {
	pool *pgxpool.Pool
}

// NewDBStore creates a store on pool
func NewDBStore(pool *pgxpool.Pool) *DBStore {
	return &DBStore{pool: pool}
}

// Get implements Store
func (d *DBStore) Get(ctx context.Context, sku string) (*SyncState, error) {
	row, err := sqlc.New(d.pool).GetProductSyncState(ctx, sku)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sync state of %s: %w", sku, err)
	}

	return &SyncState{
		SKU:          row.Sku,
		Fingerprint:  row.ContentHash,
		LastSyncedAt: row.LastSyncedAt,
		SyncedAsNew:  row.SyncedAsNew,
	}, nil
}

// Upsert implements Store
func (d *DBStore) Upsert(ctx context.Context, sku, fingerprint string, isNew bool, at time.Time) error {
	err := sqlc.New(d.pool).UpsertProductSyncState(ctx, sqlc.UpsertProductSyncStateParams{
		Sku:          sku,
		ContentHash:  fingerprint,
		SyncedAsNew:  isNew,
		LastSyncedAt: at,
	})
	if err != nil {
		return fmt.Errorf("failed to store sync state of %s: %w", sku, err)
	}
	return nil
}

// Count returns the number of tracked products
func (d *DBStore) Count(ctx context.Context) (int64, error) {
	return sqlc.New(d.pool).CountProductSyncStates(ctx)
}
