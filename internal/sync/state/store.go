package state

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Get for a product that was never delivered
var ErrNotFound = errors.New("sync state not found")

// SyncState records the last successful delivery of one product
type SyncState struct {
	SKU          string    `json:"sku"`
	Fingerprint  string    `json:"fingerprint"`
	LastSyncedAt time.Time `json:"lastSyncedAt"`
	SyncedAsNew  bool      `json:"syncedAsNew"`
}

// Store is the persistence contract of the delta sync. Each Upsert is
// independent and atomic per SKU; there is no transaction across products.
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/stacklok/catalog-sync/internal/sync/state Store
type Store interface {
	// Get returns the state of sku or ErrNotFound
	Get(ctx context.Context, sku string) (*SyncState, error)
	// Upsert records a confirmed delivery of sku
	Upsert(ctx context.Context, sku, fingerprint string, isNew bool, at time.Time) error
}
