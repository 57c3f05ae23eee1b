package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/catalog-sync/database"
	"github.com/stacklok/catalog-sync/internal/config"
	"github.com/stacklok/catalog-sync/internal/status"
)

func TestNewDatabaseFactory_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr string
	}{
		{
			name:    "nil config returns error",
			wantErr: "config cannot be nil",
		},
		{
			name: "missing database section",
			cfg: &config.Config{
				Storage: &config.StorageConfig{Type: config.StorageTypeDatabase},
			},
			wantErr: "database configuration is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewDatabaseFactory(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseFactory_Components(t *testing.T) {
	t.Parallel()

	pool, _ := database.SetupTestDB(t)
	ctx := context.Background()
	cfg := &config.Config{
		Storage:  &config.StorageConfig{Type: config.StorageTypeDatabase},
		Database: &config.DatabaseConfig{},
	}
	factory := newDatabaseFactoryWithPool(cfg, pool)

	stateSvc, err := factory.CreateStateService(ctx)
	require.NoError(t, err)
	require.NoError(t, stateSvc.Initialize(ctx, []string{"eshop"}))
	got, err := stateSvc.GetSyncStatus(ctx, "eshop")
	require.NoError(t, err)
	assert.Equal(t, status.SyncPhaseFailed, got.Phase)

	store, err := factory.CreateStore(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, "SKU-1", "fp", true, time.Now().UTC()))
	st, err := store.Get(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, "fp", st.Fingerprint)
}
