package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/catalog-sync/internal/config"
	"github.com/stacklok/catalog-sync/internal/status"
	"github.com/stacklok/catalog-sync/internal/sync/state"
)

func fileConfig(dataDir string) *config.Config {
	return &config.Config{
		Storage: &config.StorageConfig{
			Type: config.StorageTypeFile,
			File: &config.FileStorageConfig{DataDir: dataDir},
		},
	}
}

func TestNewFileFactory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     func(t *testing.T) *config.Config
		wantErr string
	}{
		{
			name: "existing directory",
			cfg: func(t *testing.T) *config.Config {
				t.Helper()
				return fileConfig(t.TempDir())
			},
		},
		{
			name: "non-existent directory is created",
			cfg: func(t *testing.T) *config.Config {
				t.Helper()
				return fileConfig(filepath.Join(t.TempDir(), "new", "nested", "dir"))
			},
		},
		{
			name:    "nil config returns error",
			cfg:     func(*testing.T) *config.Config { return nil },
			wantErr: "config cannot be nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := tt.cfg(t)
			factory, err := NewFileFactory(cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.DirExists(t, cfg.GetDataDir())
			factory.Cleanup()
		})
	}
}

func TestFileFactory_Components(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dataDir := t.TempDir()
	factory, err := NewFileFactory(fileConfig(dataDir))
	require.NoError(t, err)

	stateSvc, err := factory.CreateStateService(ctx)
	require.NoError(t, err)
	require.NoError(t, stateSvc.Initialize(ctx, []string{"eshop"}))

	got, err := stateSvc.GetSyncStatus(ctx, "eshop")
	require.NoError(t, err)
	assert.Equal(t, status.SyncPhaseFailed, got.Phase)
	assert.FileExists(t, filepath.Join(dataDir, "eshop", status.StatusFileName))

	store, err := factory.CreateStore(ctx)
	require.NoError(t, err)
	_, err = store.Get(ctx, "SKU-1")
	assert.ErrorIs(t, err, state.ErrNotFound)
}

func TestNewStorageFactory(t *testing.T) {
	t.Parallel()

	factory, err := NewStorageFactory(context.Background(), fileConfig(t.TempDir()))
	require.NoError(t, err)
	assert.IsType(t, &FileFactory{}, factory)

	_, err = NewStorageFactory(context.Background(), nil)
	require.ErrorContains(t, err, "config cannot be nil")

	_, err = NewStorageFactory(context.Background(), &config.Config{
		Storage: &config.StorageConfig{Type: "memory"},
	})
	require.ErrorContains(t, err, "unknown storage type: memory")
}
