package sources

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/catalog-sync/internal/config"
)

const sampleExport = `[{"id":"SKU-001","title":"Kávovar","price_vat_excl":100.0,"stocks":{"praha":3},"attributes":{"color":"červená"}}]`

func TestFileSourceHandler_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		source  *config.SourceConfig
		wantErr string
	}{
		{name: "valid", source: &config.SourceConfig{File: &config.FileConfig{Path: "erp.json"}}},
		{name: "nil source", wantErr: "source configuration cannot be nil"},
		{name: "no file section", source: &config.SourceConfig{}, wantErr: "file configuration is required"},
		{name: "empty path", source: &config.SourceConfig{File: &config.FileConfig{}}, wantErr: "file path cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := NewFileSourceHandler().Validate(tt.source)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFileSourceHandler_FetchCatalog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "erp_data.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleExport), 0600))
	source := &config.SourceConfig{File: &config.FileConfig{Path: path}}
	handler := NewFileSourceHandler()

	result, err := handler.FetchCatalog(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, []byte(sampleExport), result.Data)
	assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256([]byte(sampleExport))), result.Hash)
	assert.Equal(t, path, result.Location)

	hash, err := handler.CurrentHash(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, result.Hash, hash)

	require.NoError(t, os.WriteFile(path, []byte("[]"), 0600))
	changed, err := handler.CurrentHash(context.Background(), source)
	require.NoError(t, err)
	assert.NotEqual(t, result.Hash, changed)
}

func TestFileSourceHandler_FetchCatalog_Missing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.json")
	_, err := NewFileSourceHandler().FetchCatalog(context.Background(), &config.SourceConfig{File: &config.FileConfig{Path: path}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")

	_, err = NewFileSourceHandler().CurrentHash(context.Background(), &config.SourceConfig{})
	require.Error(t, err)
}

func TestSourceHandlerFactory(t *testing.T) {
	t.Parallel()

	factory := NewSourceHandlerFactory()

	handler, err := factory.CreateHandler(config.SourceTypeFile)
	require.NoError(t, err)
	assert.IsType(t, &fileSourceHandler{}, handler)

	handler, err = factory.CreateHandler(config.SourceTypeS3)
	require.NoError(t, err)
	assert.IsType(t, &s3SourceHandler{}, handler)

	_, err = factory.CreateHandler("ftp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported source type")
}
