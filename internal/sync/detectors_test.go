package sync

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/catalog-sync/internal/config"
	"github.com/stacklok/catalog-sync/internal/sources"
	sourcesmocks "github.com/stacklok/catalog-sync/internal/sources/mocks"
	"github.com/stacklok/catalog-sync/internal/status"
)

func TestDataChangeDetector_IsDataChanged(t *testing.T) {
	t.Parallel()

	data := []byte(`[{"id": "SKU-1", "price_vat_excl": 1}]`)
	path := filepath.Join(t.TempDir(), "erp_data.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	currentHash := fmt.Sprintf("%x", sha256.Sum256(data))

	source := &config.SourceConfig{File: &config.FileConfig{Path: path}}
	detector := NewDataChangeDetector(sources.NewSourceHandlerFactory(), source)

	tests := []struct {
		name        string
		syncStatus  *status.SyncStatus
		wantChanged bool
	}{
		{name: "nil status", syncStatus: nil, wantChanged: true},
		{name: "no previous hash", syncStatus: &status.SyncStatus{Phase: status.SyncPhaseComplete}, wantChanged: true},
		{name: "same hash", syncStatus: &status.SyncStatus{LastSourceHash: currentHash}, wantChanged: false},
		{name: "different hash", syncStatus: &status.SyncStatus{LastSourceHash: "other"}, wantChanged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			changed, err := detector.IsDataChanged(context.Background(), tt.syncStatus)
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}

func TestDataChangeDetector_Errors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := &config.SourceConfig{S3: &config.S3Config{Bucket: "b", Key: "k"}}
	syncStatus := &status.SyncStatus{LastSourceHash: "previous"}

	factory := sourcesmocks.NewMockSourceHandlerFactory(ctrl)
	factory.EXPECT().CreateHandler(config.SourceTypeS3).Return(nil, errors.New("unsupported source type: s3"))
	changed, err := NewDataChangeDetector(factory, source).IsDataChanged(context.Background(), syncStatus)
	require.Error(t, err)
	assert.True(t, changed)

	handler := sourcesmocks.NewMockSourceHandler(ctrl)
	handler.EXPECT().CurrentHash(gomock.Any(), source).Return("", errors.New("access denied"))
	factory = sourcesmocks.NewMockSourceHandlerFactory(ctrl)
	factory.EXPECT().CreateHandler(config.SourceTypeS3).Return(handler, nil)
	changed, err = NewDataChangeDetector(factory, source).IsDataChanged(context.Background(), syncStatus)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compute source hash")
	assert.True(t, changed)
}
