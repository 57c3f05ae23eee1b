package sync_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/stacklok/catalog-sync/internal/catalog"
	"github.com/stacklok/catalog-sync/internal/config"
	"github.com/stacklok/catalog-sync/internal/httpclient"
	"github.com/stacklok/catalog-sync/internal/sources"
	sourcesmocks "github.com/stacklok/catalog-sync/internal/sources/mocks"
	pkgsync "github.com/stacklok/catalog-sync/internal/sync"
	"github.com/stacklok/catalog-sync/internal/sync/mocks"
	"github.com/stacklok/catalog-sync/internal/sync/state"
	statemocks "github.com/stacklok/catalog-sync/internal/sync/state/mocks"
)

const threeProducts = `[
  {"id": "SKU-1", "title": "Kettle", "price_vat_excl": 100.0, "stocks": {"praha": 10, "brno": 20}, "attributes": {"color": "black"}},
  {"id": "SKU-2", "title": "Toaster", "price_vat_excl": 50, "stocks": {"praha": 1}, "attributes": null},
  {"id": "SKU-3", "title": "Mixer", "price_vat_excl": 80.5, "stocks": {}, "attributes": {"color": ""}}
]`

var syncTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func writeExport(t *testing.T, data string) *config.SourceConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "erp_data.json")
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	return &config.SourceConfig{File: &config.FileConfig{Path: path}}
}

func newManager(source *config.SourceConfig, sender pkgsync.ProductSender, store state.Store) *pkgsync.DefaultSyncManager {
	return pkgsync.NewDefaultSyncManager(
		source,
		sources.NewSourceHandlerFactory(),
		catalog.NewTransformer(),
		sender,
		store,
		pkgsync.WithClock(clocktesting.NewFakePassiveClock(syncTime)),
	)
}

func normalized(t *testing.T, data string) map[string]catalog.Product {
	t.Helper()
	products, _, err := catalog.NewTransformer().LoadAndNormalize([]byte(data))
	require.NoError(t, err)
	bySKU := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		bySKU[p.SKU] = p
	}
	return bySKU
}

// sendRecorder returns a SendProduct implementation that records calls and
// fails for the SKUs in failures
func sendRecorder(calls map[string]bool, failures map[string]error) func(context.Context, catalog.Product, bool) (*httpclient.Response, error) {
	return func(_ context.Context, p catalog.Product, isNew bool) (*httpclient.Response, error) {
		calls[p.SKU] = isNew
		if err := failures[p.SKU]; err != nil {
			return nil, err
		}
		if isNew {
			return &httpclient.Response{StatusCode: http.StatusCreated}, nil
		}
		return &httpclient.Response{StatusCode: http.StatusOK}, nil
	}
}

func TestPerformSync_CreateUpdateSkip(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ctx := context.Background()
	products := normalized(t, threeProducts)

	store := state.NewMemoryStore()
	require.NoError(t, store.Upsert(ctx, "SKU-2", catalog.Fingerprint(products["SKU-2"]), true, syncTime.Add(-time.Hour)))
	require.NoError(t, store.Upsert(ctx, "SKU-3", "stale-fingerprint", true, syncTime.Add(-time.Hour)))

	calls := map[string]bool{}
	sender := mocks.NewMockProductSender(ctrl)
	sender.EXPECT().SendProduct(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(sendRecorder(calls, nil)).
		Times(2)

	result, err := newManager(writeExport(t, threeProducts), sender, store).PerformSync(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, 3, result.Total)
	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.SourceHash, 64)
	assert.Equal(t, syncTime, result.StartedAt)
	assert.Equal(t, syncTime, result.FinishedAt)

	// SKU-1 is created, SKU-3 updated, SKU-2 never sent
	assert.Equal(t, map[string]bool{"SKU-1": true, "SKU-3": false}, calls)

	created, err := store.Get(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, catalog.Fingerprint(products["SKU-1"]), created.Fingerprint)
	assert.True(t, created.SyncedAsNew)
	assert.Equal(t, syncTime, created.LastSyncedAt)

	updated, err := store.Get(ctx, "SKU-3")
	require.NoError(t, err)
	assert.Equal(t, catalog.Fingerprint(products["SKU-3"]), updated.Fingerprint)
	assert.False(t, updated.SyncedAsNew)
}

func TestPerformSync_SecondRunSendsNothing(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ctx := context.Background()
	store := state.NewMemoryStore()

	sender := mocks.NewMockProductSender(ctrl)
	sender.EXPECT().SendProduct(gomock.Any(), gomock.Any(), true).
		Return(&httpclient.Response{StatusCode: http.StatusCreated}, nil).
		Times(3)

	manager := newManager(writeExport(t, threeProducts), sender, store)

	first, err := manager.PerformSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Sent)
	assert.Equal(t, 3, store.Len())

	second, err := manager.PerformSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Sent)
	assert.Equal(t, 3, second.Skipped)
	assert.Equal(t, 0, second.Errors)
	assert.Equal(t, first.SourceHash, second.SourceHash)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestPerformSync_OneFailedSendDoesNotAbortRun(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ctx := context.Background()
	store := state.NewMemoryStore()

	calls := map[string]bool{}
	failures := map[string]error{
		"SKU-2": httpclient.NewHTTPError(http.StatusInternalServerError, http.MethodPost, "https://shop/products/", "boom"),
	}
	sender := mocks.NewMockProductSender(ctrl)
	sender.EXPECT().SendProduct(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(sendRecorder(calls, failures)).
		Times(3)

	result, err := newManager(writeExport(t, threeProducts), sender, store).PerformSync(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 0, result.Skipped)
	assert.Len(t, calls, 3)

	_, err = store.Get(ctx, "SKU-2")
	require.ErrorIs(t, err, state.ErrNotFound)
	assert.Equal(t, 2, store.Len())

	counts := catalog.CountByKind(result.Diagnostics)
	require.Equal(t, 1, counts[catalog.KindRecordFailed])
	for _, d := range result.Diagnostics {
		if d.Kind == catalog.KindRecordFailed {
			assert.Equal(t, "SKU-2", d.SKU)
			assert.Contains(t, d.Message, "HTTP 500")
		}
	}
}

func TestPerformSync_FailedUpdateKeepsPreviousFingerprint(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ctx := context.Background()
	store := state.NewMemoryStore()
	previousSync := syncTime.Add(-24 * time.Hour)
	require.NoError(t, store.Upsert(ctx, "SKU-1", "old-fingerprint", true, previousSync))

	sender := mocks.NewMockProductSender(ctrl)
	sender.EXPECT().SendProduct(gomock.Any(), gomock.Any(), false).
		Return(nil, &httpclient.RateLimitExhaustedError{Method: http.MethodPatch, URL: "https://shop/products/SKU-1/", Attempts: 3})

	export := `[{"id": "SKU-1", "title": "Kettle", "price_vat_excl": 100.0, "stocks": {"a": 1}}]`
	result, err := newManager(writeExport(t, export), sender, store).PerformSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 0, result.Sent)

	got, err := store.Get(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, "old-fingerprint", got.Fingerprint)
	assert.Equal(t, previousSync, got.LastSyncedAt)
	assert.True(t, got.SyncedAsNew)
}

func TestPerformSync_InvalidFirstDuplicateHidesLaterOne(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	sender := mocks.NewMockProductSender(ctrl)

	export := `[
	  {"id": "SKU-1", "title": "Broken", "price_vat_excl": null, "stocks": {}},
	  {"id": "SKU-1", "title": "Valid", "price_vat_excl": 10, "stocks": {}}
	]`
	result, err := newManager(writeExport(t, export), sender, state.NewMemoryStore()).PerformSync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, result.Sent)
	counts := catalog.CountByKind(result.Diagnostics)
	assert.Equal(t, 1, counts[catalog.KindValidationSkip])
	assert.Equal(t, 1, counts[catalog.KindDuplicate])
}

func TestPerformSync_StoreFailures(t *testing.T) {
	t.Parallel()

	export := `[{"id": "SKU-1", "title": "Kettle", "price_vat_excl": 1, "stocks": {}}]`

	tests := []struct {
		name      string
		setup     func(store *statemocks.MockStore, sender *mocks.MockProductSender)
		wantSent  int
		wantError string
	}{
		{
			name: "lookup fails, nothing is sent",
			setup: func(store *statemocks.MockStore, _ *mocks.MockProductSender) {
				store.EXPECT().Get(gomock.Any(), "SKU-1").Return(nil, errors.New("disk unavailable"))
			},
			wantError: "failed to read sync state",
		},
		{
			name: "upsert fails after a send",
			setup: func(store *statemocks.MockStore, sender *mocks.MockProductSender) {
				store.EXPECT().Get(gomock.Any(), "SKU-1").Return(nil, state.ErrNotFound)
				sender.EXPECT().SendProduct(gomock.Any(), gomock.Any(), true).
					Return(&httpclient.Response{StatusCode: http.StatusCreated}, nil)
				store.EXPECT().Upsert(gomock.Any(), "SKU-1", gomock.Any(), true, syncTime).
					Return(errors.New("disk full"))
			},
			wantError: "product sent but sync state not saved",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			store := statemocks.NewMockStore(ctrl)
			sender := mocks.NewMockProductSender(ctrl)
			tt.setup(store, sender)

			result, err := newManager(writeExport(t, export), sender, store).PerformSync(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, result.Errors)
			assert.Equal(t, tt.wantSent, result.Sent)
			require.NotEmpty(t, result.Diagnostics)
			assert.Contains(t, result.Diagnostics[len(result.Diagnostics)-1].Message, tt.wantError)
		})
	}
}

func TestPerformSync_SourceErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		source := &config.SourceConfig{File: &config.FileConfig{Path: filepath.Join(t.TempDir(), "missing.json")}}

		result, err := newManager(source, mocks.NewMockProductSender(ctrl), state.NewMemoryStore()).PerformSync(context.Background())
		require.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "fetch failed")
	})

	t.Run("not an array", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)

		_, err := newManager(writeExport(t, `{"id": "SKU-1"}`), mocks.NewMockProductSender(ctrl), state.NewMemoryStore()).
			PerformSync(context.Background())
		require.ErrorIs(t, err, catalog.ErrInvalidSource)
	})

	t.Run("handler creation fails", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		factory := sourcesmocks.NewMockSourceHandlerFactory(ctrl)
		factory.EXPECT().CreateHandler(config.SourceTypeFile).Return(nil, errors.New("unsupported source type: file"))

		manager := pkgsync.NewDefaultSyncManager(
			writeExport(t, threeProducts), factory, catalog.NewTransformer(),
			mocks.NewMockProductSender(ctrl), state.NewMemoryStore(),
		)
		_, err := manager.PerformSync(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create source handler")
	})

	t.Run("validation fails", func(t *testing.T) {
		t.Parallel()
		ctrl := gomock.NewController(t)
		handler := sourcesmocks.NewMockSourceHandler(ctrl)
		handler.EXPECT().Validate(gomock.Any()).Return(errors.New("file path cannot be empty"))
		factory := sourcesmocks.NewMockSourceHandlerFactory(ctrl)
		factory.EXPECT().CreateHandler(gomock.Any()).Return(handler, nil)

		manager := pkgsync.NewDefaultSyncManager(
			&config.SourceConfig{File: &config.FileConfig{}}, factory, catalog.NewTransformer(),
			mocks.NewMockProductSender(ctrl), state.NewMemoryStore(),
		)
		_, err := manager.PerformSync(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "source validation failed")
	})
}

func TestPerformSync_StopsWhenContextCancelled(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := state.NewMemoryStore()

	sender := mocks.NewMockProductSender(ctrl)
	sender.EXPECT().SendProduct(gomock.Any(), gomock.Any(), true).
		DoAndReturn(func(context.Context, catalog.Product, bool) (*httpclient.Response, error) {
			cancel()
			return &httpclient.Response{StatusCode: http.StatusCreated}, nil
		})

	result, err := newManager(writeExport(t, threeProducts), sender, store).PerformSync(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, store.Len())
}
