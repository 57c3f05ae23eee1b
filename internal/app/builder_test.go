package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/catalog-sync/internal/config"
	"github.com/stacklok/catalog-sync/internal/eshop"
	"github.com/stacklok/catalog-sync/internal/sync/mocks"
)

const exportData = `[
  {"id": "SKU-1", "title": "Kettle", "price_vat_excl": 100, "stocks": {"praha": 2}, "attributes": {"color": "black"}},
  {"id": "SKU-2", "title": "Toaster", "price_vat_excl": 50, "stocks": {"praha": 1}, "attributes": null}
]`

// eshopRecorder is an e-shop stand-in that accepts every product
type eshopRecorder struct {
	mu       gosync.Mutex
	requests []string
	apiKeys  []string
}

func (e *eshopRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	e.mu.Lock()
	e.requests = append(e.requests, r.Method+" "+r.URL.Path)
	e.apiKeys = append(e.apiKeys, r.Header.Get(eshop.APIKeyHeader))
	e.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (e *eshopRecorder) snapshot() ([]string, []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.requests...), append([]string(nil), e.apiKeys...)
}

// createTestConfig writes an export and an API key file and returns a config
// using file storage under a temporary directory
func createTestConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	exportPath := filepath.Join(dir, "erp_data.json")
	require.NoError(t, os.WriteFile(exportPath, []byte(exportData), 0600))
	keyPath := filepath.Join(dir, "api-key")
	require.NoError(t, os.WriteFile(keyPath, []byte("secret-key\n"), 0600))

	return &config.Config{
		Eshop: config.EshopConfig{
			BaseURL:    baseURL,
			APIKeyFile: keyPath,
			RateLimit:  100,
		},
		Source: config.SourceConfig{
			File: &config.FileConfig{Path: exportPath},
		},
		Storage: &config.StorageConfig{
			Type: config.StorageTypeFile,
			File: &config.FileStorageConfig{DataDir: filepath.Join(dir, "data")},
		},
	}
}

func TestNewCatalogSyncApp_RunOnce(t *testing.T) {
	t.Parallel()

	recorder := &eshopRecorder{}
	server := httptest.NewServer(recorder)
	t.Cleanup(server.Close)

	cfg := createTestConfig(t, server.URL+"/api")
	app, err := NewCatalogSyncApp(context.Background(), WithConfig(cfg))
	require.NoError(t, err)
	t.Cleanup(app.Close)

	result, err := app.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 0, result.Errors)

	requests, keys := recorder.snapshot()
	assert.ElementsMatch(t, []string{"POST /api/products/", "POST /api/products/"}, requests)
	assert.Equal(t, []string{"secret-key", "secret-key"}, keys)

	// Nothing changed, the second run only skips
	result, err = app.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 2, result.Skipped)

	requests, _ = recorder.snapshot()
	assert.Len(t, requests, 2)

	syncStatus, err := app.components.StateService.GetSyncStatus(context.Background(), "eshop")
	require.NoError(t, err)
	assert.Equal(t, 2, syncStatus.Skipped)
	assert.Equal(t, result.SourceHash, syncStatus.LastSourceHash)
}

func TestNewCatalogSyncApp_InjectedSender(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	sender := mocks.NewMockProductSender(ctrl)
	sender.EXPECT().SendProduct(gomock.Any(), gomock.Any(), true).Return(nil, nil).Times(2)

	cfg := createTestConfig(t, "http://localhost:1")
	cfg.Eshop.APIKeyFile = ""
	app, err := NewCatalogSyncApp(context.Background(), WithConfig(cfg), WithProductSender(sender))
	require.NoError(t, err)
	t.Cleanup(app.Close)

	result, err := app.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
}

func TestNewCatalogSyncApp_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    func(t *testing.T) []CatalogSyncAppOptions
		wantErr string
	}{
		{
			name:    "missing config",
			opts:    func(*testing.T) []CatalogSyncAppOptions { return nil },
			wantErr: "config cannot be nil",
		},
		{
			name: "invalid address",
			opts: func(t *testing.T) []CatalogSyncAppOptions {
				t.Helper()
				return []CatalogSyncAppOptions{
					WithConfig(createTestConfig(t, "http://localhost")),
					WithAddress("nope"),
				}
			},
			wantErr: "address is not a valid port",
		},
		{
			name: "invalid VAT rate",
			opts: func(t *testing.T) []CatalogSyncAppOptions {
				t.Helper()
				cfg := createTestConfig(t, "http://localhost")
				cfg.Transform = &config.TransformConfig{VATRate: "twenty"}
				return []CatalogSyncAppOptions{WithConfig(cfg)}
			},
			wantErr: "transform.vatRate must be a decimal number",
		},
		{
			name: "missing API key",
			opts: func(t *testing.T) []CatalogSyncAppOptions {
				t.Helper()
				cfg := createTestConfig(t, "http://localhost")
				cfg.Eshop.APIKeyFile = filepath.Join(t.TempDir(), "missing")
				return []CatalogSyncAppOptions{WithConfig(cfg)}
			},
			wantErr: "failed to read e-shop API key",
		},
		{
			name: "invalid base URL",
			opts: func(t *testing.T) []CatalogSyncAppOptions {
				t.Helper()
				return []CatalogSyncAppOptions{WithConfig(createTestConfig(t, "ftp://shop"))}
			},
			wantErr: "invalid base URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, err := NewCatalogSyncApp(context.Background(), tt.opts(t)...)
			require.Error(t, err)
			assert.Nil(t, app)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWithAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "port only", addr: ":8080"},
		{name: "localhost", addr: "localhost:9090"},
		{name: "ip and port", addr: "127.0.0.1:0"},
		{name: "empty", addr: "", wantErr: true},
		{name: "no port", addr: "localhost", wantErr: true},
		{name: "empty port", addr: "localhost:", wantErr: true},
		{name: "invalid port", addr: ":http-alt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &catalogSyncAppConfig{}
			err := WithAddress(tt.addr)(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, cfg.address)
		})
	}
}

func TestWithShutdownTimeout(t *testing.T) {
	t.Parallel()

	cfg := &catalogSyncAppConfig{}
	require.Error(t, WithShutdownTimeout(0)(cfg))
	require.NoError(t, WithShutdownTimeout(5)(cfg))
	assert.EqualValues(t, 5, cfg.shutdownTimeout)
}

func TestBuildHTTPServer_Routes(t *testing.T) {
	t.Parallel()

	cfg := createTestConfig(t, "http://localhost")
	app, err := NewCatalogSyncApp(context.Background(), WithConfig(cfg))
	require.NoError(t, err)
	t.Cleanup(app.Close)

	handler := app.GetHTTPServer().Handler

	// Not ready until the coordinator loaded the run status
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readiness", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/sync", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}
