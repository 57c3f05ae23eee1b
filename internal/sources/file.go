package sources

import (
	"context"
	"fmt"
	"os"

	"github.com/stacklok/catalog-sync/internal/config"
)

// fileSourceHandler reads the export from the local filesystem
type fileSourceHandler struct{}

// NewFileSourceHandler creates a new file source handler
func NewFileSourceHandler() SourceHandler {
	return &fileSourceHandler{}
}

// Validate validates the file source configuration
func (*fileSourceHandler) Validate(source *config.SourceConfig) error {
	if source == nil {
		return fmt.Errorf("source configuration cannot be nil")
	}
	if source.File == nil {
		return fmt.Errorf("file configuration is required")
	}
	if source.File.Path == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	return nil
}

// FetchCatalog reads the export file
func (h *fileSourceHandler) FetchCatalog(_ context.Context, source *config.SourceConfig) (*FetchResult, error) {
	if err := h.Validate(source); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	path := source.File.Path
	//nolint:gosec // File path comes from user configuration, this is expected behavior
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return NewFetchResult(data, path), nil
}

// CurrentHash reads and hashes the file; this costs as much as a full fetch
func (h *fileSourceHandler) CurrentHash(ctx context.Context, source *config.SourceConfig) (string, error) {
	result, err := h.FetchCatalog(ctx, source)
	if err != nil {
		return "", err
	}
	return result.Hash, nil
}
