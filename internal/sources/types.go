package sources

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/stacklok/catalog-sync/internal/config"
)

//go:generate mockgen -destination=mocks/mock_source_handler.go -package=mocks -source=types.go SourceHandler,SourceHandlerFactory

// SourceHandler retrieves the catalog export from an external source
type SourceHandler interface {
	// FetchCatalog retrieves the export and its hash
	FetchCatalog(ctx context.Context, source *config.SourceConfig) (*FetchResult, error)

	// Validate validates the source configuration
	Validate(source *config.SourceConfig) error

	// CurrentHash returns the hash of the export as FetchCatalog would report it
	CurrentHash(ctx context.Context, source *config.SourceConfig) (string, error)
}

// FetchResult contains the result of a fetch operation
type FetchResult struct {
	// Data is the raw export
	Data []byte

	// Hash is the SHA256 hash of Data for change detection
	Hash string

	// Location describes where the export was read from
	Location string
}

// NewFetchResult creates a FetchResult, hashing data
func NewFetchResult(data []byte, location string) *FetchResult {
	return &FetchResult{
		Data:     data,
		Hash:     hashData(data),
		Location: location,
	}
}

// SourceHandlerFactory creates source handlers based on source type
type SourceHandlerFactory interface {
	// CreateHandler creates a source handler for the given source type
	CreateHandler(sourceType string) (SourceHandler, error)
}

func hashData(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
