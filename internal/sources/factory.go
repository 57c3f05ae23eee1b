package sources

import (
	"fmt"

	"github.com/stacklok/catalog-sync/internal/config"
)

// defaultSourceHandlerFactory is the default implementation of SourceHandlerFactory
type defaultSourceHandlerFactory struct {
	s3Opts []S3Option
}

var _ SourceHandlerFactory = (*defaultSourceHandlerFactory)(nil)

// NewSourceHandlerFactory creates a new source handler factory
func NewSourceHandlerFactory(s3Opts ...S3Option) SourceHandlerFactory {
	return &defaultSourceHandlerFactory{s3Opts: s3Opts}
}

// CreateHandler creates a source handler for the given source type
func (f *defaultSourceHandlerFactory) CreateHandler(sourceType string) (SourceHandler, error) {
	switch sourceType {
	case config.SourceTypeFile:
		return NewFileSourceHandler(), nil
	case config.SourceTypeS3:
		return NewS3SourceHandler(f.s3Opts...), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sourceType)
	}
}
