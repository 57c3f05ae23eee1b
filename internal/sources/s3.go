package sources

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/stacklok/catalog-sync/internal/config"
)

// MaxObjectSize is the largest export accepted from S3 (64MB)
const MaxObjectSize = 64 * 1024 * 1024

// ObjectGetter is the subset of the S3 API used to download the export
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ClientFactory builds an S3 client for a source configuration
type ClientFactory func(ctx context.Context, cfg *config.S3Config) (ObjectGetter, error)

// s3SourceHandler downloads the export from an S3 bucket
type s3SourceHandler struct {
	newClient ClientFactory
}

// S3Option configures the S3 source handler
type S3Option func(*s3SourceHandler)

// WithClientFactory replaces how S3 clients are created
func WithClientFactory(f ClientFactory) S3Option {
	return func(h *s3SourceHandler) {
		h.newClient = f
	}
}

// NewS3SourceHandler creates a new S3 source handler
func NewS3SourceHandler(opts ...S3Option) SourceHandler {
	h := &s3SourceHandler{
		newClient: func(ctx context.Context, cfg *config.S3Config) (ObjectGetter, error) {
			return NewS3Client(ctx, cfg)
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewS3Client creates an S3 client from the default AWS credential chain.
// Region, endpoint and path style come from cfg when set.
func NewS3Client(ctx context.Context, cfg *config.S3Config, loadOpts ...func(*awsconfig.LoadOptions) error) (*s3.Client, error) {
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// Validate validates the S3 source configuration
func (*s3SourceHandler) Validate(source *config.SourceConfig) error {
	if source == nil {
		return fmt.Errorf("source configuration cannot be nil")
	}
	if source.S3 == nil {
		return fmt.Errorf("s3 configuration is required")
	}
	if source.S3.Bucket == "" {
		return fmt.Errorf("s3 bucket cannot be empty")
	}
	if source.S3.Key == "" {
		return fmt.Errorf("s3 key cannot be empty")
	}
	return nil
}

// FetchCatalog downloads the export object
func (h *s3SourceHandler) FetchCatalog(ctx context.Context, source *config.SourceConfig) (*FetchResult, error) {
	if err := h.Validate(source); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	cfg := source.S3
	location := fmt.Sprintf("s3://%s/%s", cfg.Bucket, cfg.Key)

	client, err := h.newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(cfg.Bucket),
		Key:    aws.String(cfg.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", location, err)
	}
	defer func() {
		_ = out.Body.Close()
	}()

	// +1 to detect if limit exceeded
	data, err := io.ReadAll(io.LimitReader(out.Body, MaxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	if len(data) > MaxObjectSize {
		return nil, fmt.Errorf("%s exceeds maximum allowed size of %d bytes", location, MaxObjectSize)
	}

	return NewFetchResult(data, location), nil
}

// CurrentHash downloads and hashes the object. The ETag is not used since
// multipart uploads do not produce a content hash.
func (h *s3SourceHandler) CurrentHash(ctx context.Context, source *config.SourceConfig) (string, error) {
	result, err := h.FetchCatalog(ctx, source)
	if err != nil {
		return "", err
	}
	return result.Hash, nil
}
