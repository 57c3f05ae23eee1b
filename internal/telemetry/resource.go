package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// newResource describes the process for both providers. Extra attributes
// identify what this instance synchronizes, e.g. the sync target and the
// source type.
//
// resource.New is used instead of merging with resource.Default() to avoid
// schema URL conflicts between semconv versions.
func newResource(ctx context.Context, serviceName, serviceVersion string, extra []attribute.KeyValue) (*resource.Resource, error) {
	attrs := make([]attribute.KeyValue, 0, len(extra)+2)
	attrs = append(attrs,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
	attrs = append(attrs, extra...)

	res, err := resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
