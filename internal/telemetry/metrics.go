package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/stacklok/catalog-sync/sync"

	// ClientMetricsMeterName is the name used for the outbound client meter
	ClientMetricsMeterName = "github.com/stacklok/catalog-sync/client"
)

// Record outcomes reported by SyncMetrics
const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// SyncMetrics holds the OpenTelemetry instruments for sync runs
type SyncMetrics struct {
	syncDuration metric.Float64Histogram
	records      metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"catalog_sync_run_duration_seconds",
		metric.WithDescription("Duration of sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 900),
	)
	if err != nil {
		return nil, err
	}

	records, err := meter.Int64Counter(
		"catalog_sync_records_total",
		metric.WithDescription("Number of processed catalog records by outcome"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration: syncDuration,
		records:      records,
	}, nil
}

// RecordSyncDuration records the duration of a sync run
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, target string, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("target", target),
		attribute.Bool("success", success),
	))
}

// RecordOutcome counts one processed record
func (m *SyncMetrics) RecordOutcome(ctx context.Context, target, outcome string) {
	if m == nil || m.records == nil {
		return
	}

	m.records.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target", target),
		attribute.String("outcome", outcome),
	))
}

// ClientMetrics holds the OpenTelemetry instruments for outbound API calls
type ClientMetrics struct {
	requests  metric.Int64Counter
	throttled metric.Int64Counter
	waits     metric.Float64Histogram
}

// NewClientMetrics creates a new ClientMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewClientMetrics(provider metric.MeterProvider) (*ClientMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(ClientMetricsMeterName)

	requests, err := meter.Int64Counter(
		"catalog_sync_client_requests_total",
		metric.WithDescription("Outbound request attempts by status class"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	throttled, err := meter.Int64Counter(
		"catalog_sync_client_throttled_total",
		metric.WithDescription("Attempts answered with 429 and retried"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	waits, err := meter.Float64Histogram(
		"catalog_sync_client_retry_wait_seconds",
		metric.WithDescription("Time waited before retrying a throttled request"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0, 0.5, 1, 2, 5, 10, 30, 60),
	)
	if err != nil {
		return nil, err
	}

	return &ClientMetrics{
		requests:  requests,
		throttled: throttled,
		waits:     waits,
	}, nil
}

// RecordRequest counts one attempt. A zero status means the request never got a response.
func (m *ClientMetrics) RecordRequest(ctx context.Context, method string, status int) {
	if m == nil || m.requests == nil {
		return
	}

	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status_class", statusClass(status)),
	))
}

// RecordThrottled counts a retried 429 and the wait applied before the retry
func (m *ClientMetrics) RecordThrottled(ctx context.Context, method string, wait time.Duration) {
	if m == nil || m.throttled == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("method", method))
	m.throttled.Add(ctx, 1, attrs)
	m.waits.Record(ctx, wait.Seconds(), attrs)
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return fmt.Sprintf("%dxx", status/100)
}
