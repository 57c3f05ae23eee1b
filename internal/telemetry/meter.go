package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const (
	// DefaultMetricsInterval is the default interval for metric collection
	DefaultMetricsInterval = 60 * time.Second
)

// MeterProviderOption is a function that configures the meter provider setup
type MeterProviderOption func(*meterProviderConfig)

type meterProviderConfig struct {
	serviceName    string
	serviceVersion string
	metricsConfig  *MetricsConfig
	endpoint       string
	insecure       bool
	registerer     prometheus.Registerer
	attributes     []attribute.KeyValue
}

// WithMeterServiceName sets the service name for the meter provider
func WithMeterServiceName(name string) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.serviceName = name
	}
}

// WithMeterServiceVersion sets the service version for the meter provider
func WithMeterServiceVersion(version string) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.serviceVersion = version
	}
}

// WithMetricsConfig sets the metrics configuration
func WithMetricsConfig(mc *MetricsConfig) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.metricsConfig = mc
	}
}

// WithMeterEndpoint sets the OTLP endpoint for the meter provider
func WithMeterEndpoint(endpoint string) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.endpoint = endpoint
	}
}

// WithMeterInsecure sets the insecure flag for the meter provider
func WithMeterInsecure(insecure bool) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.insecure = insecure
	}
}

// WithPrometheusRegisterer sets where the Prometheus exporter registers its collector
func WithPrometheusRegisterer(r prometheus.Registerer) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.registerer = r
	}
}

// WithMeterResourceAttributes adds attributes to the resource every metric is reported with
func WithMeterResourceAttributes(attrs ...attribute.KeyValue) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.attributes = append(cfg.attributes, attrs...)
	}
}

// NewMeterProvider creates a new OpenTelemetry MeterProvider based on the configuration.
// Returns a no-op provider if metrics are disabled or configuration is nil.
// The caller is responsible for calling Shutdown on the returned provider.
func NewMeterProvider(ctx context.Context, opts ...MeterProviderOption) (metric.MeterProvider, error) {
	cfg := &meterProviderConfig{
		serviceName:    DefaultServiceName,
		serviceVersion: "unknown",
		endpoint:       DefaultEndpoint,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.metricsConfig == nil || !cfg.metricsConfig.Enabled {
		slog.Info("Metrics disabled, using no-op meter provider")
		return noop.NewMeterProvider(), nil
	}

	res, err := newResource(ctx, cfg.serviceName, cfg.serviceVersion, cfg.attributes)
	if err != nil {
		return nil, err
	}

	providerOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if !cfg.metricsConfig.DisableOTLP {
		exporter, err := createOTLPMetricsExporter(ctx, cfg.endpoint, cfg.insecure)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(DefaultMetricsInterval)),
		))
	}

	if cfg.metricsConfig.Prometheus {
		promOpts := []otelprom.Option{}
		if cfg.registerer != nil {
			promOpts = append(promOpts, otelprom.WithRegisterer(cfg.registerer))
		}
		reader, err := otelprom.New(promOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(providerOpts...)

	otel.SetMeterProvider(mp)

	slog.Info("Metrics initialized",
		"endpoint", cfg.endpoint,
		"otlp", !cfg.metricsConfig.DisableOTLP,
		"prometheus", cfg.metricsConfig.Prometheus,
	)

	return mp, nil
}

func createOTLPMetricsExporter(ctx context.Context, endpoint string, insecure bool) (sdkmetric.Exporter, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(endpoint),
	}

	if insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	return exporter, nil
}
