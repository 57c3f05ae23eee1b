// Package telemetry provides OpenTelemetry instrumentation for catalog-sync.
// Traces and metrics are exported over OTLP HTTP, and metrics can also be
// served in Prometheus exposition format.
package telemetry

import (
	"errors"
	"fmt"
)

const (
	// DefaultServiceName is the default service name for telemetry
	DefaultServiceName = "catalog-sync"

	// DefaultEndpoint is the default OTLP endpoint for telemetry
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling is the default trace sampling rate (5%).
	DefaultSampling = 0.05
)

// Config represents the root telemetry configuration
type Config struct {
	// Enabled controls whether telemetry is enabled globally.
	// When false, no-op providers are installed and nothing is exported.
	Enabled bool `yaml:"enabled"`

	// ServiceName identifies the service in traces and metrics.
	// Defaults to "catalog-sync" if not specified
	ServiceName string `yaml:"serviceName,omitempty"`

	// ServiceVersion is reported as service.version.
	// Defaults to the application version if not specified
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is the OTLP collector endpoint in "host:port" form.
	// The exporters append /v1/traces and /v1/metrics themselves.
	// Defaults to "localhost:4318" if not specified
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure allows HTTP connections instead of HTTPS.
	// Intended for local collectors only
	Insecure bool `yaml:"insecure,omitempty"`

	// Tracing contains tracing-specific configuration
	Tracing *TracingConfig `yaml:"tracing,omitempty"`

	// Metrics contains metrics-specific configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig defines tracing-specific configuration
type TracingConfig struct {
	// Enabled turns on span export for sync runs and ops API requests
	Enabled bool `yaml:"enabled"`

	// Sampling controls the trace sampling rate (0.0 to 1.0).
	// Defaults to DefaultSampling if not specified
	Sampling float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig defines metrics-specific configuration
type MetricsConfig struct {
	// Enabled turns on the sync, e-shop client and HTTP metrics.
	// At least one of OTLP or Prometheus must remain active.
	Enabled bool `yaml:"enabled"`

	// Prometheus exposes metrics on the ops API /metrics endpoint
	Prometheus bool `yaml:"prometheus,omitempty"`

	// DisableOTLP turns off the OTLP push exporter, useful with Prometheus scraping only
	DisableOTLP bool `yaml:"disableOTLP,omitempty"`
}

// GetServiceName returns the service name, using default if not specified
func (c *Config) GetServiceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetServiceVersion returns the service version, using "unknown" if not specified
func (c *Config) GetServiceVersion() string {
	if c.ServiceVersion == "" {
		return "unknown"
	}
	return c.ServiceVersion
}

// GetEndpoint returns the endpoint, using default if not specified
func (c *Config) GetEndpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

// GetSampling returns the sampling ratio.
// Zero is treated as unset since YAML cannot tell an omitted value from 0;
// call Validate first.
func (c *TracingConfig) GetSampling() float64 {
	if c.Sampling == 0.0 {
		return DefaultSampling
	}
	return c.Sampling
}

// PrometheusEnabled reports whether the Prometheus endpoint should be served
func (c *Config) PrometheusEnabled() bool {
	return c != nil && c.Enabled && c.Metrics != nil && c.Metrics.Enabled && c.Metrics.Prometheus
}

// Validate validates the telemetry configuration
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error

	if c.Tracing != nil {
		if err := c.Tracing.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("tracing: %w", err))
		}
	}

	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("metrics: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Validate validates the tracing configuration
func (c *TracingConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	if c.Sampling < 0 || c.Sampling > 1.0 {
		return fmt.Errorf("sampling must be between 0.0 and 1.0, got %f", c.Sampling)
	}

	return nil
}

// Validate validates the metrics configuration
func (c *MetricsConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	if c.DisableOTLP && !c.Prometheus {
		return errors.New("at least one exporter is required when OTLP is disabled, enable prometheus")
	}

	return nil
}
