// Package telemetry provides OpenTelemetry instrumentation for sync runs.
// Traces are exported over OTLP. Metrics are exported over OTLP or pushed to a
// Prometheus Pushgateway when the run finishes, since a batch job does not
// live long enough to be scraped.
package telemetry

import (
	"errors"
	"fmt"
	"net/url"
)

const (
	// DefaultServiceName is the default service name for telemetry
	DefaultServiceName = "articlesync"

	// DefaultEndpoint is the default OTLP endpoint for telemetry
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling is the default trace sampling rate.
	// A run produces a handful of spans, so every run is sampled.
	DefaultSampling = 1.0

	// DefaultPushJob is the default Pushgateway job name
	DefaultPushJob = "articlesync"
)

const (
	// MetricsExporterOTLP exports metrics to an OTLP collector
	MetricsExporterOTLP = "otlp"

	// MetricsExporterPrometheus pushes metrics to a Prometheus Pushgateway
	MetricsExporterPrometheus = "prometheus"
)

// Config represents the root telemetry configuration
type Config struct {
	// Enabled controls whether telemetry is enabled globally
	Enabled bool `yaml:"enabled"`

	// ServiceName is the name of the service for telemetry identification
	ServiceName string `yaml:"serviceName,omitempty"`

	// ServiceVersion is the version of the service for telemetry identification
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is the OTLP collector endpoint ("host:port")
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure allows HTTP connections instead of HTTPS
	Insecure bool `yaml:"insecure,omitempty"`

	// Tracing contains tracing-specific configuration
	Tracing *TracingConfig `yaml:"tracing,omitempty"`

	// Metrics contains metrics-specific configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig defines tracing-specific configuration
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling controls the trace sampling rate (0.0 to 1.0)
	Sampling float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig defines metrics-specific configuration
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Exporter is either "otlp" (default) or "prometheus"
	Exporter string `yaml:"exporter,omitempty"`

	// PushGatewayURL is required when Exporter is "prometheus"
	PushGatewayURL string `yaml:"pushGatewayURL,omitempty"`

	// PushJob is the Pushgateway job label
	PushJob string `yaml:"pushJob,omitempty"`
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
// 0 is treated as "use default" since an unset value cannot be told apart from an explicit 0.
func (c *TracingConfig) GetSampling() float64 {
	if c.Sampling == 0.0 {
		return DefaultSampling
	}
	return c.Sampling
}

// GetExporter returns the metrics exporter, defaulting to OTLP
func (c *MetricsConfig) GetExporter() string {
	if c.Exporter == "" {
		return MetricsExporterOTLP
	}
	return c.Exporter
}

// GetPushJob returns the Pushgateway job name
func (c *MetricsConfig) GetPushJob() string {
	if c.PushJob == "" {
		return DefaultPushJob
	}
	return c.PushJob
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

	switch c.GetExporter() {
	case MetricsExporterOTLP:
		return nil
	case MetricsExporterPrometheus:
		if c.PushGatewayURL == "" {
			return fmt.Errorf("pushGatewayURL is required for the prometheus exporter")
		}
		if _, err := url.ParseRequestURI(c.PushGatewayURL); err != nil {
			return fmt.Errorf("invalid pushGatewayURL: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported exporter %q (must be %q or %q)",
			c.Exporter, MetricsExporterOTLP, MetricsExporterPrometheus)
	}
}
