package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Telemetry owns the tracer and meter providers of one process.
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	pusher         *push.Pusher
}

// Option is a function that configures the telemetry setup
type Option func(*telemetryConfig)

type telemetryConfig struct {
	config *Config
}

// WithTelemetryConfig sets the telemetry configuration
func WithTelemetryConfig(cfg *Config) Option {
	return func(tc *telemetryConfig) {
		tc.config = cfg
	}
}

// New creates and initializes a new Telemetry instance based on the configuration.
// If telemetry is disabled or configuration is nil, returns a Telemetry with no-op providers.
// The caller is responsible for calling Shutdown before the process exits.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	cfg := &telemetryConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.config == nil || !cfg.config.Enabled {
		slog.Debug("Telemetry disabled")
		return newNoOpTelemetry(), nil
	}

	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	res, err := newResource(ctx, cfg.config)
	if err != nil {
		return nil, err
	}

	tel := &Telemetry{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  noop.NewMeterProvider(),
	}

	if tc := cfg.config.Tracing; tc != nil && tc.Enabled {
		if tel.tracerProvider, err = newTracerProvider(ctx, cfg.config, res); err != nil {
			return nil, fmt.Errorf("failed to create tracer provider: %w", err)
		}
	}

	if mc := cfg.config.Metrics; mc != nil && mc.Enabled {
		registry := prometheus.NewRegistry()
		mp, err := newMeterProvider(ctx, cfg.config, res, registry)
		if err != nil {
			_ = tel.Shutdown(ctx)
			return nil, fmt.Errorf("failed to create meter provider: %w", err)
		}
		tel.meterProvider = mp
		if mc.GetExporter() == MetricsExporterPrometheus {
			tel.pusher = push.New(mc.PushGatewayURL, mc.GetPushJob()).Gatherer(registry)
		}
	}

	slog.Info("Telemetry initialized",
		"service_name", cfg.config.GetServiceName(),
		"service_version", cfg.config.GetServiceVersion(),
	)
	return tel, nil
}

func newNoOpTelemetry() *Telemetry {
	return &Telemetry{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  noop.NewMeterProvider(),
	}
}

// TracerProvider returns the configured tracer provider
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the configured meter provider
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// Tracer returns a named tracer from the tracer provider
func (t *Telemetry) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return t.tracerProvider.Tracer(name, opts...)
}

// Shutdown pushes pending metrics when a Pushgateway is configured, then
// flushes and stops the providers. Safe to call more than once.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.pusher != nil {
		if err := t.pusher.PushContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to push metrics: %w", err))
		}
	}

	if tp, ok := t.tracerProvider.(*sdktrace.TracerProvider); ok {
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}

	if mp, ok := t.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}

	return errors.Join(errs...)
}
