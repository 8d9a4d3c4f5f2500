package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/articlesync/articlesync/sync"

	// RequestMetricsMeterName is the name used for the upstream request metrics meter
	RequestMetricsMeterName = "github.com/articlesync/articlesync/httpclient"
)

// SyncMetrics holds the instruments recorded once per sync run
type SyncMetrics struct {
	syncDuration      metric.Float64Histogram
	articlesPublished metric.Int64Counter
	articlesPlanned   metric.Int64Gauge
	articlesKnown     metric.Int64Gauge
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"articlesync_sync_duration_seconds",
		metric.WithDescription("Duration of sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300, 600, 1800),
	)
	if err != nil {
		return nil, err
	}

	articlesPublished, err := meter.Int64Counter(
		"articlesync_articles_published_total",
		metric.WithDescription("Articles written to the destination"),
		metric.WithUnit("{article}"),
	)
	if err != nil {
		return nil, err
	}

	articlesPlanned, err := meter.Int64Gauge(
		"articlesync_articles_planned",
		metric.WithDescription("Articles found new by the last plan"),
		metric.WithUnit("{article}"),
	)
	if err != nil {
		return nil, err
	}

	articlesKnown, err := meter.Int64Gauge(
		"articlesync_articles_known",
		metric.WithDescription("Articles recorded in the cache after the last run"),
		metric.WithUnit("{article}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration:      syncDuration,
		articlesPublished: articlesPublished,
		articlesPlanned:   articlesPlanned,
		articlesKnown:     articlesKnown,
	}, nil
}

// RecordSyncDuration records the duration of a sync run
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}
	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordPublished increments the published article counter
func (m *SyncMetrics) RecordPublished(ctx context.Context, destination string) {
	if m == nil || m.articlesPublished == nil {
		return
	}
	m.articlesPublished.Add(ctx, 1, metric.WithAttributes(attribute.String("destination", destination)))
}

// RecordPlanned records how many articles the planner found
func (m *SyncMetrics) RecordPlanned(ctx context.Context, count int) {
	if m == nil || m.articlesPlanned == nil {
		return
	}
	m.articlesPlanned.Record(ctx, int64(count))
}

// RecordKnown records the size of the article index after a run
func (m *SyncMetrics) RecordKnown(ctx context.Context, count int) {
	if m == nil || m.articlesKnown == nil {
		return
	}
	m.articlesKnown.Record(ctx, int64(count))
}

// RequestMetrics counts outbound requests per gate channel
type RequestMetrics struct {
	requests metric.Int64Counter
}

// NewRequestMetrics creates a new RequestMetrics instance.
// If provider is nil, it returns nil (no-op metrics).
func NewRequestMetrics(provider metric.MeterProvider) (*RequestMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	requests, err := provider.Meter(RequestMetricsMeterName).Int64Counter(
		"articlesync_upstream_requests_total",
		metric.WithDescription("Outbound requests by channel and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &RequestMetrics{requests: requests}, nil
}

// RecordRequest counts one outbound request
func (m *RequestMetrics) RecordRequest(ctx context.Context, channel, method string, success bool) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("method", method),
		attribute.Bool("success", success),
	))
}
