// Package otel holds the tracing helpers shared by the sync stages.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys recorded on sync spans.
const (
	AttrRunID        = attribute.Key("sync.run_id")
	AttrStage        = attribute.Key("sync.stage")
	AttrPlannerMode  = attribute.Key("sync.planner_mode")
	AttrPage         = attribute.Key("pagination.page")
	AttrPageSize     = attribute.Key("pagination.limit")
	AttrArticleURL   = attribute.Key("article.url")
	AttrDestination  = attribute.Key("destination.type")
	AttrResultCount  = attribute.Key("result.count")
	AttrUpstreamHits = attribute.Key("result.total")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns the
// span already in ctx (a no-op span when there is none).
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// StartStage starts the span of one sync stage, named "sync.<stage>" and
// tagged with AttrStage plus attrs.
func StartStage(
	ctx context.Context,
	tracer trace.Tracer,
	stage string,
	attrs ...attribute.KeyValue,
) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{AttrStage.String(stage)}, attrs...)
	return StartSpan(ctx, tracer, "sync."+stage, trace.WithAttributes(attrs...))
}

// RecordError records err on span and marks the span as failed.
// The status description stays generic; details live in the span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
