package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, trace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func TestStartSpan_NilTracer(t *testing.T) {
	t.Parallel()

	ctx, span := StartSpan(context.Background(), nil, "sync.Run")
	require.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
	assert.NotPanics(t, func() { span.End() })
}

func TestStartSpan_RecordsAttributesAndErrors(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)

	_, span := StartSpan(context.Background(), tp.Tracer("test"), "sync.Publish",
		trace.WithAttributes(AttrArticleURL.String("https://example.com/articles/a/")),
	)
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "sync.Publish", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "operation failed", spans[0].Status.Description)
	require.Len(t, spans[0].Events, 1)
	assert.Contains(t, spans[0].Attributes, AttrArticleURL.String("https://example.com/articles/a/"))
}

func TestStartStage(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)

	_, span := StartStage(context.Background(), tp.Tracer("test"), "publish",
		AttrDestination.String("notion"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "sync.publish", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, AttrStage.String("publish"))
	assert.Contains(t, spans[0].Attributes, AttrDestination.String("notion"))
}

func TestRecordError_NilSpan(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { RecordError(nil, errors.New("boom")) })
}
