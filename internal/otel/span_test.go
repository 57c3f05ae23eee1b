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

func TestStartSpan(t *testing.T) {
	t.Parallel()

	t.Run("nil tracer returns existing span", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		gotCtx, span := StartSpan(ctx, nil, "noop")
		assert.Equal(t, ctx, gotCtx)
		assert.False(t, span.SpanContext().IsValid())
	})

	t.Run("records span with attributes", func(t *testing.T) {
		t.Parallel()

		exporter := tracetest.NewInMemoryExporter()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

		_, span := StartSpan(context.Background(), tp.Tracer("test"), "sync.record",
			trace.WithAttributes(AttrSKU.String("A1")))
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "sync.record", spans[0].Name)
		assert.Contains(t, spans[0].Attributes, AttrSKU.String("A1"))
	})
}

func TestRecordError(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	RecordError(span, nil)
	RecordError(nil, errors.New("ignored"))
	RecordError(span, errors.New("boom"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "operation failed", spans[0].Status.Description)
	require.Len(t, spans[0].Events, 1)
}
