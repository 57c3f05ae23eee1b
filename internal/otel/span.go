// Package otel provides tracing helpers shared by the sync pipeline.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on sync spans
const (
	AttrRunID       = attribute.Key("sync.run_id")
	AttrTarget      = attribute.Key("sync.target")
	AttrSourceType  = attribute.Key("source.type")
	AttrSourceHash  = attribute.Key("source.hash")
	AttrSKU         = attribute.Key("product.sku")
	AttrAction      = attribute.Key("sync.action")
	AttrRecordCount = attribute.Key("record.count")
	AttrSent        = attribute.Key("sync.sent")
	AttrSkipped     = attribute.Key("sync.skipped")
	AttrErrors      = attribute.Key("sync.errors")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns the span already in ctx.
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

// RecordError records err on the span and marks it failed.
// The status description stays generic, details live in the span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
