package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const storeInstrumentation = "github.com/nimburion/catalog/store"

// StartStoreSpan opens a client span for one document store call.
// The span name is "<system> <operation> <collection>".
func StartStoreSpan(ctx context.Context, system, operation, collection string) (context.Context, trace.Span) {
	return otel.Tracer(storeInstrumentation).Start(ctx, system+" "+operation+" "+collection,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", system),
			attribute.String("db.operation", operation),
			attribute.String("db.collection", collection),
		),
	)
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
