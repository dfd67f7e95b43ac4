package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span operation constants for consistent span naming.
const (
	SpanOpHTTPServer  = "http.server"
	SpanOpSeriesStore = "series.store"
	SpanOpAlign       = "analytics.align"
	SpanOpCorrelate   = "analytics.correlate"
	SpanOpForecast    = "analytics.forecast"
	SpanOpCacheGet    = "cache.get_or_compute"
	SpanOpDBQuery     = "db.query"
)

const tracerName = "github.com/crosslens/crosslens-go"

// StartSpan begins a span for the given operation and name.
func StartSpan(ctx context.Context, op string, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name,
		trace.WithAttributes(attribute.String("operation", op)),
	)
}

// FinishSpan records err (if any) on the span and ends it.
func FinishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CaptureException records err on the span in ctx, if one is active.
func CaptureException(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
