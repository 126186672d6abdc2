package logger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "funnelhq.app/portal"

// SpanContext pairs a span with the context that carries it.
//
//	span := logger.StartSpan(ctx, "deletion.hard_delete")
//	defer span.End()
//	ctx = span.Context()
type SpanContext struct {
	ctx  context.Context
	span trace.Span
}

func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) *SpanContext {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, opts...)
	return &SpanContext{ctx: ctx, span: span}
}

// StartSpanFromTraceID continues the trace of the request that staged a
// recovery job. The trace ID travels on the job stream; an empty or malformed
// ID starts a fresh trace.
func StartSpanFromTraceID(ctx context.Context, traceID string, name string, opts ...trace.SpanStartOption) *SpanContext {
	if parsed, err := trace.TraceIDFromHex(traceID); err == nil {
		remote := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    parsed,
			TraceFlags: trace.FlagsSampled,
			Remote:     true,
		})
		ctx = trace.ContextWithRemoteSpanContext(ctx, remote)
		opts = append(opts, trace.WithLinks(trace.Link{SpanContext: remote}))
	}
	return StartSpan(ctx, name, opts...)
}

// TraceID returns the hex trace ID active in ctx, or "".
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

func (sc *SpanContext) Context() context.Context {
	return sc.ctx
}

func (sc *SpanContext) End() {
	sc.span.End()
}

// RecordError marks the span failed. A nil err is ignored.
func (sc *SpanContext) RecordError(err error) {
	if err == nil {
		return
	}
	sc.span.RecordError(err)
	sc.span.SetStatus(codes.Error, err.Error())
}
