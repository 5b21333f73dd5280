package observability

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope of harness spans.
const tracerName = "ftharness"

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartRunSpan starts a span for the entire run.
	StartRunSpan(ctx context.Context, job, role, runID string) (context.Context, trace.Span)

	// StartCycleSpan starts a span for one outer cycle. It is a child of the
	// run span and covers one FT window.
	StartCycleSpan(ctx context.Context, cycle, fromStage int) (context.Context, trace.Span)

	// StartStageSpan starts a span for one stage execution.
	StartStageSpan(ctx context.Context, stage int, name string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager binds to the global OTel tracer provider at call time.
// Configure the provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{tracer: otel.Tracer(tracerName)}
}

// StartRunSpan starts a span for the entire run.
func (m *otelSpanManager) StartRunSpan(ctx context.Context, job, role, runID string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "ftharness.run",
		trace.WithAttributes(
			attribute.String("job.name", job),
			attribute.String("job.role", role),
			attribute.String("run.id", runID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartCycleSpan starts a span for one cycle.
func (m *otelSpanManager) StartCycleSpan(ctx context.Context, cycle, fromStage int) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "ftharness.cycle",
		trace.WithAttributes(
			attribute.Int("cycle.index", cycle),
			attribute.Int("cycle.from_stage", fromStage),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartStageSpan starts a span for one stage.
func (m *otelSpanManager) StartStageSpan(ctx context.Context, stage int, name string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "ftharness.stage."+strconv.Itoa(stage),
		trace.WithAttributes(
			attribute.Int("stage.index", stage),
			attribute.String("stage.name", name),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
