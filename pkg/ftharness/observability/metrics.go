package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records harness metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordStage records a stage execution with its duration and error status.
	RecordStage(ctx context.Context, stage int, duration time.Duration, err error)

	// RecordCheckpoint records a checkpoint save and whether it failed.
	RecordCheckpoint(ctx context.Context, duration time.Duration, err error)

	// RecordWindowError records a failed FT call.
	RecordWindowError(ctx context.Context, op string)

	// RecordCycle records a completed outer cycle.
	RecordCycle(ctx context.Context, duration time.Duration)

	// RecordResume records the start decision: resumed or fresh.
	RecordResume(ctx context.Context, nextStage int, fresh bool)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	stageExecutions   metric.Int64Counter
	stageLatency      metric.Float64Histogram
	stageErrors       metric.Int64Counter
	checkpointSaves   metric.Int64Counter
	checkpointErrors  metric.Int64Counter
	checkpointLatency metric.Float64Histogram
	windowErrors      metric.Int64Counter
	cycles            metric.Int64Counter
	cycleLatency      metric.Float64Histogram
	resumes           metric.Int64Counter
}

// newOtelMetrics creates the instruments on the current global meter provider.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("ftharness")
	m := &otelMetrics{}
	var err error

	if m.stageExecutions, err = meter.Int64Counter("ftharness.stage.executions",
		metric.WithDescription("Number of stage executions"),
	); err != nil {
		return nil, err
	}

	if m.stageLatency, err = meter.Float64Histogram("ftharness.stage.latency_ms",
		metric.WithDescription("Stage execution latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.stageErrors, err = meter.Int64Counter("ftharness.stage.errors",
		metric.WithDescription("Number of failed stage executions"),
	); err != nil {
		return nil, err
	}

	if m.checkpointSaves, err = meter.Int64Counter("ftharness.checkpoint.saves",
		metric.WithDescription("Number of checkpoint saves"),
	); err != nil {
		return nil, err
	}

	if m.checkpointErrors, err = meter.Int64Counter("ftharness.checkpoint.errors",
		metric.WithDescription("Number of failed checkpoint saves"),
	); err != nil {
		return nil, err
	}

	if m.checkpointLatency, err = meter.Float64Histogram("ftharness.checkpoint.latency_ms",
		metric.WithDescription("Checkpoint save latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.windowErrors, err = meter.Int64Counter("ftharness.ft.errors",
		metric.WithDescription("Number of failed FT manager calls"),
	); err != nil {
		return nil, err
	}

	if m.cycles, err = meter.Int64Counter("ftharness.cycles",
		metric.WithDescription("Number of completed work cycles"),
	); err != nil {
		return nil, err
	}

	if m.cycleLatency, err = meter.Float64Histogram("ftharness.cycle.latency_ms",
		metric.WithDescription("Work cycle latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.resumes, err = meter.Int64Counter("ftharness.starts",
		metric.WithDescription("Run starts by resume decision"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// Instruments are bound to the global OTel meter provider at call time.
// Configure the provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := newOtelMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordStage records a stage execution.
func (m *otelMetrics) RecordStage(ctx context.Context, stage int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.Int("stage", stage))

	m.stageExecutions.Add(ctx, 1, attrs)
	m.stageLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		m.stageErrors.Add(ctx, 1, attrs)
	}
}

// RecordCheckpoint records a checkpoint save.
func (m *otelMetrics) RecordCheckpoint(ctx context.Context, duration time.Duration, err error) {
	m.checkpointSaves.Add(ctx, 1)
	m.checkpointLatency.Record(ctx, float64(duration.Milliseconds()))
	if err != nil {
		m.checkpointErrors.Add(ctx, 1)
	}
}

// RecordWindowError records a failed FT call.
func (m *otelMetrics) RecordWindowError(ctx context.Context, op string) {
	m.windowErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

// RecordCycle records a completed cycle.
func (m *otelMetrics) RecordCycle(ctx context.Context, duration time.Duration) {
	m.cycles.Add(ctx, 1)
	m.cycleLatency.Record(ctx, float64(duration.Milliseconds()))
}

// RecordResume records the start decision.
func (m *otelMetrics) RecordResume(ctx context.Context, nextStage int, fresh bool) {
	m.resumes.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("fresh", fresh),
		attribute.Int("next_stage", nextStage),
	))
}
