package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest installs a test meter provider and returns its reader.
func setupMetricsTest(t *testing.T) *sdkmetric.ManualReader {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		otel.SetMeterProvider(original)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	})
	return reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumValue totals an int64 sum, optionally filtered by one int attribute.
func sumValue(t *testing.T, m *metricdata.Metrics, key string, value int64) int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")

	var total int64
	for _, dp := range sum.DataPoints {
		if key == "" {
			total += dp.Value
			continue
		}
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsInt64() == value {
			total += dp.Value
		}
	}
	return total
}

func TestNewMetricsRecorder(t *testing.T) {
	setupMetricsTest(t)

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)
	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordStage(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordStage(ctx, 1, 5*time.Millisecond, nil)
	m.RecordStage(ctx, 1, 5*time.Millisecond, nil)
	m.RecordStage(ctx, 2, 5*time.Millisecond, errors.New("panic"))

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumValue(t, findMetric(rm, "ftharness.stage.executions"), "stage", 1))
	assert.Equal(t, int64(1), sumValue(t, findMetric(rm, "ftharness.stage.errors"), "stage", 2))
	assert.Equal(t, int64(0), sumValue(t, findMetric(rm, "ftharness.stage.errors"), "stage", 1))

	latency := findMetric(rm, "ftharness.stage.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "Expected Histogram type")
	assert.NotEmpty(t, hist.DataPoints)
}

func TestRecordCheckpoint(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordCheckpoint(ctx, time.Millisecond, nil)
	m.RecordCheckpoint(ctx, time.Millisecond, errors.New("disk full"))

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumValue(t, findMetric(rm, "ftharness.checkpoint.saves"), "", 0))
	assert.Equal(t, int64(1), sumValue(t, findMetric(rm, "ftharness.checkpoint.errors"), "", 0))
}

func TestRecordCycleAndResume(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordCycle(ctx, time.Millisecond)
	m.RecordCycle(ctx, time.Millisecond)
	m.RecordResume(ctx, 3, false)
	m.RecordWindowError(ctx, "begin_window")

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumValue(t, findMetric(rm, "ftharness.cycles"), "", 0))
	assert.Equal(t, int64(1), sumValue(t, findMetric(rm, "ftharness.starts"), "next_stage", 3))
	assert.Equal(t, int64(1), sumValue(t, findMetric(rm, "ftharness.ft.errors"), "", 0))
}

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordStage(ctx, 1, time.Second, errors.New("x"))
		m.RecordCheckpoint(ctx, time.Second, nil)
		m.RecordWindowError(ctx, "end_window")
		m.RecordCycle(ctx, time.Second)
		m.RecordResume(ctx, 1, true)
	})
}
