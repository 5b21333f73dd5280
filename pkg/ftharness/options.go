package ftharness

import (
	"context"
	"log/slog"
	"time"

	"github.com/randalmurphal/ftharness/pkg/ftharness/observability"
)

// runConfig holds controller configuration.
type runConfig struct {
	table       Table
	logger      *slog.Logger
	metrics     observability.MetricsRecorder
	spans       observability.SpanManager
	stagePacing time.Duration
	cyclePacing time.Duration
	sleep       func(context.Context, time.Duration) error
	runID       string
}

// defaultRunConfig returns the default controller configuration.
func defaultRunConfig() runConfig {
	return runConfig{
		table:       DefaultTable(),
		logger:      slog.Default(),
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
		stagePacing: time.Second,
		cyclePacing: time.Second,
		sleep:       sleepContext,
	}
}

// Option configures a Controller.
type Option func(*runConfig)

// WithTable sets the stage table. Default: DefaultTable().
func WithTable(t Table) Option {
	return func(c *runConfig) {
		c.table = t
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables OpenTelemetry metrics.
//
// Example:
//
//	ctrl, err := ftharness.New(job, store, tagger, ftharness.WithMetrics(true))
func WithMetrics(enabled bool) Option {
	return func(c *runConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry spans for runs, cycles, and stages.
func WithTracing(enabled bool) Option {
	return func(c *runConfig) {
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithPacing sets the delay after each stage and after each window end.
// Default: one second each. Negative values are treated as zero.
func WithPacing(stage, cycle time.Duration) Option {
	return func(c *runConfig) {
		c.stagePacing = max(stage, 0)
		c.cyclePacing = max(cycle, 0)
	}
}

// WithRunID sets the run id used to correlate logs and spans.
// Default: a random UUID.
func WithRunID(id string) Option {
	return func(c *runConfig) {
		c.runID = id
	}
}

// withSleep replaces the pacing sleep. Tests use it to observe or
// interrupt pacing without waiting.
func withSleep(fn func(context.Context, time.Duration) error) Option {
	return func(c *runConfig) {
		c.sleep = fn
	}
}

// sleepContext blocks for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
