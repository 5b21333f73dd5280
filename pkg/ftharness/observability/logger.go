// Package observability provides structured logging, metrics, and tracing
// for ftharness runs.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Format is the log output format.
type Format string

const (
	// FormatJSON outputs one JSON object per line.
	FormatJSON Format = "json"
	// FormatText outputs human-readable key=value lines.
	FormatText Format = "text"
)

// Environment variables read by LoggerFromEnv.
const (
	EnvLogLevel  = "FTHARNESS_LOG_LEVEL"
	EnvLogFormat = "FTHARNESS_LOG_FORMAT"
)

// NewLogger creates the root logger. Unknown levels fall back to info and
// unknown formats to text. A nil w writes to os.Stderr.
func NewLogger(level string, format Format, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch Format(strings.ToLower(string(format))) {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// LoggerFromEnv creates a logger using FTHARNESS_LOG_LEVEL and
// FTHARNESS_LOG_FORMAT, falling back to the given defaults.
func LoggerFromEnv(level string, format Format, w io.Writer) *slog.Logger {
	if v := os.Getenv(EnvLogLevel); v != "" {
		level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		format = Format(v)
	}
	return NewLogger(level, format, w)
}

// ParseLevel converts a level name to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EnrichLogger adds run context to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123", "primary", "replica")
//	enriched.Info("doing work") // includes run_id, job, role
func EnrichLogger(logger *slog.Logger, runID, job, role string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("job", job),
		slog.String("role", role),
	)
}

// LogRunStart logs the start of a run.
func LogRunStart(logger *slog.Logger, cycles, stages, expectedUnits int) {
	if logger == nil {
		return
	}
	logger.Info("run starting",
		slog.Int("cycles", cycles),
		slog.Int("stages", stages),
		slog.Int("expected_units", expectedUnits),
	)
}

// LogResume logs the position the run starts from.
func LogResume(logger *slog.Logger, value int64, nextStage int, fresh bool) {
	if logger == nil {
		return
	}
	if fresh {
		logger.Info("no checkpoint, starting fresh",
			slog.Int64("value", value),
			slog.Int("next_stage", nextStage),
		)
		return
	}
	logger.Info("resuming from checkpoint",
		slog.Int64("value", value),
		slog.Int("next_stage", nextStage),
	)
}

// LogRunComplete logs successful run completion.
func LogRunComplete(logger *slog.Logger, durationMs float64, value int64, stagesExecuted int) {
	if logger == nil {
		return
	}
	logger.Info("run completed",
		slog.Float64("duration_ms", durationMs),
		slog.Int64("value", value),
		slog.Int("stages_executed", stagesExecuted),
	)
}

// LogRunError logs run failure.
func LogRunError(logger *slog.Logger, err error, durationMs float64, lastStage int) {
	if logger == nil {
		return
	}
	logger.Error("run failed",
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.Int("last_stage", lastStage),
	)
}

// LogStageComplete logs a completed stage and its resulting value.
func LogStageComplete(logger *slog.Logger, cycle, stage int, name string, value int64) {
	if logger == nil {
		return
	}
	logger.Info("stage completed",
		slog.Int("cycle", cycle),
		slog.Int("stage", stage),
		slog.String("stage_name", name),
		slog.Int64("value", value),
	)
}

// LogStageError logs a failed stage.
func LogStageError(logger *slog.Logger, cycle, stage int, err error) {
	if logger == nil {
		return
	}
	logger.Error("stage failed",
		slog.Int("cycle", cycle),
		slog.Int("stage", stage),
		slog.String("error", err.Error()),
	)
}

// LogCheckpoint logs a checkpoint save.
func LogCheckpoint(logger *slog.Logger, value int64, nextStage int) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.Int64("value", value),
		slog.Int("next_stage", nextStage),
	)
}

// LogWindowError logs a failed FT call. FT failures never stop the run.
func LogWindowError(logger *slog.Logger, op string, cycle int, err error) {
	if logger == nil {
		return
	}
	logger.Warn("ft call failed",
		slog.String("operation", op),
		slog.Int("cycle", cycle),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
