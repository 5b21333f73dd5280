package config

import (
	"errors"
	"fmt"
	"time"
)

// Settings is the typed configuration of one harness run.
type Settings struct {
	// Cycles is the number of outer work cycles.
	Cycles int

	// WindowJob names FT windows. Empty means the run identity.
	WindowJob string

	// Window parameters passed to every BeginWindow.
	Slack            int64
	IsFirst          bool
	IsShareable      bool
	RequiredResource uint64

	// StagePacing is the delay after each stage.
	StagePacing time.Duration
	// CyclePacing is the delay after each window end.
	CyclePacing time.Duration

	// Checkpoint store selection, see checkpoint.Open.
	CheckpointBackend  string
	CheckpointLocation string
	CheckpointKey      string

	// RegisterMode is "setup" or "init-wait".
	RegisterMode string
	// FTRetryAttempts bounds attempts per Register/BeginWindow; 1 disables retry.
	FTRetryAttempts int

	LogLevel  string
	LogFormat string

	// MetricsAddr, if set, serves Prometheus metrics at /metrics.
	MetricsAddr string
	// TraceStdout exports spans to stdout.
	TraceStdout bool
}

// DefaultSettings returns the settings of the reference workload.
func DefaultSettings() Settings {
	return Settings{
		Cycles:             10,
		Slack:              15,
		IsFirst:            false,
		IsShareable:        true,
		RequiredResource:   1,
		StagePacing:        time.Second,
		CyclePacing:        time.Second,
		CheckpointBackend:  "file",
		CheckpointLocation: "checkpoint.txt",
		CheckpointKey:      "checkpoint",
		RegisterMode:       "setup",
		FTRetryAttempts:    1,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// FromConfig overlays c onto the defaults.
//
// Layout:
//
//	cycles: 10
//	window:     {job, slack, first, shareable, resource}
//	pacing:     {stage, cycle}
//	checkpoint: {backend, location, key}
//	ft:         {register_mode, retry_attempts}
//	log:        {level, format}
//	metrics:    {addr}
//	trace:      {stdout}
func FromConfig(c Config) Settings {
	s := DefaultSettings()

	s.Cycles = c.Int("cycles", s.Cycles)

	w := c.Section("window")
	s.WindowJob = w.String("job", s.WindowJob)
	s.Slack = w.Int64("slack", s.Slack)
	s.IsFirst = w.Bool("first", s.IsFirst)
	s.IsShareable = w.Bool("shareable", s.IsShareable)
	s.RequiredResource = w.Uint64("resource", s.RequiredResource)

	p := c.Section("pacing")
	s.StagePacing = p.Duration("stage", s.StagePacing)
	s.CyclePacing = p.Duration("cycle", s.CyclePacing)

	cp := c.Section("checkpoint")
	s.CheckpointBackend = cp.String("backend", s.CheckpointBackend)
	s.CheckpointLocation = cp.String("location", s.CheckpointLocation)
	s.CheckpointKey = cp.String("key", s.CheckpointKey)

	f := c.Section("ft")
	s.RegisterMode = f.String("register_mode", s.RegisterMode)
	s.FTRetryAttempts = f.Int("retry_attempts", s.FTRetryAttempts)

	l := c.Section("log")
	s.LogLevel = l.String("level", s.LogLevel)
	s.LogFormat = l.String("format", s.LogFormat)

	s.MetricsAddr = c.Section("metrics").String("addr", s.MetricsAddr)
	s.TraceStdout = c.Section("trace").Bool("stdout", s.TraceStdout)

	return s
}

// LoadSettings reads settings from path. An empty path returns the defaults.
func LoadSettings(path string) (Settings, error) {
	if path == "" {
		return DefaultSettings(), nil
	}
	c, err := FromFile(path)
	if err != nil {
		return Settings{}, err
	}
	s := FromConfig(c)
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("config %s: %w", path, err)
	}
	return s, nil
}

// Validate reports settings no run can use.
func (s Settings) Validate() error {
	var errs []error
	if s.Cycles < 0 {
		errs = append(errs, fmt.Errorf("cycles must be >= 0, got %d", s.Cycles))
	}
	if s.StagePacing < 0 || s.CyclePacing < 0 {
		errs = append(errs, errors.New("pacing must be >= 0"))
	}
	switch s.RegisterMode {
	case "setup", "init-wait":
	default:
		errs = append(errs, fmt.Errorf("unknown register_mode %q", s.RegisterMode))
	}
	if s.FTRetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("ft retry_attempts must be >= 1, got %d", s.FTRetryAttempts))
	}
	return errors.Join(errs...)
}
