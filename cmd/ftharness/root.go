package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/ftharness/pkg/ftharness/config"
)

// cliFlags holds flag values. A flag overrides the config file only when it
// was set on the command line.
type cliFlags struct {
	configPath string

	logLevel  string
	logFormat string

	backend  string
	location string
	key      string

	cycles      int
	stagePacing time.Duration
	cyclePacing time.Duration

	windowJob    string
	slack        int64
	first        bool
	shareable    bool
	resource     uint64
	registerMode string
	ftRetries    int

	metricsAddr string
	traceStdout bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &cliFlags{}
	d := config.DefaultSettings()

	root := &cobra.Command{
		Use:          "ftharness",
		Short:        "Checkpointed stage runner for FT-managed jobs",
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "YAML or JSON config file")
	pf.StringVar(&f.logLevel, "log-level", d.LogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&f.logFormat, "log-format", d.LogFormat, "log format (text, json)")
	pf.StringVar(&f.backend, "checkpoint-backend", d.CheckpointBackend, "checkpoint backend (file, sqlite, badger, memory)")
	pf.StringVar(&f.location, "checkpoint-location", d.CheckpointLocation, "checkpoint file, database, or directory")
	pf.StringVar(&f.key, "checkpoint-key", d.CheckpointKey, "checkpoint slot for sqlite and badger")

	root.AddCommand(newRunCmd(f, d), newInspectCmd(f))
	return root
}

// settings loads the config file and applies explicitly set flags on top.
func (f *cliFlags) settings(cmd *cobra.Command) (config.Settings, error) {
	s, err := config.LoadSettings(f.configPath)
	if err != nil {
		return config.Settings{}, err
	}

	set := func(name string) bool { return cmd.Flags().Changed(name) }

	if set("log-level") {
		s.LogLevel = f.logLevel
	}
	if set("log-format") {
		s.LogFormat = f.logFormat
	}
	if set("checkpoint-backend") {
		s.CheckpointBackend = f.backend
	}
	if set("checkpoint-location") {
		s.CheckpointLocation = f.location
	}
	if set("checkpoint-key") {
		s.CheckpointKey = f.key
	}
	if set("cycles") {
		s.Cycles = f.cycles
	}
	if set("stage-pacing") {
		s.StagePacing = f.stagePacing
	}
	if set("cycle-pacing") {
		s.CyclePacing = f.cyclePacing
	}
	if set("window-job") {
		s.WindowJob = f.windowJob
	}
	if set("slack") {
		s.Slack = f.slack
	}
	if set("first") {
		s.IsFirst = f.first
	}
	if set("shareable") {
		s.IsShareable = f.shareable
	}
	if set("resource") {
		s.RequiredResource = f.resource
	}
	if set("register-mode") {
		s.RegisterMode = f.registerMode
	}
	if set("ft-retries") {
		s.FTRetryAttempts = f.ftRetries
	}
	if set("metrics-addr") {
		s.MetricsAddr = f.metricsAddr
	}
	if set("trace-stdout") {
		s.TraceStdout = f.traceStdout
	}

	if err := s.Validate(); err != nil {
		return config.Settings{}, err
	}
	return s, nil
}
