package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/ftharness/pkg/ftharness"
	"github.com/randalmurphal/ftharness/pkg/ftharness/checkpoint"
	"github.com/randalmurphal/ftharness/pkg/ftharness/config"
	fterrors "github.com/randalmurphal/ftharness/pkg/ftharness/errors"
	"github.com/randalmurphal/ftharness/pkg/ftharness/ft"
	"github.com/randalmurphal/ftharness/pkg/ftharness/observability"
)

func newRunCmd(f *cliFlags, d config.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <role-or-name> <expected-units>",
		Short: "Run the staged workload, resuming from the checkpoint",
		Long: `Run registers with the FT manager and executes the configured number of
cycles, each inside one FT window, saving a checkpoint after every stage.

The first argument is the job name. "replica" requires an existing
checkpoint; any other name runs as primary and starts fresh without one.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("expected-units must be an integer: %w", err)
			}
			s, err := f.settings(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runHarness(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), s, args[0], units)
		},
	}

	fl := cmd.Flags()
	fl.IntVar(&f.cycles, "cycles", d.Cycles, "number of work cycles")
	fl.DurationVar(&f.stagePacing, "stage-pacing", d.StagePacing, "delay after each stage")
	fl.DurationVar(&f.cyclePacing, "cycle-pacing", d.CyclePacing, "delay after each window end")
	fl.StringVar(&f.windowJob, "window-job", d.WindowJob, "job name for window tagging (default: the run name)")
	fl.Int64Var(&f.slack, "slack", d.Slack, "window slack")
	fl.BoolVar(&f.first, "first", d.IsFirst, "mark windows as first")
	fl.BoolVar(&f.shareable, "shareable", d.IsShareable, "mark windows as shareable")
	fl.Uint64Var(&f.resource, "resource", d.RequiredResource, "resource units required by each window")
	fl.StringVar(&f.registerMode, "register-mode", d.RegisterMode, "FT registration call (setup, init-wait)")
	fl.IntVar(&f.ftRetries, "ft-retries", d.FTRetryAttempts, "attempts per FT register or window begin")
	fl.StringVar(&f.metricsAddr, "metrics-addr", d.MetricsAddr, "serve Prometheus metrics on this address")
	fl.BoolVar(&f.traceStdout, "trace-stdout", d.TraceStdout, "write trace spans to stdout")
	return cmd
}

// runHarness wires settings into a Controller and runs it. When a metrics
// address is set the metrics server runs alongside and stops with the run.
func runHarness(ctx context.Context, stdout, stderr io.Writer, s config.Settings, name string, units int) error {
	logger := observability.LoggerFromEnv(s.LogLevel, observability.Format(s.LogFormat), stderr)

	pcfg := observability.ProviderConfig{
		ServiceName:    "ftharness",
		ServiceVersion: version,
		Metrics:        s.MetricsAddr != "",
	}
	if s.TraceStdout {
		pcfg.TraceWriter = stdout
	}
	providers, err := observability.Setup(pcfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	store, err := checkpoint.Open(s.CheckpointBackend, s.CheckpointLocation, s.CheckpointKey)
	if err != nil {
		return fmt.Errorf("open checkpoint store: %w", err)
	}
	defer store.Close()

	var tagger ft.Tagger = ft.NewABITagger(ft.NewLogNative(logger),
		ft.WithRegisterMode(ft.RegisterMode(s.RegisterMode)))
	if s.FTRetryAttempts > 1 {
		tagger = ft.WithRetry(tagger, fterrors.NewRetryConfig(
			fterrors.WithMaxAttempts(s.FTRetryAttempts),
		))
	}

	job := ftharness.NewJob(name, units)
	job.Cycles = s.Cycles
	job.WindowJob = s.WindowJob
	job.Window = ft.Window{
		Slack:            s.Slack,
		IsFirst:          s.IsFirst,
		IsShareable:      s.IsShareable,
		RequiredResource: s.RequiredResource,
	}

	ctrl, err := ftharness.New(job, store, tagger,
		ftharness.WithLogger(logger),
		ftharness.WithPacing(s.StagePacing, s.CyclePacing),
		ftharness.WithMetrics(s.MetricsAddr != ""),
		ftharness.WithTracing(s.TraceStdout),
	)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	var srv *http.Server
	if s.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", providers.MetricsHandler())
		srv = &http.Server{Addr: s.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("metrics server listening", slog.String("addr", s.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	var res ftharness.Result
	g.Go(func() error {
		if srv != nil {
			defer func() { _ = srv.Shutdown(context.Background()) }()
		}
		// The FT manager identifies callers by thread.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		var runErr error
		res, runErr = ctrl.Run(gctx)
		return runErr
	})

	err = g.Wait()
	fmt.Fprintf(stdout, "run %s: value=%d next_stage=%d cycles=%d stages=%d\n",
		res.RunID, res.Value, res.NextStage, res.Cycles, res.StagesExecuted)
	return err
}
