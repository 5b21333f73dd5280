package ftharness

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/ftharness/pkg/ftharness/checkpoint"
	"github.com/randalmurphal/ftharness/pkg/ftharness/ft"
	"github.com/randalmurphal/ftharness/pkg/ftharness/observability"
)

// Run executes the job.
//
// Execution flow:
//  1. Resolve the start point from the checkpoint store (see Start)
//  2. Register with the FT manager
//  3. For each cycle: open a window, run the remaining stages saving a
//     checkpoint after each, close the window
//
// The first cycle starts at the resumed stage; later cycles start at stage 1
// with the carried-over value. FT failures are logged and counted but never
// stop the run. A stage panic, a failed save, or cancellation stops the run;
// the open window is closed first.
//
// Example:
//
//	ctrl, err := ftharness.New(job, store, tagger)
//	if err != nil {
//	    return err
//	}
//	res, err := ctrl.Run(ctx)
func (c *Controller) Run(ctx context.Context) (result Result, runErr error) {
	c.mu.Lock()
	if c.ran {
		c.mu.Unlock()
		return Result{RunID: c.cfg.runID}, ErrAlreadyRun
	}
	c.ran = true
	c.mu.Unlock()

	result = Result{RunID: c.cfg.runID}
	done := observability.TimedOperation()

	sp, err := c.Start(ctx)
	if err != nil {
		observability.LogRunError(c.cfg.logger, err, done(), 0)
		return result, err
	}
	result.Value = sp.Value
	result.NextStage = sp.NextStage
	result.ResumedFrom = c.cfg.table.StartIndex(sp.NextStage)
	result.Fresh = sp.Fresh

	observability.LogRunStart(c.cfg.logger, c.job.Cycles, c.cfg.table.Len(), c.job.ExpectedUnits)

	execCtx, runSpan := c.cfg.spans.StartRunSpan(ctx, c.job.Identity, c.job.Role.String(), c.cfg.runID)
	defer func() {
		c.cfg.spans.EndSpanWithError(runSpan, runErr)
	}()

	if err := c.tagger.Register(execCtx, c.job.Identity, c.job.ExpectedUnits); err != nil {
		c.windowError(execCtx, ft.OpRegister, 0, err)
	}

	value, next := sp.Value, sp.NextStage
	for cycle := 1; cycle <= c.job.Cycles; cycle++ {
		if err := ctx.Err(); err != nil {
			runErr = c.cancelled(cycle, c.cfg.table.StartIndex(next), err)
			break
		}

		value, next, runErr = c.runCycle(execCtx, cycle, value, next, &result)
		if runErr != nil {
			break
		}
		result.Cycles++

		if cycle < c.job.Cycles {
			if err := c.cfg.sleep(ctx, c.cfg.cyclePacing); err != nil {
				runErr = c.cancelled(cycle, next, err)
				break
			}
		}
	}
	result.Value = value

	if runErr != nil {
		pos, _ := c.Position()
		observability.LogRunError(c.cfg.logger, runErr, done(), pos.NextStage)
		return result, runErr
	}
	observability.LogRunComplete(c.cfg.logger, done(), result.Value, result.StagesExecuted)
	return result, nil
}

// runCycle runs one cycle inside one FT window and returns the value and
// marker it ended at.
func (c *Controller) runCycle(ctx context.Context, cycle int, value int64, next int, res *Result) (int64, int, error) {
	from := c.cfg.table.StartIndex(next)
	c.setPosition(value, from)
	cycleStart := time.Now()

	cycleCtx, span := c.cfg.spans.StartCycleSpan(ctx, cycle, from)

	windowJob := c.job.windowJob()
	h, err := c.tagger.BeginWindow(cycleCtx, windowJob, c.job.Window)
	if err != nil {
		c.windowError(cycleCtx, ft.OpBegin, cycle, err)
	} else {
		c.cfg.spans.AddSpanEvent(cycleCtx, "window.begin", attribute.String("window.id", h.ID))
	}

	value, next, stageErr := c.runStages(cycleCtx, cycle, value, from, res)

	// Every begin gets its end, including aborted cycles.
	if err := c.tagger.EndWindow(context.WithoutCancel(cycleCtx), windowJob); err != nil {
		c.windowError(cycleCtx, ft.OpEnd, cycle, err)
	}
	c.cfg.spans.EndSpanWithError(span, stageErr)

	if stageErr != nil {
		return value, next, stageErr
	}
	c.cfg.metrics.RecordCycle(ctx, time.Since(cycleStart))
	return value, next, nil
}

// runStages runs stages from..N, saving after each.
func (c *Controller) runStages(ctx context.Context, cycle int, value int64, from int, res *Result) (int64, int, error) {
	table := c.cfg.table

	for k := from; k <= table.Len(); k++ {
		if err := ctx.Err(); err != nil {
			return value, k, c.cancelled(cycle, k, err)
		}

		stage := table.Stage(k)
		stageCtx, span := c.cfg.spans.StartStageSpan(ctx, k, stage.Name)

		start := time.Now()
		nv, err := executeStage(k, stage, value)
		c.cfg.metrics.RecordStage(stageCtx, k, time.Since(start), err)
		if err != nil {
			c.cfg.spans.EndSpanWithError(span, err)
			observability.LogStageError(c.cfg.logger, cycle, k, err)
			return value, k, err
		}

		marker := k + 1
		if err := c.save(stageCtx, k, nv, marker); err != nil {
			c.cfg.spans.EndSpanWithError(span, err)
			observability.LogStageError(c.cfg.logger, cycle, k, err)
			return value, k, err
		}
		c.cfg.spans.EndSpanWithError(span, nil)

		value = nv
		res.StagesExecuted++
		res.NextStage = marker
		c.setPosition(value, marker)
		observability.LogStageComplete(c.cfg.logger, cycle, k, stage.Name, value)

		if err := c.cfg.sleep(ctx, c.cfg.stagePacing); err != nil {
			return value, marker, c.cancelled(cycle, marker, err)
		}
	}
	return value, table.Sentinel(), nil
}

// save records (value, next) as the completion of stage.
func (c *Controller) save(ctx context.Context, stage int, value int64, next int) error {
	start := time.Now()
	err := c.store.Save(checkpoint.Record{Value: value, NextStage: next})
	c.cfg.metrics.RecordCheckpoint(ctx, time.Since(start), err)
	if err != nil {
		return &CheckpointError{Stage: stage, Op: "save", Err: err}
	}
	observability.LogCheckpoint(c.cfg.logger, value, next)
	return nil
}

// executeStage applies one transform, converting a panic into a StageError.
func executeStage(k int, s Stage, value int64) (result int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = value
			err = &StageError{
				Stage: k,
				Name:  s.Name,
				Value: r,
				Stack: string(debug.Stack()),
			}
		}
	}()
	return s.Transform(value), nil
}

func (c *Controller) windowError(ctx context.Context, op string, cycle int, err error) {
	observability.LogWindowError(c.cfg.logger, op, cycle, err)
	c.cfg.metrics.RecordWindowError(ctx, op)
}

func (c *Controller) cancelled(cycle, next int, cause error) error {
	if !errors.Is(cause, context.Canceled) && !errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}
	return &CancellationError{
		Position: Position{NextStage: next, Stages: c.cfg.table.Len()},
		Cycle:    cycle,
		Cause:    cause,
	}
}
