package ftharness

import (
	"context"
	"errors"
	"fmt"

	"github.com/randalmurphal/ftharness/pkg/ftharness/checkpoint"
	"github.com/randalmurphal/ftharness/pkg/ftharness/observability"
)

// Start reads the checkpoint store and resolves where the run begins.
// It is called by Run and may be called earlier to inspect the decision;
// the store is read only once per Controller.
//
//   - Replica with no checkpoint: ErrMissingCheckpoint.
//   - Primary with no checkpoint: value 0 at stage 1.
//   - Unreadable or corrupt checkpoint: error, never a fresh start.
func (c *Controller) Start(ctx context.Context) (StartPoint, error) {
	c.mu.Lock()
	if c.started {
		sp := c.start
		c.mu.Unlock()
		return sp, nil
	}
	c.mu.Unlock()

	sp, err := c.resolveStart()
	if err != nil {
		return StartPoint{}, err
	}

	c.mu.Lock()
	c.started = true
	c.start = sp
	c.value = sp.Value
	c.pos.NextStage = sp.NextStage
	c.mu.Unlock()

	observability.LogResume(c.cfg.logger, sp.Value, sp.NextStage, sp.Fresh)
	c.cfg.metrics.RecordResume(ctx, sp.NextStage, sp.Fresh)
	return sp, nil
}

func (c *Controller) resolveStart() (StartPoint, error) {
	rec, err := c.store.Load()
	switch {
	case errors.Is(err, checkpoint.ErrNotFound):
		if c.job.Role == RoleReplica {
			return StartPoint{}, ErrMissingCheckpoint
		}
		return StartPoint{Value: 0, NextStage: 1, Fresh: true}, nil
	case err != nil:
		return StartPoint{}, &CheckpointError{Op: "load", Err: err}
	}

	if rec.NextStage < 1 {
		return StartPoint{}, &CheckpointError{
			Op:  "load",
			Err: fmt.Errorf("%w: next stage %d out of range", checkpoint.ErrCorruptRecord, rec.NextStage),
		}
	}
	return StartPoint{Value: rec.Value, NextStage: rec.NextStage}, nil
}
