/*
Package ftharness runs a multi-stage workload under an external
fault-tolerance (FT) manager and resumes interrupted runs from the last
recorded stage.

# Overview

A run executes a fixed Table of stages, in order, for a number of cycles.
After every stage the controller saves a checkpoint holding the accumulated
value and the index of the next stage. On restart, or when started as a
replica, it reads that checkpoint once and continues from exactly the stage
that was not yet recorded: no stage is skipped and no recorded stage is run
again.

Each cycle runs inside one FT window. The controller registers with the
manager once, then brackets every cycle with BeginWindow and EndWindow.
Windows are always closed, including when a cycle aborts.

# Basic Usage

	store := checkpoint.NewFileStore("checkpoint.txt")
	defer store.Close()

	job := ftharness.NewJob("primary", 10)
	ctrl, err := ftharness.New(job, store, ft.NewABITagger(ft.NewLogNative(logger)),
	    ftharness.WithLogger(logger),
	    ftharness.WithPacing(time.Second, time.Second),
	)
	if err != nil {
	    return err
	}
	res, err := ctrl.Run(ctx)

# Roles

A primary with no checkpoint starts at stage 1 with value 0. A replica with
no checkpoint fails with ErrMissingCheckpoint before contacting the FT
manager. ParseRole maps job names to roles: "replica" is the replica, every
other name is primary.

# Errors

  - ErrMissingCheckpoint: replica without a checkpoint
  - *CheckpointError: the store could not be read, or a save failed; a corrupt
    record wraps checkpoint.ErrCorruptRecord
  - *StageError: a stage transform panicked; nothing was saved for it
  - *CancellationError: ctx ended; the last saved checkpoint is the resume point

FT failures are *ft.Error values. They are logged and counted, and the run
continues.

# Observability

WithMetrics and WithTracing turn on OpenTelemetry instruments and spans.
WithLogger sets the slog logger. See the observability package.
*/
package ftharness
