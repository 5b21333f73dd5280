package ftharness

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration.
var (
	// ErrEmptyTable indicates a stage table with no stages.
	ErrEmptyTable = errors.New("stage table is empty")

	// ErrNilTransform indicates a stage without a transform.
	ErrNilTransform = errors.New("stage has no transform")

	// ErrNilStore indicates a controller built without a checkpoint store.
	ErrNilStore = errors.New("checkpoint store is nil")

	// ErrNilTagger indicates a controller built without an FT tagger.
	ErrNilTagger = errors.New("ft tagger is nil")

	// ErrInvalidJob indicates a job description no run can use.
	ErrInvalidJob = errors.New("invalid job")
)

// Sentinel errors for startup.
var (
	// ErrMissingCheckpoint indicates a replica started with no checkpoint to
	// resume from. Nothing is executed and the FT manager is not contacted.
	ErrMissingCheckpoint = errors.New("replica requires a checkpoint but none was found")

	// ErrAlreadyRun indicates Run was called twice on one Controller.
	ErrAlreadyRun = errors.New("controller already ran")
)

// CheckpointError wraps errors from checkpoint operations.
type CheckpointError struct {
	// Stage is the stage whose completion was being recorded (0 at startup).
	Stage int
	// Op is the operation that failed ("load", "save").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s at stage %d: %v", e.Op, e.Stage, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CheckpointError) Unwrap() error {
	return e.Err
}

// StageError captures a panic raised by a stage transform.
// Nothing is recorded for the failed stage; resuming re-runs it.
type StageError struct {
	// Stage is the 1-based index of the stage that panicked.
	Stage int
	// Name is the stage name.
	Name string
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s) panicked: %v", e.Stage, e.Name, e.Value)
}

// CancellationError reports where a run stopped when its context ended.
// The last saved checkpoint is the resume point.
type CancellationError struct {
	// Position is the position at cancellation.
	Position Position
	// Cycle is the 1-based cycle that was running.
	Cycle int
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("cancelled in cycle %d at %s: %v", e.Cycle, e.Position, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}
