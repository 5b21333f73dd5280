// Package ft is the boundary between the harness and the external
// fault-tolerance (FT) manager.
//
// The manager tracks job liveness and fault-tolerant execution windows. The
// harness registers once per run, then opens and closes one window around
// each outer work cycle. Windows are never nested or overlapped.
//
// Tagging failures are reported as *Error. Callers treat them as the
// manager's concern: local computation and checkpointing proceed regardless.
package ft

import (
	"context"
	"fmt"
	"time"
)

// Tagger mediates between the resume controller and the FT manager.
type Tagger interface {
	// Register announces the job and how many units of fault-tolerant work
	// to expect. Called exactly once, before the first window.
	Register(ctx context.Context, job string, expectedUnits int) error

	// BeginWindow opens a fault-tolerant execution window for one cycle.
	BeginWindow(ctx context.Context, job string, w Window) (WindowHandle, error)

	// EndWindow closes the window opened by the preceding BeginWindow.
	EndWindow(ctx context.Context, job string) error
}

// Window describes the execution window requested from the FT manager.
type Window struct {
	// Slack is the time-slack budget, in the manager's units. Signed.
	Slack int64

	// IsFirst marks the first window of a job.
	IsFirst bool

	// IsShareable allows the manager to co-schedule the window.
	IsShareable bool

	// RequiredResource is the resource hint (for example, device memory units).
	RequiredResource uint64
}

// DefaultWindow returns the window parameters of the reference workload:
// slack 15, not first, shareable, one resource unit.
func DefaultWindow() Window {
	return Window{
		Slack:            15,
		IsFirst:          false,
		IsShareable:      true,
		RequiredResource: 1,
	}
}

// WindowHandle identifies an opened window.
type WindowHandle struct {
	// ID is unique per window.
	ID string

	// Job is the job the window was opened for.
	Job string

	// Seq counts windows opened by the tagger, starting at 1.
	Seq int

	// OpenedAt is when BeginWindow returned.
	OpenedAt time.Time
}

// Operation names used in Error.Op.
const (
	OpRegister = "register"
	OpBegin    = "begin_window"
	OpEnd      = "end_window"
)

// Native status codes.
const (
	// StatusOK means the call succeeded.
	StatusOK = 0

	// StatusDenied means the manager refused to let the job run.
	StatusDenied = -1

	// StatusFailure means the call could not be completed.
	StatusFailure = 1
)

// Error is a failed call across the FT boundary.
type Error struct {
	// Op is the failed operation (OpRegister, OpBegin, OpEnd).
	Op string
	// Job is the job name the call was made for.
	Job string
	// Status is the native status code, if the call returned one.
	Status int
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ft %s for job %s: %v", e.Op, e.Job, e.Err)
	}
	return fmt.Sprintf("ft %s for job %s: status %d", e.Op, e.Job, e.Status)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the call may succeed.
// A denial is the manager's decision and is never temporary.
func (e *Error) Temporary() bool {
	return e.Status != StatusDenied
}
