package ftharness

import (
	"fmt"

	"github.com/randalmurphal/ftharness/pkg/ftharness/ft"
)

// Job describes one harness run. It is fixed at startup.
type Job struct {
	// Role decides what a missing checkpoint means.
	Role Role

	// Identity is the job name used for registration.
	Identity string

	// WindowJob is the job name used for window tagging.
	// Empty means Identity.
	WindowJob string

	// Cycles is the number of outer work cycles. A resumed partial cycle
	// counts as one of them.
	Cycles int

	// ExpectedUnits is passed to FT registration.
	ExpectedUnits int

	// Window is requested for every cycle.
	Window ft.Window
}

// NewJob returns a job with the reference defaults: 10 cycles and
// ft.DefaultWindow. The role is parsed from identity.
func NewJob(identity string, expectedUnits int) Job {
	return Job{
		Role:          ParseRole(identity),
		Identity:      identity,
		Cycles:        10,
		ExpectedUnits: expectedUnits,
		Window:        ft.DefaultWindow(),
	}
}

// windowJob returns the name windows are tagged under.
func (j Job) windowJob() string {
	if j.WindowJob != "" {
		return j.WindowJob
	}
	return j.Identity
}

// Validate checks the job.
func (j Job) Validate() error {
	if j.Identity == "" {
		return fmt.Errorf("%w: identity is empty", ErrInvalidJob)
	}
	if j.Cycles < 0 {
		return fmt.Errorf("%w: cycles must be >= 0, got %d", ErrInvalidJob, j.Cycles)
	}
	if j.ExpectedUnits < 0 {
		return fmt.Errorf("%w: expected units must be >= 0, got %d", ErrInvalidJob, j.ExpectedUnits)
	}
	return nil
}
