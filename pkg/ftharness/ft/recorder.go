package ft

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Call is one recorded Tagger invocation.
type Call struct {
	Op            string
	Job           string
	ExpectedUnits int
	Window        Window
}

// String formats the call for test failure output.
func (c Call) String() string {
	switch c.Op {
	case OpRegister:
		return fmt.Sprintf("%s(%s, %d)", c.Op, c.Job, c.ExpectedUnits)
	case OpBegin:
		return fmt.Sprintf("%s(%s, slack=%d)", c.Op, c.Job, c.Window.Slack)
	default:
		return fmt.Sprintf("%s(%s)", c.Op, c.Job)
	}
}

// Recorder is an in-process Tagger that records every call.
//
// It is the stand-in used when no FT manager is present and in tests.
// Errors can be injected per operation; a failed call is still recorded.
// Recorder is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	calls    []Call
	failures map[string]error
	seq      int
	hook     func(Call)
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{failures: make(map[string]error)}
}

// FailOn makes every subsequent call of op return err. A nil err clears it.
func (r *Recorder) FailOn(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, op)
		return
	}
	r.failures[op] = err
}

// OnCall registers fn to run after each call is recorded.
func (r *Recorder) OnCall(fn func(Call)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hook = fn
}

// Register implements Tagger.
func (r *Recorder) Register(_ context.Context, job string, expectedUnits int) error {
	return r.record(Call{Op: OpRegister, Job: job, ExpectedUnits: expectedUnits})
}

// BeginWindow implements Tagger.
func (r *Recorder) BeginWindow(_ context.Context, job string, w Window) (WindowHandle, error) {
	if err := r.record(Call{Op: OpBegin, Job: job, Window: w}); err != nil {
		return WindowHandle{}, err
	}
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()
	return WindowHandle{
		ID:       fmt.Sprintf("window-%d", seq),
		Job:      job,
		Seq:      seq,
		OpenedAt: time.Now(),
	}, nil
}

// EndWindow implements Tagger.
func (r *Recorder) EndWindow(_ context.Context, job string) error {
	return r.record(Call{Op: OpEnd, Job: job})
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	err := r.failures[c.Op]
	hook := r.hook
	r.mu.Unlock()

	if hook != nil {
		hook(c)
	}
	if err != nil {
		return &Error{Op: c.Op, Job: c.Job, Status: StatusFailure, Err: err}
	}
	return nil
}

// Calls returns a copy of the recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Ops returns the recorded operation names in order.
func (r *Recorder) Ops() []string {
	calls := r.Calls()
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was called.
func (r *Recorder) Count(op string) int {
	n := 0
	for _, c := range r.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Balanced reports whether every begin is followed by exactly one end
// before the next begin, with no end outside a window.
func (r *Recorder) Balanced() bool {
	open := false
	for _, c := range r.Calls() {
		switch c.Op {
		case OpBegin:
			if open {
				return false
			}
			open = true
		case OpEnd:
			if !open {
				return false
			}
			open = false
		}
	}
	return !open
}

// Reset clears recorded calls and injected failures.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.seq = 0
	r.failures = make(map[string]error)
}
