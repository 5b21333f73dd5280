package ft

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Native is the foreign-function boundary of the FT manager client library.
//
// Every call returns a native status code: StatusOK on success, anything
// else on failure. TagJobBegin may block until the manager admits the job.
// Implementations are expected to be bound to the OS thread that registered,
// since the manager identifies callers by pid and tid.
type Native interface {
	// SetupFTManager tags the job and starts heartbeating.
	SetupFTManager(id Identity, expectedUnits int) int

	// InitWait registers the job and waits for the manager to acknowledge it.
	InitWait(id Identity, expectedUnits int) int

	// TagJobBegin opens a window.
	TagJobBegin(id Identity, w Window) int

	// TagJobEnd closes the window opened by TagJobBegin.
	TagJobEnd(id Identity) int
}

// RegisterMode selects which native call Register uses.
type RegisterMode string

const (
	// RegisterSetup uses SetupFTManager (tag plus heartbeat).
	RegisterSetup RegisterMode = "setup"

	// RegisterInitWait uses InitWait.
	RegisterInitWait RegisterMode = "init-wait"
)

// ABITagger adapts a Native library to the Tagger interface.
//
// The native calls do not observe ctx. A cancelled ctx only prevents calls
// that have not started yet; EndWindow ignores cancellation so that an open
// window can always be closed.
type ABITagger struct {
	native Native
	mode   RegisterMode
	ident  func(job string) Identity
	now    func() time.Time

	mu     sync.Mutex
	seq    int
	open   bool
	opened string
}

// ABIOption configures an ABITagger.
type ABIOption func(*ABITagger)

// WithRegisterMode selects the registration call. Default RegisterSetup.
func WithRegisterMode(mode RegisterMode) ABIOption {
	return func(t *ABITagger) {
		if mode != "" {
			t.mode = mode
		}
	}
}

// WithIdentity overrides how the caller identity is derived from a job name.
func WithIdentity(fn func(job string) Identity) ABIOption {
	return func(t *ABITagger) {
		if fn != nil {
			t.ident = fn
		}
	}
}

// NewABITagger creates a Tagger backed by native.
func NewABITagger(native Native, opts ...ABIOption) *ABITagger {
	t := &ABITagger{
		native: native,
		mode:   RegisterSetup,
		ident:  CurrentIdentity,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register implements Tagger.
func (t *ABITagger) Register(ctx context.Context, job string, expectedUnits int) error {
	if err := ctx.Err(); err != nil {
		return &Error{Op: OpRegister, Job: job, Err: err}
	}

	id := t.ident(job)
	var status int
	switch t.mode {
	case RegisterInitWait:
		status = t.native.InitWait(id, expectedUnits)
	default:
		status = t.native.SetupFTManager(id, expectedUnits)
	}
	if status != StatusOK {
		return &Error{Op: OpRegister, Job: job, Status: status}
	}
	return nil
}

// BeginWindow implements Tagger.
func (t *ABITagger) BeginWindow(ctx context.Context, job string, w Window) (WindowHandle, error) {
	if err := ctx.Err(); err != nil {
		return WindowHandle{}, &Error{Op: OpBegin, Job: job, Err: err}
	}

	status := t.native.TagJobBegin(t.ident(job), w)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	if status != StatusOK {
		return WindowHandle{}, &Error{Op: OpBegin, Job: job, Status: status}
	}
	t.open = true
	t.opened = job
	return WindowHandle{
		ID:       uuid.NewString(),
		Job:      job,
		Seq:      t.seq,
		OpenedAt: t.now(),
	}, nil
}

// EndWindow implements Tagger.
func (t *ABITagger) EndWindow(_ context.Context, job string) error {
	status := t.native.TagJobEnd(t.ident(job))

	t.mu.Lock()
	t.open = false
	t.opened = ""
	t.mu.Unlock()

	if status != StatusOK {
		return &Error{Op: OpEnd, Job: job, Status: status}
	}
	return nil
}

// Open reports whether a window is currently open, and for which job.
func (t *ABITagger) Open() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opened, t.open
}
