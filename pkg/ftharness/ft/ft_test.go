package ft

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fterrors "github.com/randalmurphal/ftharness/pkg/ftharness/errors"
)

// fakeNative scripts native status codes and records calls.
type fakeNative struct {
	mu       sync.Mutex
	calls    []string
	setup    []int
	initWait int
	begin    []int
	end      int
	windows  []Window
	ids      []Identity
}

func next(codes *[]int) int {
	if len(*codes) == 0 {
		return StatusOK
	}
	c := (*codes)[0]
	*codes = (*codes)[1:]
	return c
}

func (f *fakeNative) SetupFTManager(id Identity, _ int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "setup")
	f.ids = append(f.ids, id)
	return next(&f.setup)
}

func (f *fakeNative) InitWait(id Identity, _ int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "init_wait")
	f.ids = append(f.ids, id)
	return f.initWait
}

func (f *fakeNative) TagJobBegin(id Identity, w Window) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "begin")
	f.windows = append(f.windows, w)
	return next(&f.begin)
}

func (f *fakeNative) TagJobEnd(_ Identity) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "end")
	return f.end
}

func TestDefaultWindow(t *testing.T) {
	w := DefaultWindow()
	assert.Equal(t, int64(15), w.Slack)
	assert.False(t, w.IsFirst)
	assert.True(t, w.IsShareable)
	assert.Equal(t, uint64(1), w.RequiredResource)
}

func TestError(t *testing.T) {
	t.Run("status message", func(t *testing.T) {
		err := &Error{Op: OpBegin, Job: "primary", Status: StatusDenied}
		assert.Equal(t, "ft begin_window for job primary: status -1", err.Error())
		assert.False(t, err.Temporary())
	})

	t.Run("wrapped message", func(t *testing.T) {
		inner := errors.New("socket closed")
		err := &Error{Op: OpEnd, Job: "replica", Status: StatusFailure, Err: inner}
		assert.Equal(t, "ft end_window for job replica: socket closed", err.Error())
		assert.ErrorIs(t, err, inner)
		assert.True(t, err.Temporary())
	})
}

func TestCurrentIdentity(t *testing.T) {
	id := CurrentIdentity("primary")
	assert.Equal(t, "primary", id.Name)
	assert.NotZero(t, id.PID)
	assert.NotZero(t, id.TID)
}

func TestABITagger_Register(t *testing.T) {
	t.Run("setup mode by default", func(t *testing.T) {
		native := &fakeNative{}
		tagger := NewABITagger(native)

		require.NoError(t, tagger.Register(context.Background(), "primary", 10))
		assert.Equal(t, []string{"setup"}, native.calls)
		assert.Equal(t, "primary", native.ids[0].Name)
	})

	t.Run("init-wait mode", func(t *testing.T) {
		native := &fakeNative{}
		tagger := NewABITagger(native, WithRegisterMode(RegisterInitWait))

		require.NoError(t, tagger.Register(context.Background(), "replica", 10))
		assert.Equal(t, []string{"init_wait"}, native.calls)
	})

	t.Run("non-zero status is an error", func(t *testing.T) {
		native := &fakeNative{setup: []int{StatusFailure}}
		tagger := NewABITagger(native)

		err := tagger.Register(context.Background(), "primary", 10)
		var ftErr *Error
		require.ErrorAs(t, err, &ftErr)
		assert.Equal(t, OpRegister, ftErr.Op)
		assert.Equal(t, StatusFailure, ftErr.Status)
	})

	t.Run("cancelled context skips the call", func(t *testing.T) {
		native := &fakeNative{}
		tagger := NewABITagger(native)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := tagger.Register(ctx, "primary", 10)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, native.calls)
	})
}

func TestABITagger_Windows(t *testing.T) {
	native := &fakeNative{}
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tagger := NewABITagger(native, WithIdentity(func(job string) Identity {
		return Identity{PID: 1, TID: 2, Name: job}
	}))
	tagger.now = func() time.Time { return fixed }
	ctx := context.Background()

	w := Window{Slack: -3, IsFirst: true, RequiredResource: 4}
	h1, err := tagger.BeginWindow(ctx, "primary", w)
	require.NoError(t, err)
	assert.Equal(t, 1, h1.Seq)
	assert.Equal(t, "primary", h1.Job)
	assert.Equal(t, fixed, h1.OpenedAt)
	assert.NotEmpty(t, h1.ID)

	job, open := tagger.Open()
	assert.True(t, open)
	assert.Equal(t, "primary", job)

	require.NoError(t, tagger.EndWindow(ctx, "primary"))
	_, open = tagger.Open()
	assert.False(t, open)

	h2, err := tagger.BeginWindow(ctx, "primary", w)
	require.NoError(t, err)
	assert.Equal(t, 2, h2.Seq)
	assert.NotEqual(t, h1.ID, h2.ID)

	assert.Equal(t, []string{"begin", "end", "begin"}, native.calls)
	assert.Equal(t, w, native.windows[0])
}

func TestABITagger_BeginDenied(t *testing.T) {
	native := &fakeNative{begin: []int{StatusDenied}}
	tagger := NewABITagger(native)

	_, err := tagger.BeginWindow(context.Background(), "primary", DefaultWindow())
	var ftErr *Error
	require.ErrorAs(t, err, &ftErr)
	assert.Equal(t, StatusDenied, ftErr.Status)
	assert.False(t, ftErr.Temporary())

	_, open := tagger.Open()
	assert.False(t, open)
}

func TestABITagger_EndIgnoresCancellation(t *testing.T) {
	native := &fakeNative{}
	tagger := NewABITagger(native)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, tagger.EndWindow(ctx, "primary"))
	assert.Equal(t, []string{"end"}, native.calls)
}

func TestABITagger_EndFailure(t *testing.T) {
	native := &fakeNative{end: StatusFailure}
	tagger := NewABITagger(native)

	err := tagger.EndWindow(context.Background(), "primary")
	var ftErr *Error
	require.ErrorAs(t, err, &ftErr)
	assert.Equal(t, OpEnd, ftErr.Op)
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder()

	require.NoError(t, r.Register(ctx, "primary", 10))
	h, err := r.BeginWindow(ctx, "primary", DefaultWindow())
	require.NoError(t, err)
	assert.Equal(t, 1, h.Seq)
	require.NoError(t, r.EndWindow(ctx, "primary"))

	assert.Equal(t, []string{OpRegister, OpBegin, OpEnd}, r.Ops())
	assert.Equal(t, 1, r.Count(OpBegin))
	assert.True(t, r.Balanced())
	assert.Equal(t, 10, r.Calls()[0].ExpectedUnits)
	assert.Equal(t, "register(primary, 10)", r.Calls()[0].String())
}

func TestRecorder_FailOn(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder()
	boom := errors.New("manager unreachable")
	r.FailOn(OpBegin, boom)

	_, err := r.BeginWindow(ctx, "primary", DefaultWindow())
	assert.ErrorIs(t, err, boom)
	var ftErr *Error
	require.ErrorAs(t, err, &ftErr)
	assert.Equal(t, OpBegin, ftErr.Op)

	r.FailOn(OpBegin, nil)
	_, err = r.BeginWindow(ctx, "primary", DefaultWindow())
	assert.NoError(t, err)

	// Failed calls are still recorded.
	assert.Equal(t, 2, r.Count(OpBegin))
}

func TestRecorder_Balanced(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		ops  []string
		want bool
	}{
		{"empty", nil, true},
		{"pair", []string{OpBegin, OpEnd}, true},
		{"two pairs", []string{OpBegin, OpEnd, OpBegin, OpEnd}, true},
		{"unclosed", []string{OpBegin}, false},
		{"nested", []string{OpBegin, OpBegin, OpEnd, OpEnd}, false},
		{"end first", []string{OpEnd, OpBegin}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecorder()
			for _, op := range tt.ops {
				if op == OpBegin {
					_, _ = r.BeginWindow(ctx, "job", DefaultWindow())
				} else {
					_ = r.EndWindow(ctx, "job")
				}
			}
			assert.Equal(t, tt.want, r.Balanced())
		})
	}
}

func TestRecorder_OnCallAndReset(t *testing.T) {
	r := NewRecorder()
	var seen []string
	r.OnCall(func(c Call) { seen = append(seen, c.Op) })

	_ = r.EndWindow(context.Background(), "job")
	assert.Equal(t, []string{OpEnd}, seen)

	r.FailOn(OpEnd, errors.New("x"))
	r.Reset()
	assert.Empty(t, r.Calls())
	assert.NoError(t, r.EndWindow(context.Background(), "job"))
}

func TestRetryingTagger(t *testing.T) {
	cfg := fterrors.NewRetryConfig(
		fterrors.WithMaxAttempts(3),
		fterrors.WithInitialBackoff(time.Millisecond),
		fterrors.WithJitter(0),
	)

	t.Run("retries temporary begin failures", func(t *testing.T) {
		native := &fakeNative{begin: []int{StatusFailure, StatusFailure}}
		tagger := WithRetry(NewABITagger(native), cfg)

		h, err := tagger.BeginWindow(context.Background(), "primary", DefaultWindow())
		require.NoError(t, err)
		assert.Equal(t, 3, h.Seq)
		assert.Equal(t, []string{"begin", "begin", "begin"}, native.calls)
	})

	t.Run("denial is not retried", func(t *testing.T) {
		native := &fakeNative{begin: []int{StatusDenied}}
		tagger := WithRetry(NewABITagger(native), cfg)

		_, err := tagger.BeginWindow(context.Background(), "primary", DefaultWindow())
		var ftErr *Error
		require.ErrorAs(t, err, &ftErr)
		assert.Equal(t, StatusDenied, ftErr.Status)
		assert.Len(t, native.calls, 1)
	})

	t.Run("register retried", func(t *testing.T) {
		native := &fakeNative{setup: []int{StatusFailure}}
		tagger := WithRetry(NewABITagger(native), cfg)

		require.NoError(t, tagger.Register(context.Background(), "primary", 5))
		assert.Equal(t, []string{"setup", "setup"}, native.calls)
	})

	t.Run("end attempted once", func(t *testing.T) {
		native := &fakeNative{end: StatusFailure}
		tagger := WithRetry(NewABITagger(native), cfg)

		assert.Error(t, tagger.EndWindow(context.Background(), "primary"))
		assert.Equal(t, []string{"end"}, native.calls)
	})
}

func TestLogNative_ThroughABITagger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tagger := NewABITagger(NewLogNative(logger),
		WithRegisterMode(RegisterInitWait),
		WithIdentity(func(job string) Identity { return Identity{PID: 7, TID: 9, Name: job} }),
	)
	ctx := context.Background()

	require.NoError(t, tagger.Register(ctx, "primary", 10))
	h, err := tagger.BeginWindow(ctx, "primary", DefaultWindow())
	require.NoError(t, err)
	assert.Equal(t, 1, h.Seq)
	require.NoError(t, tagger.EndWindow(ctx, "primary"))

	out := buf.String()
	assert.Contains(t, out, `"msg":"ft register"`)
	assert.Contains(t, out, `"mode":"init-wait"`)
	assert.Contains(t, out, `"expected_units":10`)
	assert.Contains(t, out, `"tid":9`)
	assert.Contains(t, out, `"msg":"ft window begin"`)
	assert.Contains(t, out, `"slack":15`)
	assert.Contains(t, out, `"msg":"ft window end"`)
	assert.Contains(t, out, `"component":"ft"`)
}
