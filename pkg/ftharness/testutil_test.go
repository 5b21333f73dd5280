package ftharness

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/ftharness/pkg/ftharness/checkpoint"
	"github.com/randalmurphal/ftharness/pkg/ftharness/ft"
)

// discardLogger drops all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// noSleep skips pacing.
func noSleep(context.Context, time.Duration) error { return nil }

// testJob returns a job with a single cycle.
func testJob(identity string, cycles int) Job {
	job := NewJob(identity, 10)
	job.Cycles = cycles
	return job
}

// newTestController builds a controller with no pacing and a silent logger.
func newTestController(t *testing.T, job Job, store checkpoint.Store, tagger ft.Tagger, opts ...Option) *Controller {
	t.Helper()
	base := []Option{WithLogger(discardLogger()), withSleep(noSleep)}
	ctrl, err := New(job, store, tagger, append(base, opts...)...)
	require.NoError(t, err)
	return ctrl
}

// trackingTable returns a table of add stages that records which stage
// indexes ran.
func trackingTable(executed *[]int, deltas ...int64) Table {
	table := make(Table, len(deltas))
	for i, d := range deltas {
		idx := i + 1
		base := AddStage(d)
		table[i] = Stage{
			Name: base.Name,
			Transform: func(v int64) int64 {
				*executed = append(*executed, idx)
				return base.Transform(v)
			},
		}
	}
	return table
}

// panicAt returns a copy of table whose stage k panics.
func panicAt(table Table, k int) Table {
	out := make(Table, len(table))
	copy(out, table)
	out[k-1] = Stage{
		Name:      table[k-1].Name,
		Transform: func(int64) int64 { panic("simulated crash") },
	}
	return out
}

// faultyStore wraps a MemoryStore, counting loads and failing one save.
type faultyStore struct {
	*checkpoint.MemoryStore
	failAt   int
	err      error
	loads    int
	attempts int
}

func newFaultyStore(failAt int, err error) *faultyStore {
	return &faultyStore{MemoryStore: checkpoint.NewMemoryStore(), failAt: failAt, err: err}
}

func (s *faultyStore) Load() (checkpoint.Record, error) {
	s.loads++
	return s.MemoryStore.Load()
}

func (s *faultyStore) Save(rec checkpoint.Record) error {
	s.attempts++
	if s.attempts == s.failAt {
		return s.err
	}
	return s.MemoryStore.Save(rec)
}

// mustLoad returns the stored record.
func mustLoad(t *testing.T, store checkpoint.Store) checkpoint.Record {
	t.Helper()
	rec, err := store.Load()
	require.NoError(t, err)
	return rec
}
