package ftharness

import (
	"fmt"
	"strconv"
)

// Stage is one unit of work in a cycle.
type Stage struct {
	// Name is used in logs and spans.
	Name string

	// Transform maps the accumulated value to the new one. It must be pure:
	// the same input always produces the same output and nothing else changes.
	Transform func(int64) int64
}

// AddStage returns a stage that adds n to the value.
func AddStage(n int64) Stage {
	return Stage{
		Name:      "add-" + strconv.FormatInt(n, 10),
		Transform: func(v int64) int64 { return v + n },
	}
}

// Table is the ordered stage list. Stage k (1-based) is Table[k-1].
type Table []Stage

// DefaultTable is the reference workload: add 1, add 2, add 3.
// A full cycle from 0 yields 6.
func DefaultTable() Table {
	return Table{AddStage(1), AddStage(2), AddStage(3)}
}

// Len returns the number of stages N.
func (t Table) Len() int {
	return len(t)
}

// Sentinel returns N+1, the marker recorded after the last stage.
func (t Table) Sentinel() int {
	return len(t) + 1
}

// Stage returns the stage at 1-based index k.
func (t Table) Stage(k int) Stage {
	return t[k-1]
}

// Validate checks that the table can be run.
func (t Table) Validate() error {
	if len(t) == 0 {
		return ErrEmptyTable
	}
	for i, s := range t {
		if s.Transform == nil {
			return fmt.Errorf("%w: stage %d (%s)", ErrNilTransform, i+1, s.Name)
		}
	}
	return nil
}

// StartIndex maps a recorded marker to the stage a cycle starts from.
// A marker past the last stage starts a new cycle at stage 1.
func (t Table) StartIndex(next int) int {
	if next < 1 || next > len(t) {
		return 1
	}
	return next
}

// Fold applies stages from..N to value in order and returns the result.
// It is the reference computation the controller must agree with.
func (t Table) Fold(value int64, from int) int64 {
	for k := t.StartIndex(from); k <= len(t); k++ {
		value = t.Stage(k).Transform(value)
	}
	return value
}
