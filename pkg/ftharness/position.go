package ftharness

import "fmt"

// Position is where a run is within a cycle: awaiting stage k, or complete.
type Position struct {
	// NextStage is the next stage to run, or Stages+1 once the cycle is done.
	NextStage int
	// Stages is N, the table length.
	Stages int
}

// CycleComplete reports whether every stage of the cycle has run.
func (p Position) CycleComplete() bool {
	return p.NextStage > p.Stages
}

// String returns "awaiting stage k" or "cycle complete".
func (p Position) String() string {
	if p.CycleComplete() {
		return "cycle complete"
	}
	return fmt.Sprintf("awaiting stage %d", p.NextStage)
}
