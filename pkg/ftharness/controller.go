package ftharness

import (
	"sync"

	"github.com/google/uuid"

	"github.com/randalmurphal/ftharness/pkg/ftharness/checkpoint"
	"github.com/randalmurphal/ftharness/pkg/ftharness/ft"
	"github.com/randalmurphal/ftharness/pkg/ftharness/observability"
)

// Controller drives one run: it resolves where to start from the checkpoint
// store, registers with the FT manager, then runs the configured number of
// cycles, each inside one FT window, saving a checkpoint after every stage.
//
// A Controller runs once. Position may be called concurrently with Run.
type Controller struct {
	job    Job
	store  checkpoint.Store
	tagger ft.Tagger
	cfg    runConfig

	mu      sync.Mutex
	started bool
	ran     bool
	start   StartPoint
	value   int64
	pos     Position
}

// StartPoint is the resolved starting state of a run.
type StartPoint struct {
	// Value is the accumulated value to continue from.
	Value int64
	// NextStage is the recorded marker, in [1, N+1].
	NextStage int
	// Fresh is true when no checkpoint existed.
	Fresh bool
}

// Result summarises a run. On error it reflects progress up to the failure.
type Result struct {
	RunID string
	// Value is the final accumulated value.
	Value int64
	// NextStage is the marker of the last saved checkpoint.
	NextStage int
	// Cycles is the number of cycles that ran to completion.
	Cycles int
	// StagesExecuted counts transforms applied and saved by this run.
	StagesExecuted int
	// ResumedFrom is the stage the first cycle started at.
	ResumedFrom int
	// Fresh is true when the run started without a checkpoint.
	Fresh bool
}

// New creates a Controller.
func New(job Job, store checkpoint.Store, tagger ft.Tagger, opts ...Option) (*Controller, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, ErrNilStore
	}
	if tagger == nil {
		return nil, ErrNilTagger
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.table.Validate(); err != nil {
		return nil, err
	}
	if cfg.runID == "" {
		cfg.runID = uuid.NewString()
	}
	cfg.logger = observability.EnrichLogger(cfg.logger, cfg.runID, job.Identity, job.Role.String())

	return &Controller{
		job:    job,
		store:  store,
		tagger: tagger,
		cfg:    cfg,
		pos:    Position{NextStage: 1, Stages: cfg.table.Len()},
	}, nil
}

// Job returns the job the controller runs.
func (c *Controller) Job() Job {
	return c.job
}

// RunID returns the run id used in logs and spans.
func (c *Controller) RunID() string {
	return c.cfg.runID
}

// Position returns the current position and accumulated value.
func (c *Controller) Position() (Position, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos, c.value
}

func (c *Controller) setPosition(value int64, next int) {
	c.mu.Lock()
	c.value = value
	c.pos.NextStage = next
	c.mu.Unlock()
}
