package advisory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

// DefaultTimeout bounds one call to the text-generation service.
const DefaultTimeout = 30 * time.Second

// ErrTipNotFound is returned when a tip id is not part of the current batch.
var ErrTipNotFound = errors.New("tip not found")

var errNoGenerator = errors.New("no advisory generator configured")

// State is the lifecycle state of a benchmark run.
type State string

const (
	// StateNoInput means no batch exists for the current transaction set.
	StateNoInput State = "no-input"
	// StateComputing means a run is in progress.
	StateComputing State = "computing"
	// StateReady means a batch is available (possibly the fallback).
	StateReady State = "ready"
)

// Snapshot is a consistent copy of the engine state.
type Snapshot struct {
	State      State       `json:"state"`
	Fallback   bool        `json:"fallback"`
	BatchID    string      `json:"batchId,omitempty"`
	Tips       []Tip       `json:"tips"`
	Comparison *Comparison `json:"comparison,omitempty"`
	Notes      string      `json:"notes"`
}

// Engine runs the benchmark advisory for one session. A run is started
// explicitly with Run; Reset supersedes the current batch, and a run that
// finishes after a Reset is discarded.
type Engine struct {
	gen     Generator
	timeout time.Duration
	log     zerolog.Logger

	mu         sync.Mutex
	generation uint64
	state      State
	fallback   bool
	batchID    string
	tips       []Tip
	comparison *Comparison
	notes      string
}

// NewEngine creates an engine in the no-input state. gen may be nil, in which
// case every run with flagged categories resolves to the fallback tip.
// A non-positive timeout uses DefaultTimeout.
func NewEngine(gen Generator, timeout time.Duration, log zerolog.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{
		gen:     gen,
		timeout: timeout,
		log:     log,
		state:   StateNoInput,
	}
}

// Reset drops the current batch so the next Run computes a fresh one.
// Notes are kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.generation++
	e.state = StateNoInput
	e.fallback = false
	e.batchID = ""
	e.tips = nil
	e.comparison = nil
}

// Run computes a tip batch for txs. It does nothing for an empty set or when
// a batch is already computing or ready; call Reset first to recompute.
// Run blocks until the batch is resolved and returns the resulting snapshot.
func (e *Engine) Run(ctx context.Context, txs []domain.Transaction) Snapshot {
	if len(txs) == 0 {
		return e.Snapshot()
	}

	e.mu.Lock()
	if e.state != StateNoInput {
		defer e.mu.Unlock()
		return e.snapshotLocked()
	}
	e.state = StateComputing
	e.batchID = uuid.NewString()
	generation, batchID := e.generation, e.batchID
	e.mu.Unlock()

	log := e.log.With().Str("batch_id", batchID).Logger()

	comparison := Compare(txs)
	flagged := comparison.Flagged()

	var (
		tips     []Tip
		fallback bool
	)
	if len(flagged) == 0 {
		log.Info().Msg("All benchmarks within threshold")
		tips = []Tip{optimalTip()}
	} else {
		var err error
		tips, err = e.request(ctx, comparison, flagged)
		if err != nil {
			log.Warn().Err(err).Int("flagged", len(flagged)).Msg("Advisory generation failed, using fallback")
			tips = []Tip{fallbackTip()}
			fallback = true
		} else {
			log.Info().Int("flagged", len(flagged)).Int("tips", len(tips)).Msg("Advisory tips generated")
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.generation != generation {
		log.Debug().Msg("Discarding superseded advisory batch")
		return e.snapshotLocked()
	}

	e.state = StateReady
	e.tips = tips
	e.fallback = fallback
	e.comparison = &comparison
	return e.snapshotLocked()
}

// Refresh supersedes the current batch and computes a new one.
func (e *Engine) Refresh(ctx context.Context, txs []domain.Transaction) Snapshot {
	e.Reset()
	return e.Run(ctx, txs)
}

func (e *Engine) request(ctx context.Context, comparison Comparison, flagged []Benchmark) ([]Tip, error) {
	if e.gen == nil {
		return nil, errNoGenerator
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.gen.GenerateTips(ctx, NewRequest(comparison, flagged))
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	// A generator that ignores ctx must not outlive the deadline.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	if err := resp.Validate(); err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}

	tips := make([]Tip, 0, len(resp.Tips))
	for _, t := range resp.Tips {
		if t.Confidence <= ConfidenceCutoff {
			continue
		}
		tips = append(tips, Tip{
			ID:          uuid.NewString(),
			Category:    t.Category,
			Polarity:    PolarityFromScore(t.Score),
			Title:       t.Title,
			Description: t.Text,
			Confidence:  t.Confidence,
			Selected:    true,
		})
	}
	return tips, nil
}

// SetSelected marks a tip of the current batch as included in or excluded
// from the report. It never triggers a recomputation.
func (e *Engine) SetSelected(id string, selected bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.tips {
		if e.tips[i].ID == id {
			e.tips[i].Selected = selected
			return nil
		}
	}
	return fmt.Errorf("SetSelected: %w: %s", ErrTipNotFound, id)
}

// SelectedTips returns the tips chosen for the report, in batch order.
func (e *Engine) SelectedTips() []Tip {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []Tip
	for _, t := range e.tips {
		if t.Selected {
			out = append(out, t)
		}
	}
	return out
}

// SetNotes replaces the free-text notes.
func (e *Engine) SetNotes(notes string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notes = notes
}

// Notes returns the free-text notes.
func (e *Engine) Notes() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notes
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	s := Snapshot{
		State:    e.state,
		Fallback: e.fallback,
		BatchID:  e.batchID,
		Tips:     append([]Tip{}, e.tips...),
		Notes:    e.notes,
	}
	if e.comparison != nil {
		c := *e.comparison
		c.Results = append([]Benchmark(nil), c.Results...)
		s.Comparison = &c
	}
	return s
}
