// Package run models one end-to-end convergence execution: an ordered,
// append-only sequence of iterations owned by a single run, with a
// state machine governing the generate/validate/revise cycle.
package run

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/specloop/pkg/domain/verdict"
)

// Outcome is the terminal status of a convergence run. Capped and
// Failed are distinct on purpose: "ran out of iterations" is a normal
// ending, "crashed mid-step" is not.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeCapped   Outcome = "capped"
	OutcomeFailed   Outcome = "failed"
)

// Artifact is one versioned unit of generated content. Immutable once
// written; a new version supersedes it, never mutates it.
type Artifact struct {
	Family  string
	Version int
	Path    string
	Render  string // rendered image path, empty if not rendered
	Status  verdict.ArtifactStatus
	Detail  string // failure detail when Status != StatusOK
}

// Iteration is one generate-then-validate pass. Exactly one of Errors
// or Report is meaningful, depending on the pipeline.
type Iteration struct {
	Number    int
	Artifacts map[string]Artifact
	Errors    int // requirements pipeline; verdict.Unknown when extraction failed
	Report    *verdict.ScoreReport
	QAReport  string // path of the persisted QA/validation report
}

// ConvergenceRun owns the iteration history for one seed task. It is
// mutable while the loop drives it and read-only after Finalize.
type ConvergenceRun struct {
	ID            string
	Name          string // artifact family or slice name
	Seed          string
	TargetErrors  int
	TargetScore   int
	MaxIterations int
	StartedAt     time.Time
	FinishedAt    time.Time

	Iterations     []Iteration
	Outcome        Outcome
	TargetAchieved bool
	FailedStep     string // which step broke, for OutcomeFailed
	FinalVersion   int

	finalized bool
}

// New creates a run in its initial state.
func New(name, seed string, maxIterations int) *ConvergenceRun {
	return &ConvergenceRun{
		ID:            uuid.New().String(),
		Name:          name,
		Seed:          seed,
		MaxIterations: maxIterations,
		StartedAt:     time.Now(),
	}
}

// Append adds the next iteration. Iterations are strictly ordered and
// never removed; appending out of order or after finalization is a
// programming error surfaced as an error return.
func (r *ConvergenceRun) Append(it Iteration) error {
	if r.finalized {
		return fmt.Errorf("run %s is finalized", r.ID)
	}
	if want := len(r.Iterations) + 1; it.Number != want {
		return fmt.Errorf("iteration %d out of order, want %d", it.Number, want)
	}
	r.Iterations = append(r.Iterations, it)
	return nil
}

// Last returns the most recent iteration, or nil before the first pass.
func (r *ConvergenceRun) Last() *Iteration {
	if len(r.Iterations) == 0 {
		return nil
	}
	return &r.Iterations[len(r.Iterations)-1]
}

// Finalize seals the run with its terminal outcome. Further Append
// calls fail.
func (r *ConvergenceRun) Finalize(outcome Outcome, targetAchieved bool) {
	r.Outcome = outcome
	r.TargetAchieved = targetAchieved
	r.FinishedAt = time.Now()
	r.finalized = true
}

// Finalized reports whether the run has been sealed.
func (r *ConvergenceRun) Finalized() bool {
	return r.finalized
}

// FinalErrors returns the last iteration's error count, or
// verdict.Unknown before any validation ran.
func (r *ConvergenceRun) FinalErrors() int {
	last := r.Last()
	if last == nil {
		return verdict.Unknown
	}
	return last.Errors
}

// FinalScore returns the last iteration's adjusted overall score, or
// verdict.Unknown before any validation ran.
func (r *ConvergenceRun) FinalScore() int {
	last := r.Last()
	if last == nil || last.Report == nil {
		return verdict.Unknown
	}
	return last.Report.OverallScore
}
