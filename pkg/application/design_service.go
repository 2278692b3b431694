package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/specloop/pkg/domain/ai"
	"github.com/felixgeelhaar/specloop/pkg/domain/run"
	"github.com/felixgeelhaar/specloop/pkg/domain/verdict"
	"github.com/felixgeelhaar/specloop/pkg/render"
	"github.com/felixgeelhaar/specloop/pkg/storage"
)

// Diagram families, in generation order. Structure comes first and is
// load-bearing: without a class diagram the sequence and activity
// passes have nothing to stay consistent with, so a structure
// generation failure aborts the whole run while the other two families
// degrade in isolation.
const (
	FamilyStructure   = "structure"
	FamilyInteraction = "interaction"
	FamilyLogic       = "logic"

	diagramExt = "puml"

	DefaultTargetScore = 10
)

// Families lists the diagram kinds in generation order.
var Families = []string{FamilyStructure, FamilyInteraction, FamilyLogic}

// Renderer turns PlantUML sources into images and checks their syntax.
// Satisfied by render.PlantUML; tests substitute a stub.
type Renderer interface {
	Verify(ctx context.Context) error
	Render(ctx context.Context, pumlPath string) (string, error)
	CheckSyntax(ctx context.Context, pumlPath string) (bool, string)
}

var _ Renderer = (*render.PlantUML)(nil)

// DesignOptions tune the diagram refinement loop. Zero values select
// defaults.
type DesignOptions struct {
	MaxIterations int
	TargetScore   int
	// Parallel generates the interaction and logic families
	// concurrently once the structure diagram exists. Version
	// allocation stays serialized inside the store.
	Parallel bool
}

func (o DesignOptions) normalized() DesignOptions {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.MaxIterations > MaxIterationCap {
		o.MaxIterations = MaxIterationCap
	}
	if o.TargetScore <= 0 {
		o.TargetScore = DefaultTargetScore
	}
	if o.TargetScore > verdict.MaxScore {
		o.TargetScore = verdict.MaxScore
	}
	return o
}

// DesignService drives the diagram pipeline: generate a structure,
// interaction, and logic diagram for a requirements slice, grade the
// set, and refine until the adjusted overall score meets the target.
type DesignService struct {
	provider ai.Provider
	store    *storage.Store
	renderer Renderer
}

// NewDesignService creates the diagram pipeline service. A nil
// renderer disables rendering and syntax checking; sources are still
// generated and graded.
func NewDesignService(provider ai.Provider, store *storage.Store, renderer Renderer) *DesignService {
	return &DesignService{provider: provider, store: store, renderer: renderer}
}

// familyKey is the artifact family name for one diagram kind of one
// slice, e.g. "Auth_structure".
func familyKey(sliceName, kind string) string {
	return sliceName + "_" + kind
}

// RunSlice executes the full refinement loop for one requirements
// slice. The returned run is finalized even on error.
func (s *DesignService) RunSlice(ctx context.Context, sliceName, requirements string, opts DesignOptions) (*run.ConvergenceRun, error) {
	opts = opts.normalized()

	r := run.New(sliceName, requirements, opts.MaxIterations)
	r.TargetScore = opts.TargetScore

	sm, err := run.NewStateMachine(r.ID)
	if err != nil {
		return nil, err
	}

	if s.renderer != nil {
		if err := s.renderer.Verify(ctx); err != nil {
			return s.fail(r, sm, "verify renderer"), fmt.Errorf("renderer precondition: %w", err)
		}
	}

	artifacts, err := s.generateSet(ctx, sliceName, requirements, opts.Parallel)
	if err != nil {
		return s.fail(r, sm, "generate structure"), err
	}
	if terr := sm.Transition(run.EventGenerated); terr != nil {
		return nil, terr
	}

	for i := 1; i <= opts.MaxIterations; i++ {
		report, qaPath, err := s.validateSet(ctx, sliceName, requirements, i, artifacts)
		if err != nil {
			return s.fail(r, sm, "validate"), err
		}

		it := run.Iteration{
			Number:    i,
			Artifacts: copyArtifacts(artifacts),
			Errors:    verdict.Unknown,
			Report:    report,
			QAReport:  qaPath,
		}
		if err := r.Append(it); err != nil {
			return s.fail(r, sm, "record"), err
		}

		if report.Accepted(opts.TargetScore) {
			if terr := sm.Transition(run.EventAccept); terr != nil {
				return nil, terr
			}
			r.FinalVersion = artifacts[FamilyStructure].Version
			r.Finalize(run.OutcomeAccepted, true)
			return r, nil
		}

		if i == opts.MaxIterations {
			if terr := sm.Transition(run.EventCap); terr != nil {
				return nil, terr
			}
			r.FinalVersion = artifacts[FamilyStructure].Version
			r.Finalize(run.OutcomeCapped, false)
			return r, nil
		}

		if terr := sm.Transition(run.EventRevise); terr != nil {
			return nil, terr
		}
		artifacts = s.refineSet(ctx, sliceName, requirements, artifacts, report, i+1)
		if terr := sm.Transition(run.EventRevised); terr != nil {
			return nil, terr
		}
	}

	return r, nil
}

// generateSet produces the initial diagram set. A structure failure
// returns an error with nothing generated for the remaining families;
// interaction and logic failures degrade to errored artifacts.
func (s *DesignService) generateSet(ctx context.Context, sliceName, requirements string, parallel bool) (map[string]run.Artifact, error) {
	artifacts := make(map[string]run.Artifact, len(Families))

	structure, err := s.generateFamily(ctx, sliceName, FamilyStructure, requirements)
	if err != nil {
		return nil, fmt.Errorf("generate %s diagram: %w", FamilyStructure, err)
	}
	artifacts[FamilyStructure] = structure

	rest := []string{FamilyInteraction, FamilyLogic}
	if parallel {
		var (
			g       errgroup.Group
			results = make([]run.Artifact, len(rest))
		)
		for i, kind := range rest {
			g.Go(func() error {
				results[i] = s.generateFamilyDegraded(ctx, sliceName, kind, requirements)
				return nil
			})
		}
		_ = g.Wait()
		for i, kind := range rest {
			artifacts[kind] = results[i]
		}
		return artifacts, nil
	}

	for _, kind := range rest {
		artifacts[kind] = s.generateFamilyDegraded(ctx, sliceName, kind, requirements)
	}
	return artifacts, nil
}

// generateFamilyDegraded wraps generateFamily for the families whose
// failures are isolated rather than fatal.
func (s *DesignService) generateFamilyDegraded(ctx context.Context, sliceName, kind, requirements string) run.Artifact {
	art, err := s.generateFamily(ctx, sliceName, kind, requirements)
	if err != nil {
		return run.Artifact{
			Family: familyKey(sliceName, kind),
			Status: verdict.StatusErrored,
			Detail: err.Error(),
		}
	}
	return art
}

// generateFamily requests one diagram, repairs its markers, persists
// it, and renders it. Render and syntax failures mark the artifact
// errored but keep the stored source.
func (s *DesignService) generateFamily(ctx context.Context, sliceName, kind, requirements string) (run.Artifact, error) {
	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Prompt: diagramPrompt(kind, sliceName, requirements),
	})
	if err != nil {
		return run.Artifact{}, err
	}

	source := render.ExtractSource(resp.Text)
	family := familyKey(sliceName, kind)
	version := s.store.NextVersion(family, diagramExt)
	path, err := s.store.SaveArtifact(family, version, diagramExt, source)
	if err != nil {
		return run.Artifact{}, err
	}

	art := run.Artifact{
		Family:  family,
		Version: version,
		Path:    path,
		Status:  verdict.StatusOK,
	}
	s.renderArtifact(ctx, &art)
	return art, nil
}

// renderArtifact runs the syntax check and render for one stored
// source, downgrading the artifact on failure instead of propagating.
func (s *DesignService) renderArtifact(ctx context.Context, art *run.Artifact) {
	if s.renderer == nil {
		return
	}
	if ok, detail := s.renderer.CheckSyntax(ctx, art.Path); !ok {
		art.Status = verdict.StatusErrored
		art.Detail = detail
		return
	}
	png, err := s.renderer.Render(ctx, art.Path)
	if err != nil {
		art.Status = verdict.StatusErrored
		art.Detail = err.Error()
		return
	}
	art.Render = png
}

// validateSet grades the current diagram set and writes the iteration
// QA report. Penalties for missing and errored families are applied to
// the extracted report before it is returned; the QA report is written
// even when extraction degraded.
func (s *DesignService) validateSet(ctx context.Context, sliceName, requirements string, iteration int, artifacts map[string]run.Artifact) (*verdict.ScoreReport, string, error) {
	contents := make(map[string]string, len(Families))
	statuses := make(map[string]verdict.ArtifactStatus, len(Families))
	for _, kind := range Families {
		art, present := artifacts[kind]
		switch {
		case !present:
			contents[kind] = verdict.NotGeneratedSentinel
			statuses[kind] = verdict.StatusMissing
		case art.Status == verdict.StatusErrored:
			contents[kind] = verdict.GenerationFailedSentinel + ": " + art.Detail
			statuses[kind] = verdict.StatusErrored
		default:
			text, err := s.store.LoadArtifact(art.Family, art.Version, diagramExt)
			if err != nil {
				contents[kind] = verdict.ReadFailureSentinel + ": " + err.Error()
				statuses[kind] = verdict.StatusErrored
			} else {
				contents[kind] = text
				statuses[kind] = verdict.StatusOK
			}
		}
	}

	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Prompt: setValidationPrompt(sliceName, requirements, contents),
	})
	if err != nil {
		return nil, "", fmt.Errorf("validate diagram set: %w", err)
	}

	report := verdict.ExtractScoreReport(resp.Text)
	if err := report.ApplyPenalties(statuses); err != nil {
		return nil, "", err
	}

	qa := formatQAReport(sliceName, iteration, report, statuses, artifacts)
	qaPath, err := s.store.SaveQAReport(sliceName, iteration, qa)
	if err != nil {
		return nil, "", fmt.Errorf("persist QA report: %w", err)
	}
	return report, qaPath, nil
}

// refineSet improves the healthy families using the previous report's
// feedback. Errored and missing families are carried forward untouched
// so their penalties keep biting until regeneration succeeds elsewhere.
func (s *DesignService) refineSet(ctx context.Context, sliceName, requirements string, artifacts map[string]run.Artifact, report *verdict.ScoreReport, iteration int) map[string]run.Artifact {
	next := copyArtifacts(artifacts)
	for _, kind := range Families {
		art, present := artifacts[kind]
		if !present || art.Status != verdict.StatusOK {
			continue
		}

		source, err := s.store.LoadArtifact(art.Family, art.Version, diagramExt)
		if err != nil {
			art.Status = verdict.StatusErrored
			art.Detail = err.Error()
			next[kind] = art
			continue
		}

		resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
			Prompt: refinementPrompt(kind, sliceName, requirements, source, report, iteration),
		})
		if err != nil {
			art.Status = verdict.StatusErrored
			art.Detail = err.Error()
			next[kind] = art
			continue
		}

		improved := render.ExtractSource(resp.Text)
		version := s.store.NextVersion(art.Family, diagramExt)
		path, err := s.store.SaveArtifact(art.Family, version, diagramExt, improved)
		if err != nil {
			art.Status = verdict.StatusErrored
			art.Detail = err.Error()
			next[kind] = art
			continue
		}

		refined := run.Artifact{
			Family:  art.Family,
			Version: version,
			Path:    path,
			Status:  verdict.StatusOK,
		}
		s.renderArtifact(ctx, &refined)
		next[kind] = refined
	}
	return next
}

func (s *DesignService) fail(r *run.ConvergenceRun, sm *run.StateMachine, step string) *run.ConvergenceRun {
	_ = sm.Transition(run.EventFail)
	r.FailedStep = step
	r.Finalize(run.OutcomeFailed, false)
	return r
}

func copyArtifacts(artifacts map[string]run.Artifact) map[string]run.Artifact {
	out := make(map[string]run.Artifact, len(artifacts))
	for k, v := range artifacts {
		out[k] = v
	}
	return out
}

// Slice is one named requirements chunk for the workflow entrypoint.
type Slice struct {
	Name         string
	Requirements string
}

// WorkflowResult aggregates the runs of a multi-slice workflow.
type WorkflowResult struct {
	Runs        []*run.ConvergenceRun
	SummaryPath string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Achieved counts the runs that met their target.
func (w *WorkflowResult) Achieved() int {
	n := 0
	for _, r := range w.Runs {
		if r.TargetAchieved {
			n++
		}
	}
	return n
}

// RunWorkflow processes each slice in order and writes a cross-slice
// summary report. A failed slice does not stop the workflow; its run is
// recorded and the next slice proceeds.
func (s *DesignService) RunWorkflow(ctx context.Context, slices []Slice, opts DesignOptions) (*WorkflowResult, error) {
	result := &WorkflowResult{StartedAt: time.Now()}

	for _, slice := range slices {
		r, err := s.RunSlice(ctx, slice.Name, slice.Requirements, opts)
		if err != nil && r == nil {
			return result, err
		}
		result.Runs = append(result.Runs, r)
	}
	result.FinishedAt = time.Now()

	summary := formatWorkflowSummary(result, opts.normalized())
	path, err := s.store.SaveSummaryReport("workflow_summary.md", summary)
	if err != nil {
		return result, fmt.Errorf("persist workflow summary: %w", err)
	}
	result.SummaryPath = path
	return result, nil
}

// erroredFamilies returns the sorted family kinds that are not healthy
// in the given set.
func erroredFamilies(artifacts map[string]run.Artifact) []string {
	var bad []string
	for _, kind := range Families {
		art, present := artifacts[kind]
		if !present || art.Status != verdict.StatusOK {
			bad = append(bad, kind)
		}
	}
	sort.Strings(bad)
	return bad
}

// describeRun renders a one-line status for summary output.
func describeRun(r *run.ConvergenceRun) string {
	switch r.Outcome {
	case run.OutcomeAccepted:
		return fmt.Sprintf("accepted after %d iteration(s), score %s/10",
			len(r.Iterations), scoreLabel(r.FinalScore()))
	case run.OutcomeCapped:
		return fmt.Sprintf("capped at %d iteration(s), score %s/10",
			len(r.Iterations), scoreLabel(r.FinalScore()))
	default:
		return "failed at step: " + r.FailedStep
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
