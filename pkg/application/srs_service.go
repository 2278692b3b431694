// Package application orchestrates the convergence pipelines: it wires
// the completion provider, artifact store, and renderer into the
// iterative generate/validate/revise loops and owns their termination
// rules.
package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/specloop/pkg/domain/ai"
	"github.com/felixgeelhaar/specloop/pkg/domain/run"
	"github.com/felixgeelhaar/specloop/pkg/domain/verdict"
	"github.com/felixgeelhaar/specloop/pkg/storage"
)

const (
	// SRSFamily is the artifact family for requirements documents.
	SRSFamily = "SRS"
	srsExt    = "md"

	// URDFamily is the artifact family for seed user requirements
	// documents, generated once at project start.
	URDFamily = "URD"
	urdExt    = "txt"

	DefaultMaxIterations = 5
	MaxIterationCap      = 10
	DefaultTargetErrors  = 0
)

// SRSArtifact is one persisted requirements document version.
type SRSArtifact struct {
	Version int
	Path    string
	Content string
}

// SRSValidation is the outcome of one validation pass.
type SRSValidation struct {
	Version    int
	Errors     int // verdict.Unknown when no tag could be extracted
	Report     string
	ReportPath string
}

// SRSOptions tune the improvement loop. Zero values select defaults.
type SRSOptions struct {
	MaxIterations int
	TargetErrors  int
}

func (o SRSOptions) normalized() SRSOptions {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.MaxIterations > MaxIterationCap {
		o.MaxIterations = MaxIterationCap
	}
	if o.TargetErrors < 0 {
		o.TargetErrors = DefaultTargetErrors
	}
	return o
}

// SRSService drives the requirements pipeline: single generate,
// validate, and review steps, plus the full improvement loop.
type SRSService struct {
	provider ai.Provider
	store    *storage.Store
}

// NewSRSService creates the requirements pipeline service.
func NewSRSService(provider ai.Provider, store *storage.Store) *SRSService {
	return &SRSService{provider: provider, store: store}
}

// GenerateURD produces the seed user requirements document from a
// free-form initial prompt and persists it with a generation header.
// The prompt goes to the model verbatim; shaping it is the caller's
// concern since this runs once at project start.
func (s *SRSService) GenerateURD(ctx context.Context, initialPrompt string) (*SRSArtifact, error) {
	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{Prompt: initialPrompt})
	if err != nil {
		return nil, fmt.Errorf("generate URD: %w", err)
	}

	content := fmt.Sprintf("User Requirements Document (URD)\nGenerated on: %s\n%s\n\n%s",
		time.Now().Format("2006-01-02 15:04:05"), strings.Repeat("=", 80), resp.Text)

	version := s.store.NextVersion(URDFamily, urdExt)
	path, err := s.store.SaveArtifact(URDFamily, version, urdExt, content)
	if err != nil {
		return nil, fmt.Errorf("persist URD v%d: %w", version, err)
	}
	return &SRSArtifact{Version: version, Path: path, Content: content}, nil
}

// Generate produces a fresh SRS from the user requirements and the
// reference standard, and persists it as the next version.
func (s *SRSService) Generate(ctx context.Context, urd, standard string) (*SRSArtifact, error) {
	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Prompt: srsGenerationPrompt(urd, standard),
	})
	if err != nil {
		return nil, fmt.Errorf("generate SRS: %w", err)
	}

	version := s.store.NextVersion(SRSFamily, srsExt)
	path, err := s.store.SaveArtifact(SRSFamily, version, srsExt, resp.Text)
	if err != nil {
		return nil, fmt.Errorf("persist SRS v%d: %w", version, err)
	}
	return &SRSArtifact{Version: version, Path: path, Content: resp.Text}, nil
}

// Validate audits one stored SRS version against the URD and the
// standard. The previous validation report, when non-empty, is handed
// to the auditor so a reviewed document is judged against the feedback
// it tried to address. The report is persisted before the error count
// is returned.
func (s *SRSService) Validate(ctx context.Context, version int, urd, standard, previousValidation string) (*SRSValidation, error) {
	srs, err := s.store.LoadArtifact(SRSFamily, version, srsExt)
	if err != nil {
		return nil, fmt.Errorf("load SRS v%d: %w", version, err)
	}

	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Prompt: srsValidationPrompt(urd, srs, standard, previousValidation),
	})
	if err != nil {
		return nil, fmt.Errorf("validate SRS v%d: %w", version, err)
	}

	reportPath, err := s.store.SaveValidationReport(SRSFamily, version, resp.Text)
	if err != nil {
		return nil, fmt.Errorf("persist validation report v%d: %w", version, err)
	}

	errors, ok := verdict.ExtractErrorCount(resp.Text)
	if !ok {
		fmt.Printf("Warning: no <errors: N> tag found in validation report v%d\n", version)
	}
	return &SRSValidation{
		Version:    version,
		Errors:     errors,
		Report:     resp.Text,
		ReportPath: reportPath,
	}, nil
}

// Review produces an improved SRS from a stored version and its
// validation report, persisted as the next version.
func (s *SRSService) Review(ctx context.Context, version int) (*SRSArtifact, error) {
	srs, err := s.store.LoadArtifact(SRSFamily, version, srsExt)
	if err != nil {
		return nil, fmt.Errorf("load SRS v%d: %w", version, err)
	}
	report, err := s.store.LoadValidationReport(SRSFamily, version)
	if err != nil {
		return nil, fmt.Errorf("load validation report v%d: %w", version, err)
	}

	resp, err := s.provider.Complete(ctx, ai.CompletionRequest{
		Prompt: srsReviewPrompt(srs, report),
	})
	if err != nil {
		return nil, fmt.Errorf("review SRS v%d: %w", version, err)
	}

	next := s.store.NextVersion(SRSFamily, srsExt)
	path, err := s.store.SaveArtifact(SRSFamily, next, srsExt, resp.Text)
	if err != nil {
		return nil, fmt.Errorf("persist SRS v%d: %w", next, err)
	}
	return &SRSArtifact{Version: next, Path: path, Content: resp.Text}, nil
}

// Improve runs the full convergence loop: generate once, then
// validate/review until the error count meets the target or the
// iteration cap is reached. Provider failures abort the run hard;
// degraded extraction (no error tag) does not, it simply never
// satisfies the target.
func (s *SRSService) Improve(ctx context.Context, urd, standard string, opts SRSOptions) (*run.ConvergenceRun, error) {
	opts = opts.normalized()

	r := run.New(SRSFamily, urd, opts.MaxIterations)
	r.TargetErrors = opts.TargetErrors

	sm, err := run.NewStateMachine(r.ID)
	if err != nil {
		return nil, err
	}

	doc, err := s.Generate(ctx, urd, standard)
	if err != nil {
		return s.fail(r, sm, "generate", err), err
	}
	if terr := sm.Transition(run.EventGenerated); terr != nil {
		return nil, terr
	}

	previousValidation := ""
	for i := 1; i <= opts.MaxIterations; i++ {
		validation, err := s.Validate(ctx, doc.Version, urd, standard, previousValidation)
		if err != nil {
			return s.fail(r, sm, "validate", err), err
		}
		previousValidation = validation.Report

		it := run.Iteration{
			Number: i,
			Artifacts: map[string]run.Artifact{
				SRSFamily: {
					Family:  SRSFamily,
					Version: doc.Version,
					Path:    doc.Path,
					Status:  verdict.StatusOK,
				},
			},
			Errors:   validation.Errors,
			QAReport: validation.ReportPath,
		}
		if err := r.Append(it); err != nil {
			return s.fail(r, sm, "record", err), err
		}

		if validation.Errors != verdict.Unknown && validation.Errors <= opts.TargetErrors {
			if terr := sm.Transition(run.EventAccept); terr != nil {
				return nil, terr
			}
			r.FinalVersion = doc.Version
			r.Finalize(run.OutcomeAccepted, true)
			return r, nil
		}

		if i == opts.MaxIterations {
			if terr := sm.Transition(run.EventCap); terr != nil {
				return nil, terr
			}
			r.FinalVersion = doc.Version
			r.Finalize(run.OutcomeCapped, false)
			return r, nil
		}

		if terr := sm.Transition(run.EventRevise); terr != nil {
			return nil, terr
		}
		doc, err = s.Review(ctx, doc.Version)
		if err != nil {
			return s.fail(r, sm, "review", err), err
		}
		if terr := sm.Transition(run.EventRevised); terr != nil {
			return nil, terr
		}
	}

	return r, nil
}

func (s *SRSService) fail(r *run.ConvergenceRun, sm *run.StateMachine, step string, _ error) *run.ConvergenceRun {
	_ = sm.Transition(run.EventFail)
	r.FailedStep = step
	r.Finalize(run.OutcomeFailed, false)
	return r
}
