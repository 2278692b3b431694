// Package verdict turns raw completion text into structured evaluation
// results, and adjusts them against the verifiable state of the artifacts
// the grader was shown. Extraction is total: malformed input degrades to
// the Unknown sentinel, it never fails the caller.
package verdict

import "strings"

// Unknown is the sentinel score meaning "could not be determined".
// It is distinct from a real zero and compares below any target.
const Unknown = -1

// MaxScore is the ceiling of the 0-10 scoring scale.
const MaxScore = 10

// ArtifactStatus is the authoritative health of a produced artifact,
// set by the component that produced it.
type ArtifactStatus int

const (
	StatusOK ArtifactStatus = iota
	StatusMissing
	StatusErrored
)

func (s ArtifactStatus) String() string {
	switch s {
	case StatusMissing:
		return "missing"
	case StatusErrored:
		return "errored"
	default:
		return "ok"
	}
}

// Sentinel strings carried in legacy validation payloads. New code sets
// ArtifactStatus directly; these remain for classifying pre-existing
// text reports and for building validation prompts.
const (
	NotGeneratedSentinel     = "Not generated"
	GenerationFailedSentinel = "Diagram generation failed"
	ReadFailureSentinel      = "Error reading file"
)

// ClassifyContent infers an ArtifactStatus from a content-or-status
// string. This is the legacy substring fallback for consumers that only
// have the text handed to the grader; producers should report status
// explicitly instead.
func ClassifyContent(content string) ArtifactStatus {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || trimmed == NotGeneratedSentinel {
		return StatusMissing
	}
	if strings.Contains(content, GenerationFailedSentinel) || strings.Contains(content, ReadFailureSentinel) {
		return StatusErrored
	}
	return StatusOK
}

// ScoreReport is the structured outcome of a multi-criteria validation
// pass. Scores are integers on the 0-10 scale, or Unknown when
// extraction failed. Field tags match the JSON shape the validation
// prompt requests from the model.
type ScoreReport struct {
	ConsistencyScore    int `json:"consistency_score"`
	CompletenessScore   int `json:"completeness_score"`
	QualityScore        int `json:"quality_score"`
	ScopeAdherenceScore int `json:"scope_adherence_score"`
	OverallScore        int `json:"overall_score"`

	ConsistencyAnalysis    string   `json:"consistency_analysis"`
	CompletenessAnalysis   string   `json:"completeness_analysis"`
	QualityAnalysis        string   `json:"quality_analysis"`
	ScopeAdherenceAnalysis string   `json:"scope_adherence_analysis"`
	GapAnalysis            string   `json:"gap_analysis"`
	ScopeViolations        []string `json:"scope_violations"`
	Recommendations        []string `json:"recommendations"`

	// Err describes why structured extraction degraded. Empty on a
	// clean parse.
	Err string `json:"error,omitempty"`

	// OriginalOverallScore preserves the pre-penalty score for audit.
	// Zero value is meaningless until Penalties is set.
	OriginalOverallScore int `json:"original_overall_score,omitempty"`

	// Penalties records the deterministic adjustment, if one ran.
	Penalties *PenaltyRecord `json:"penalties_applied,omitempty"`

	penalized bool
}

// Accepted reports whether the overall score meets the target. Unknown
// scores never meet any target.
func (r *ScoreReport) Accepted(target int) bool {
	return r.OverallScore != Unknown && r.OverallScore >= target
}
