package verdict

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Penalty points per unhealthy artifact. The grader cannot override
// these: they are derived from the physical state of the files it was
// shown, not from its own judgment.
const (
	MissingPenalty = 5
	ErrorPenalty   = 3
)

// ErrAlreadyPenalized guards against double-application. Penalties are
// not idempotent, so each freshly extracted report may be adjusted
// exactly once.
var ErrAlreadyPenalized = errors.New("penalties already applied to this report")

// PenaltyRecord documents a deterministic score adjustment.
type PenaltyRecord struct {
	MissingCount int      `json:"missing_count"`
	MissingList  []string `json:"missing_list,omitempty"`
	ErrorCount   int      `json:"error_count"`
	ErrorList    []string `json:"error_list,omitempty"`
	TotalPenalty int      `json:"total_penalty"`
	Notes        []string `json:"penalty_notes,omitempty"`
}

// ApplyPenalties adjusts the overall score downward based on the
// authoritative status of each named artifact, 5 points per missing and
// 3 per errored, flooring at 0. The pre-penalty score is preserved in
// OriginalOverallScore and the adjustment is summarized in Penalties
// and prepended to GapAnalysis.
//
// A second call on the same report returns ErrAlreadyPenalized without
// touching the scores.
func (r *ScoreReport) ApplyPenalties(statuses map[string]ArtifactStatus) error {
	if r.penalized {
		return ErrAlreadyPenalized
	}
	r.penalized = true

	var missing, errored []string
	for name, status := range statuses {
		switch status {
		case StatusMissing:
			missing = append(missing, name)
		case StatusErrored:
			errored = append(errored, name)
		}
	}
	sort.Strings(missing)
	sort.Strings(errored)

	missingPenalty := len(missing) * MissingPenalty
	errorPenalty := len(errored) * ErrorPenalty
	total := missingPenalty + errorPenalty

	original := r.OverallScore
	adjusted := original - total
	if adjusted < 0 {
		adjusted = 0
	}

	record := &PenaltyRecord{
		MissingCount: len(missing),
		MissingList:  missing,
		ErrorCount:   len(errored),
		ErrorList:    errored,
		TotalPenalty: total,
	}
	if len(missing) > 0 {
		record.Notes = append(record.Notes, fmt.Sprintf("-%d points: %d missing diagram(s) - %s",
			missingPenalty, len(missing), strings.Join(missing, ", ")))
	}
	if len(errored) > 0 {
		record.Notes = append(record.Notes, fmt.Sprintf("-%d points: %d diagram(s) with errors - %s",
			errorPenalty, len(errored), strings.Join(errored, ", ")))
	}

	r.OriginalOverallScore = original
	r.OverallScore = adjusted
	r.Penalties = record

	if len(record.Notes) > 0 {
		summary := fmt.Sprintf("[PENALTIES APPLIED: %s]", strings.Join(record.Notes, " | "))
		if r.GapAnalysis != "" {
			r.GapAnalysis = summary + " " + r.GapAnalysis
		} else {
			r.GapAnalysis = summary
		}
	}
	return nil
}

// ClassifyContents converts a legacy content-or-sentinel map into
// artifact statuses via substring classification. New producers should
// pass statuses directly.
func ClassifyContents(contents map[string]string) map[string]ArtifactStatus {
	statuses := make(map[string]ArtifactStatus, len(contents))
	for name, content := range contents {
		statuses[name] = ClassifyContent(content)
	}
	return statuses
}
