package verdict

import (
	"errors"
	"strings"
	"testing"
)

func TestApplyPenalties_Deductions(t *testing.T) {
	tests := []struct {
		name     string
		original int
		statuses map[string]ArtifactStatus
		want     int
	}{
		{
			name:     "no issues",
			original: 10,
			statuses: map[string]ArtifactStatus{"structure": StatusOK, "interaction": StatusOK, "logic": StatusOK},
			want:     10,
		},
		{
			name:     "one missing one errored",
			original: 10,
			statuses: map[string]ArtifactStatus{"structure": StatusMissing, "interaction": StatusErrored, "logic": StatusOK},
			want:     2,
		},
		{
			name:     "floors at zero",
			original: 10,
			statuses: map[string]ArtifactStatus{"structure": StatusMissing, "interaction": StatusMissing, "logic": StatusMissing},
			want:     0,
		},
		{
			name:     "single missing",
			original: 8,
			statuses: map[string]ArtifactStatus{"structure": StatusOK, "interaction": StatusMissing, "logic": StatusOK},
			want:     3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := &ScoreReport{OverallScore: tt.original}
			if err := report.ApplyPenalties(tt.statuses); err != nil {
				t.Fatalf("ApplyPenalties: %v", err)
			}
			if report.OverallScore != tt.want {
				t.Errorf("adjusted score = %d, want %d", report.OverallScore, tt.want)
			}
			if report.OriginalOverallScore != tt.original {
				t.Errorf("original score = %d, want %d preserved", report.OriginalOverallScore, tt.original)
			}
		})
	}
}

func TestApplyPenalties_ExactlyOnce(t *testing.T) {
	report := &ScoreReport{OverallScore: 10}
	statuses := map[string]ArtifactStatus{"structure": StatusMissing}

	if err := report.ApplyPenalties(statuses); err != nil {
		t.Fatalf("first application: %v", err)
	}
	if report.OverallScore != 5 {
		t.Fatalf("adjusted score = %d, want 5", report.OverallScore)
	}

	err := report.ApplyPenalties(statuses)
	if !errors.Is(err, ErrAlreadyPenalized) {
		t.Errorf("second application error = %v, want ErrAlreadyPenalized", err)
	}
	if report.OverallScore != 5 {
		t.Errorf("score after rejected second application = %d, want 5 unchanged", report.OverallScore)
	}
}

func TestApplyPenalties_NotesAndGapAnalysis(t *testing.T) {
	report := &ScoreReport{OverallScore: 9, GapAnalysis: "Missing error paths."}
	err := report.ApplyPenalties(map[string]ArtifactStatus{
		"interaction": StatusMissing,
		"logic":       StatusErrored,
	})
	if err != nil {
		t.Fatal(err)
	}

	if report.Penalties == nil {
		t.Fatal("expected penalty record")
	}
	if report.Penalties.TotalPenalty != 8 {
		t.Errorf("TotalPenalty = %d, want 8", report.Penalties.TotalPenalty)
	}
	if len(report.Penalties.Notes) != 2 {
		t.Fatalf("Notes = %v, want two entries", report.Penalties.Notes)
	}
	if !strings.Contains(report.Penalties.Notes[0], "interaction") {
		t.Errorf("missing note %q does not name the artifact", report.Penalties.Notes[0])
	}
	if !strings.HasPrefix(report.GapAnalysis, "[PENALTIES APPLIED:") {
		t.Errorf("GapAnalysis = %q, want penalty summary prepended", report.GapAnalysis)
	}
	if !strings.HasSuffix(report.GapAnalysis, "Missing error paths.") {
		t.Errorf("GapAnalysis = %q, original text must be retained", report.GapAnalysis)
	}
}

func TestClassifyContent(t *testing.T) {
	tests := []struct {
		content string
		want    ArtifactStatus
	}{
		{"", StatusMissing},
		{"   ", StatusMissing},
		{NotGeneratedSentinel, StatusMissing},
		{"Diagram generation failed: completion error", StatusErrored},
		{"Error reading file: permission denied", StatusErrored},
		{"@startuml\nclass Vehicle\n@enduml", StatusOK},
	}
	for _, tt := range tests {
		if got := ClassifyContent(tt.content); got != tt.want {
			t.Errorf("ClassifyContent(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestApplyPenalties_LegacyContents(t *testing.T) {
	// E2E scenario: one family returned the literal sentinel while the
	// others carry real diagram text; raw score 8 drops to 3.
	report := &ScoreReport{OverallScore: 8}
	statuses := ClassifyContents(map[string]string{
		"structure":   "@startuml\nclass A\n@enduml",
		"interaction": NotGeneratedSentinel,
		"logic":       "@startuml\nstart\nstop\n@enduml",
	})
	if err := report.ApplyPenalties(statuses); err != nil {
		t.Fatal(err)
	}
	if report.OverallScore != 3 {
		t.Errorf("adjusted score = %d, want 3", report.OverallScore)
	}
}
