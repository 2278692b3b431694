package verdict

import (
	"reflect"
	"testing"
)

func TestExtractErrorCount(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  int
		found bool
	}{
		{"tag at end", "...report text...<errors: 3>", 3, true},
		{"zero errors", "All requirements satisfied.\n<errors: 0>", 0, true},
		{"no whitespace", "<errors:15>", 15, true},
		{"extra whitespace", "<errors:   7>", 7, true},
		{"no tag", "The specification looks complete.", Unknown, false},
		{"wrong case", "<Errors: 3>", Unknown, false},
		{"negative not matched", "<errors: -2>", Unknown, false},
		{"first of several wins", "<errors: 4> later revised to <errors: 1>", 4, true},
		{"empty input", "", Unknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ExtractErrorCount(tt.text)
			if got != tt.want || found != tt.found {
				t.Errorf("ExtractErrorCount(%q) = (%d, %v), want (%d, %v)", tt.text, got, found, tt.want, tt.found)
			}
		})
	}
}

const sampleReportJSON = `{
  "consistency_analysis": "Diagrams agree on class names.",
  "completeness_analysis": "All requirements covered.",
  "quality_analysis": "Valid syntax throughout.",
  "gap_analysis": "No gaps identified.",
  "consistency_score": 8,
  "completeness_score": 9,
  "quality_score": 8,
  "overall_score": 8,
  "recommendations": ["Add multiplicities to associations."]
}`

func TestExtractScoreReport_JSON(t *testing.T) {
	report := ExtractScoreReport(sampleReportJSON)
	if report.OverallScore != 8 {
		t.Errorf("OverallScore = %d, want 8", report.OverallScore)
	}
	if report.ConsistencyScore != 8 || report.CompletenessScore != 9 || report.QualityScore != 8 {
		t.Errorf("sub-scores = %d/%d/%d, want 8/9/8",
			report.ConsistencyScore, report.CompletenessScore, report.QualityScore)
	}
	if report.Err != "" {
		t.Errorf("Err = %q, want empty", report.Err)
	}
	if len(report.Recommendations) != 1 {
		t.Errorf("Recommendations = %v, want one entry", report.Recommendations)
	}
}

func TestExtractScoreReport_MarkdownFences(t *testing.T) {
	fenced := "```json\n" + sampleReportJSON + "\n```"
	plain := ExtractScoreReport(sampleReportJSON)
	wrapped := ExtractScoreReport(fenced)
	if !reflect.DeepEqual(plain, wrapped) {
		t.Errorf("fenced JSON parsed differently:\nplain   = %+v\nwrapped = %+v", plain, wrapped)
	}
}

func TestExtractScoreReport_SurroundingProse(t *testing.T) {
	text := "Here is my analysis:\n" + sampleReportJSON + "\nLet me know if you need more detail."
	report := ExtractScoreReport(text)
	if report.OverallScore != 8 || report.Err != "" {
		t.Errorf("prose-wrapped JSON: OverallScore = %d, Err = %q", report.OverallScore, report.Err)
	}
}

func TestExtractScoreReport_OmittedSubScores(t *testing.T) {
	report := ExtractScoreReport(`{"overall_score": 6}`)
	if report.OverallScore != 6 {
		t.Errorf("OverallScore = %d, want 6", report.OverallScore)
	}
	if report.CompletenessScore != Unknown || report.QualityScore != Unknown {
		t.Errorf("omitted sub-scores = %d/%d, want Unknown",
			report.CompletenessScore, report.QualityScore)
	}
}

func TestExtractScoreReport_ClampsAboveCeiling(t *testing.T) {
	report := ExtractScoreReport(`{"overall_score": 14, "quality_score": 11}`)
	if report.OverallScore != MaxScore || report.QualityScore != MaxScore {
		t.Errorf("scores = %d/%d, want clamped to %d", report.OverallScore, report.QualityScore, MaxScore)
	}
}

func TestExtractScoreReport_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"consistency tag", "The diagrams are mostly aligned. <consistency_score>7</consistency_score>", 7},
		{"labeled score", "Overall assessment. Score: 6/10. Needs work on coverage.", 6},
		{"bare score", "I would rate this set 9/10 overall.", 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := ExtractScoreReport(tt.text)
			if report.OverallScore != tt.want {
				t.Errorf("OverallScore = %d, want %d", report.OverallScore, tt.want)
			}
			if report.Err == "" {
				t.Error("expected Err to flag degraded extraction")
			}
		})
	}
}

func TestExtractScoreReport_TotalFailure(t *testing.T) {
	report := ExtractScoreReport("I am unable to evaluate these diagrams.")
	if report.OverallScore != Unknown || report.ConsistencyScore != Unknown {
		t.Errorf("scores = %d/%d, want Unknown", report.OverallScore, report.ConsistencyScore)
	}
	if report.Err == "" {
		t.Error("expected Err to be set on total failure")
	}
	if report.Accepted(0) {
		t.Error("Unknown score must not satisfy any target")
	}
}

func TestExtractScoreReport_Deterministic(t *testing.T) {
	inputs := []string{
		sampleReportJSON,
		"```json\n" + sampleReportJSON + "\n```",
		"Score: 5/10",
		"garbage with no structure",
	}
	for _, in := range inputs {
		first := ExtractScoreReport(in)
		second := ExtractScoreReport(in)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("extraction not deterministic for %q", in)
		}
	}
}
