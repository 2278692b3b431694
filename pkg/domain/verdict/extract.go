package verdict

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// errorTagPattern matches the <errors: N> marker the validation prompt
// asks for. Case-sensitive, optional whitespace after the colon.
var errorTagPattern = regexp.MustCompile(`<errors:\s*(\d+)>`)

// Fallback patterns for score recovery when the report is not valid
// JSON, tried in order.
var (
	consistencyTagPattern = regexp.MustCompile(`<consistency_score>(\d+)</consistency_score>`)
	labeledScorePattern   = regexp.MustCompile(`Score:\s*(\d+)/10`)
	bareScorePattern      = regexp.MustCompile(`(\d+)/10`)
)

// scoreReportSchema is a sanity check on the model's JSON before
// unmarshalling. Validation failures are not fatal; the fallback chain
// handles non-conforming responses.
const scoreReportSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["overall_score"],
  "properties": {
    "consistency_score": { "type": "integer" },
    "completeness_score": { "type": "integer" },
    "quality_score": { "type": "integer" },
    "scope_adherence_score": { "type": "integer" },
    "overall_score": { "type": "integer" },
    "recommendations": { "type": "array", "items": { "type": "string" } }
  }
}`

var scoreReportSchemaLoader = gojsonschema.NewStringLoader(scoreReportSchema)

// ExtractErrorCount pulls the defect count out of a validation report.
// It returns the N of the first <errors: N> marker in the text. When no
// marker is present it returns (Unknown, false); this is a recoverable
// condition, not a failure. The first-match rule is deliberate: a report
// quoting an earlier report keeps its own verdict ambiguous either way,
// and first-match is the historical behavior stored reports were
// produced under.
func ExtractErrorCount(report string) (int, bool) {
	m := errorTagPattern.FindStringSubmatch(report)
	if m == nil {
		return Unknown, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Unknown, false
	}
	return n, true
}

// ExtractScoreReport recovers a structured ScoreReport from completion
// text. It is a total function: any input yields a usable report,
// degraded to Unknown scores with Err set when every strategy fails.
//
// Strategy order: JSON (with markdown fences stripped), then the
// <consistency_score> tag, then "Score: N/10", then any bare "N/10".
func ExtractScoreReport(text string) *ScoreReport {
	payload := stripToJSON(text)

	if payload != "" {
		if report, ok := parseScoreJSON(payload); ok {
			return report
		}
	}

	for _, pat := range []*regexp.Regexp{consistencyTagPattern, labeledScorePattern, bareScorePattern} {
		if m := pat.FindStringSubmatch(text); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			return &ScoreReport{
				ConsistencyScore:    n,
				CompletenessScore:   Unknown,
				QualityScore:        Unknown,
				ScopeAdherenceScore: Unknown,
				OverallScore:        n,
				Err:                 "structured JSON not found; score recovered from text pattern",
			}
		}
	}

	return &ScoreReport{
		ConsistencyScore:    Unknown,
		CompletenessScore:   Unknown,
		QualityScore:        Unknown,
		ScopeAdherenceScore: Unknown,
		OverallScore:        Unknown,
		Err:                 "failed to parse validation report",
	}
}

func parseScoreJSON(payload string) (*ScoreReport, bool) {
	// Schema check is advisory: many non-conforming responses still
	// carry usable scores, so issues are only surfaced in debug mode.
	if os.Getenv("SPECLOOP_AI_DEBUG") != "" {
		result, err := gojsonschema.Validate(scoreReportSchemaLoader, gojsonschema.NewStringLoader(payload))
		if err != nil {
			fmt.Fprintf(os.Stderr, "score report schema validation error: %v\n", err)
		} else if !result.Valid() {
			for _, desc := range result.Errors() {
				fmt.Fprintf(os.Stderr, "score report schema issue: %s\n", desc)
			}
		}
	}

	// Pre-seed with Unknown so fields the model omitted stay
	// distinguishable from a real zero.
	report := ScoreReport{
		ConsistencyScore:    Unknown,
		CompletenessScore:   Unknown,
		QualityScore:        Unknown,
		ScopeAdherenceScore: Unknown,
		OverallScore:        Unknown,
	}
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, false
	}

	// An object with no recognizable score is not a report.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &probe); err != nil {
		return nil, false
	}
	if _, ok := probe["overall_score"]; !ok {
		if _, ok := probe["consistency_score"]; !ok {
			return nil, false
		}
	}
	clampScores(&report)
	return &report, true
}

func clampScores(r *ScoreReport) {
	for _, p := range []*int{&r.ConsistencyScore, &r.CompletenessScore, &r.QualityScore, &r.ScopeAdherenceScore, &r.OverallScore} {
		if *p < 0 {
			*p = Unknown
		} else if *p > MaxScore {
			*p = MaxScore
		}
	}
}

// stripToJSON removes markdown code fences and surrounding prose,
// returning the first JSON object or array embedded in the text. Empty
// string when no candidate payload exists.
func stripToJSON(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return ""
	}

	start := strings.IndexAny(clean, "{[")
	if start == -1 {
		return ""
	}
	var end int
	if clean[start] == '{' {
		end = strings.LastIndex(clean, "}")
	} else {
		end = strings.LastIndex(clean, "]")
	}
	if end <= start {
		return ""
	}
	return strings.TrimSpace(clean[start : end+1])
}
