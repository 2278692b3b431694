package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/specloop/pkg/domain/run"
	"github.com/felixgeelhaar/specloop/pkg/domain/verdict"
)

// formatQAReport renders one iteration's grading outcome as markdown.
// It is written every iteration regardless of score, so a capped or
// failed run still leaves an audit trail on disk.
func formatQAReport(sliceName string, iteration int, report *verdict.ScoreReport, statuses map[string]verdict.ArtifactStatus, artifacts map[string]run.Artifact) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# QA Report: %s (Iteration %d)\n\n", sliceName, iteration)
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().Format(time.RFC3339))

	b.WriteString("## Scores\n\n")
	b.WriteString("| Criterion | Score |\n|---|---|\n")
	fmt.Fprintf(&b, "| Consistency | %s/10 |\n", scoreLabel(report.ConsistencyScore))
	fmt.Fprintf(&b, "| Completeness | %s/10 |\n", scoreLabel(report.CompletenessScore))
	fmt.Fprintf(&b, "| Quality | %s/10 |\n", scoreLabel(report.QualityScore))
	fmt.Fprintf(&b, "| Scope Adherence | %s/10 |\n", scoreLabel(report.ScopeAdherenceScore))
	fmt.Fprintf(&b, "| **Overall** | **%s/10** |\n\n", scoreLabel(report.OverallScore))

	if report.Penalties != nil && report.Penalties.TotalPenalty > 0 {
		b.WriteString("## Penalties\n\n")
		fmt.Fprintf(&b, "Original score before penalties: %s/10\n\n", scoreLabel(report.OriginalOverallScore))
		for _, note := range report.Penalties.Notes {
			fmt.Fprintf(&b, "- %s\n", note)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Diagram Status\n\n")
	for _, kind := range Families {
		status := statuses[kind]
		line := fmt.Sprintf("- **%s**: %s", kind, status)
		if art, ok := artifacts[kind]; ok {
			if art.Path != "" {
				line += fmt.Sprintf(" (`%s`)", art.Path)
			}
			if art.Detail != "" {
				line += " - " + art.Detail
			}
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	writeAnalysis(&b, "Consistency Analysis", report.ConsistencyAnalysis)
	writeAnalysis(&b, "Completeness Analysis", report.CompletenessAnalysis)
	writeAnalysis(&b, "Quality Analysis", report.QualityAnalysis)
	writeAnalysis(&b, "Scope Adherence Analysis", report.ScopeAdherenceAnalysis)
	writeAnalysis(&b, "Gap Analysis", report.GapAnalysis)

	if len(report.ScopeViolations) > 0 {
		b.WriteString("## Scope Violations\n\n")
		for _, v := range report.ScopeViolations {
			fmt.Fprintf(&b, "- %s\n", v)
		}
		b.WriteString("\n")
	}

	if len(report.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for i, r := range report.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, r)
		}
		b.WriteString("\n")
	}

	if report.Err != "" {
		b.WriteString("## Extraction Notes\n\n")
		fmt.Fprintf(&b, "Structured score extraction degraded: %s\n", report.Err)
	}

	return b.String()
}

func writeAnalysis(b *strings.Builder, title, body string) {
	if body == "" {
		return
	}
	fmt.Fprintf(b, "## %s\n\n%s\n\n", title, body)
}

// formatWorkflowSummary renders the cross-slice outcome written at the
// end of a workflow run.
func formatWorkflowSummary(result *WorkflowResult, opts DesignOptions) string {
	var b strings.Builder

	b.WriteString("# Workflow Summary\n\n")
	fmt.Fprintf(&b, "Started: %s\n", result.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Finished: %s\n", result.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration: %s\n\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Second))
	fmt.Fprintf(&b, "Target score: %d/10, max iterations per slice: %d\n\n", opts.TargetScore, opts.MaxIterations)
	fmt.Fprintf(&b, "Slices processed: %d, targets achieved: %d\n\n", len(result.Runs), result.Achieved())

	b.WriteString("## Slices\n\n")
	for _, r := range result.Runs {
		fmt.Fprintf(&b, "### %s\n\n", r.Name)
		fmt.Fprintf(&b, "- Outcome: %s\n", describeRun(r))
		fmt.Fprintf(&b, "- Target achieved: %t\n", r.TargetAchieved)
		if last := r.Last(); last != nil {
			fmt.Fprintf(&b, "- Unhealthy diagram families in final set: %s\n", joinOrNone(erroredFamilies(last.Artifacts)))
			if last.QAReport != "" {
				fmt.Fprintf(&b, "- Final QA report: `%s`\n", last.QAReport)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}
