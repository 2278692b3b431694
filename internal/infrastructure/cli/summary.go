package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/specloop/pkg/domain/run"
	"github.com/felixgeelhaar/specloop/pkg/domain/verdict"
)

var (
	summaryBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	summaryHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1)

	outcomeGood = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	outcomeWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	outcomeBad  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// printRunSummary renders a boxed end-of-run summary.
func printRunSummary(r *run.ConvergenceRun) {
	var lines []string
	lines = append(lines, summaryHeader.Render(r.Name))
	lines = append(lines, "Outcome:    "+styledOutcome(r.Outcome))
	lines = append(lines, fmt.Sprintf("Iterations: %d/%d", len(r.Iterations), r.MaxIterations))

	if errs := r.FinalErrors(); errs != verdict.Unknown {
		lines = append(lines, fmt.Sprintf("Errors:     %d (target %d)", errs, r.TargetErrors))
	}
	if score := r.FinalScore(); score != verdict.Unknown {
		lines = append(lines, fmt.Sprintf("Score:      %d/10 (target %d)", score, r.TargetScore))
	}
	if r.FinalVersion > 0 {
		lines = append(lines, fmt.Sprintf("Version:    v%d", r.FinalVersion))
	}
	if r.Outcome == run.OutcomeFailed && r.FailedStep != "" {
		lines = append(lines, "Failed at:  "+r.FailedStep)
	}
	if last := r.Last(); last != nil && last.QAReport != "" {
		lines = append(lines, "Report:     "+last.QAReport)
	}

	fmt.Println(summaryBox.Render(strings.Join(lines, "\n")))
}

func styledOutcome(o run.Outcome) string {
	switch o {
	case run.OutcomeAccepted:
		return outcomeGood.Render("accepted")
	case run.OutcomeCapped:
		return outcomeWarn.Render("capped")
	default:
		return outcomeBad.Render("failed")
	}
}
