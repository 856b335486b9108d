package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/stagehand/internal/application/suite"
	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
)

var (
	statusColors = map[scenario.ExecutionStatus]lipgloss.Color{
		scenario.StatusPassed:   lipgloss.Color("42"),
		scenario.StatusBypassed: lipgloss.Color("214"),
		scenario.StatusIgnored:  lipgloss.Color("39"),
		scenario.StatusFailed:   lipgloss.Color("196"),
	}

	statusMarks = map[scenario.ExecutionStatus]string{
		scenario.StatusNotRun:   "·",
		scenario.StatusPassed:   "✔",
		scenario.StatusBypassed: "↷",
		scenario.StatusIgnored:  "⚠",
		scenario.StatusFailed:   "✖",
	}

	summaryOrder = []scenario.ExecutionStatus{
		scenario.StatusPassed,
		scenario.StatusBypassed,
		scenario.StatusIgnored,
		scenario.StatusFailed,
		scenario.StatusNotRun,
	}
)

// palette holds styles bound to the color profile of one output writer.
type palette struct {
	renderer *lipgloss.Renderer
	title    lipgloss.Style
	faint    lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)
	return &palette{
		renderer: r,
		title:    r.NewStyle().Bold(true),
		faint:    r.NewStyle().Faint(true),
	}
}

func (p *palette) status(status scenario.ExecutionStatus) lipgloss.Style {
	color, ok := statusColors[status]
	if !ok {
		return p.faint
	}
	return p.renderer.NewStyle().Foreground(color)
}

func (p *palette) mark(status scenario.ExecutionStatus) string {
	return p.status(status).Render(statusMarks[status])
}

func (p *palette) badge(status scenario.ExecutionStatus) string {
	return p.status(status).Render(statusMarks[status] + " " + status.String())
}

// renderReport writes the scenario tree of a run followed by a summary line.
func renderReport(w io.Writer, report *suite.Report, verbose bool) {
	p := newPalette(w)
	fmt.Fprintf(w, "%s  %s  %s\n\n",
		p.title.Render("Suite "+report.Suite),
		p.badge(report.Status),
		p.faint.Render(formatDuration(report.Duration.Seconds())),
	)

	for _, result := range report.Results {
		if result == nil {
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n",
			p.mark(result.Status),
			p.title.Render(result.Name),
			p.faint.Render(formatDuration(result.Duration.Seconds())),
		)
		if result.Failure != nil && len(result.Steps) == 0 {
			p.details(w, 1, result.Failure.Error())
		}
		for _, step := range result.AllSteps() {
			p.step(w, step, verbose)
		}
	}

	parts := make([]string, 0, len(summaryOrder))
	for _, status := range summaryOrder {
		parts = append(parts, p.status(status).Render(fmt.Sprintf("%s %d", strings.ReplaceAll(status.String(), "_", " "), report.Counts[status])))
	}
	fmt.Fprintf(w, "\n%s %d scenarios, %d steps: %s\n",
		p.title.Render("Summary:"), len(report.Results), report.Steps(), strings.Join(parts, ", "))
}

func (p *palette) step(w io.Writer, step *scenario.StepResult, verbose bool) {
	depth := len(step.Info.Path)
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s %s %s\n",
		indent,
		p.mark(step.Status),
		step.Info.Numeral(),
		step.Info.Name,
	)

	// Composite steps repeat their children's details; show them once, on the child.
	if len(step.SubSteps) > 0 {
		return
	}
	if step.Status != scenario.StatusPassed && step.Status != scenario.StatusNotRun && step.Details != "" {
		p.details(w, depth+1, step.Details)
	}
	if verbose {
		for _, comment := range step.Comments() {
			p.details(w, depth+1, strings.TrimRight(comment.Text, "\n"))
		}
	}
}

func (p *palette) details(w io.Writer, depth int, text string) {
	indent := strings.Repeat("  ", depth+1)
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintln(w, indent+p.faint.Render(line))
	}
}

func formatDuration(seconds float64) string {
	return fmt.Sprintf("(%.2fs)", seconds)
}
