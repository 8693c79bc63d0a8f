package runner

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/muesli/termenv"
)

// ContentRenderer turns markdown into terminal output (e.g. glamour).
type ContentRenderer func(markdown string) (string, error)

// Styles colours the console output.
type Styles struct {
	out *termenv.Output
}

// NewStyles detects the colour profile of w.
func NewStyles(w io.Writer) Styles {
	return Styles{out: termenv.NewOutput(w)}
}

// PlainStyles never emits escape sequences.
func PlainStyles(w io.Writer) Styles {
	return Styles{out: termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))}
}

func (s Styles) paint(text, color string) string {
	if s.out == nil {
		return text
	}
	return s.out.String(text).Foreground(s.out.Color(color)).String()
}

func (s Styles) bold(text string) string {
	if s.out == nil {
		return text
	}
	return s.out.String(text).Bold().String()
}

func (s Styles) faint(text string) string {
	if s.out == nil {
		return text
	}
	return s.out.String(text).Faint().String()
}

// Status renders a step status with its colour.
func (s Styles) Status(st domain.StepStatus, text string) string {
	switch st {
	case domain.StepCompleted:
		return s.paint(text, "2")
	case domain.StepFailed:
		return s.paint(text, "1")
	case domain.StepSkipped:
		return s.paint(text, "3")
	}
	return text
}

func (s Styles) Error(text string) string { return s.paint(text, "1") }

func statusMark(st domain.StepStatus) string {
	switch st {
	case domain.StepCompleted:
		return "[x]"
	case domain.StepFailed:
		return "[!]"
	case domain.StepSkipped:
		return "[-]"
	}
	return "[ ]"
}

// RenderPlan writes the step list: status-coloured descriptions and, for
// completed or failed steps, the one-line result summary.
func RenderPlan(w io.Writer, s Styles, plan *domain.Plan) {
	fmt.Fprintf(w, "\n%s %s\n", s.bold("Plan:"), plan.Goal)

	current, hasCurrent := plan.Current()
	for _, step := range plan.Steps {
		pointer := "  "
		if hasCurrent && step.Number == current.Number {
			pointer = "> "
		}
		line := fmt.Sprintf("%s %d. %s", statusMark(step.Status), step.Number, step.Description)
		fmt.Fprintf(w, "%s%s\n", pointer, s.Status(step.Status, line))

		if step.Result != nil && (step.Status == domain.StepCompleted || step.Status == domain.StepFailed) {
			fmt.Fprintf(w, "       %s\n", s.faint(firstLine(step.Result.Summary)))
		}
	}

	counts := plan.Counts()
	fmt.Fprintf(w, "\n%d completed, %d skipped, %d failed, %d pending\n",
		counts[domain.StepCompleted], counts[domain.StepSkipped],
		counts[domain.StepFailed], counts[domain.StepPending])
}

// RenderSummary prints the markdown summary through renderer when set.
func RenderSummary(w io.Writer, renderer ContentRenderer, summary string) {
	if strings.TrimSpace(summary) == "" {
		return
	}
	out := summary
	if renderer != nil {
		if rendered, err := renderer(summary); err == nil {
			out = rendered
		}
	}
	fmt.Fprintln(w, strings.TrimRight(out, "\n"))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
