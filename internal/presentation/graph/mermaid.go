package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of a plan.
// Steps are chained in order, shaped by status:
// - Goal: ((Circle))
// - Completed: [Rectangle]
// - Failed: {{Hexagon}}
// - Skipped: [/Parallelogram/]
// - Pending: (Rounded)
// The current step gets the "current" class.
func GenerateMermaid(plan *domain.Plan) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if plan == nil {
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("    goal((\"%s\"))\n", escapeLabel(plan.Goal)))

	prev := "goal"
	for _, step := range plan.Steps {
		id := stepID(step.Number)

		opener, closer := "(", ")"
		switch step.Status {
		case domain.StepCompleted:
			opener, closer = "[", "]"
		case domain.StepFailed:
			opener, closer = "{{", "}}"
		case domain.StepSkipped:
			opener, closer = "[/", "/]"
		}

		sb.WriteString(fmt.Sprintf("    %s%s\"%d. %s\"%s\n", id, opener, step.Number, escapeLabel(step.Description), closer))
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, id))
		prev = id
	}

	sb.WriteString("\n    %% Status Styles\n")
	// Black text keeps labels readable on both light and dark themes.
	sb.WriteString("    classDef completed fill:#e8f5e9,stroke:#2e7d32,color:#000;\n")
	sb.WriteString("    classDef failed fill:#ffebee,stroke:#c62828,color:#000;\n")
	sb.WriteString("    classDef skipped fill:#eceff1,stroke:#78909c,stroke-dasharray:4,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	for _, step := range plan.Steps {
		if step.Status == domain.StepPending {
			continue
		}
		sb.WriteString(fmt.Sprintf("    class %s %s;\n", stepID(step.Number), step.Status))
	}
	if current, ok := plan.Current(); ok {
		sb.WriteString(fmt.Sprintf("    class %s current;\n", stepID(current.Number)))
	}

	return sb.String()
}

func stepID(number int) string {
	return fmt.Sprintf("step%d", number)
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}
