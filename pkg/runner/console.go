package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/observability"
)

// ConsoleObserver prints human-readable progress for lifecycle events.
func ConsoleObserver(w io.Writer, s Styles) observability.Observer {
	return observability.ObserverFunc(func(ctx context.Context, e domain.Event) {
		switch e.Type {
		case domain.EventPlanStart:
			fmt.Fprintf(w, "Generating plan for: %s\n", e.Message)
		case domain.EventPlanGenerated:
			fmt.Fprintf(w, "Plan ready with %d steps.\n", e.Count)
		case domain.EventStepExecuteStart:
			fmt.Fprintf(w, "Executing step %d: %s\n", e.Step.Number, e.Step.Description)
		case domain.EventStepExecuted:
			if e.Err != nil {
				fmt.Fprintf(w, "%s\n", s.Error(fmt.Sprintf("Step %d could not be executed: %v", e.Step.Number, e.Err)))
				return
			}
			text := fmt.Sprintf("Step %d %s: %s", e.Step.Number, e.Step.Status, e.Message)
			fmt.Fprintf(w, "%s %s\n", s.Status(e.Step.Status, text), s.faint(fmt.Sprintf("(%s)", e.Duration.Round(time.Millisecond))))
		case domain.EventStepSkipped:
			fmt.Fprintf(w, "%s\n", s.Status(domain.StepSkipped, fmt.Sprintf("Step %d skipped.", e.Step.Number)))
		case domain.EventStepRevised:
			fmt.Fprintf(w, "Step %d revised: %s\n", e.Step.Number, e.Step.Description)
		case domain.EventPlanContinued:
			if e.Count == 0 {
				fmt.Fprintln(w, "The planner had no further steps to add.")
				return
			}
			fmt.Fprintf(w, "Added %d steps to the plan.\n", e.Count)
		case domain.EventPlanComplete:
			fmt.Fprintf(w, "%s %s\n", s.bold("Plan complete:"), e.Message)
		case domain.EventStateSaved:
			fmt.Fprintf(w, "Saved to %s\n", e.Message)
		}
	})
}
