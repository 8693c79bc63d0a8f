package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/stepwise/pkg/domain"
)

// HaltError reports that an autonomous run stopped at a failed step.
type HaltError struct {
	Step domain.Step
}

func (e *HaltError) Error() string {
	reason := ""
	if e.Step.Result != nil {
		reason = ": " + e.Step.Result.Summary
	}
	return fmt.Sprintf("run halted at step %d (failed)%s", e.Step.Number, reason)
}

// RunAll executes every pending step in order without pausing.
//
// A planner error always halts the run and is returned as a *StepError.
// A step the planner reports as failed halts the run with a *HaltError
// under FailHalt, and is recorded and passed over under FailContinue.
// The returned state reflects all progress made before halting.
func (e *Engine) RunAll(ctx context.Context, state *domain.ExecutionState) (*domain.ExecutionState, error) {
	current := state
	for {
		if err := ctx.Err(); err != nil {
			return current, err
		}

		step, ok := current.Plan.Current()
		if !ok {
			return current, nil
		}
		number := step.Number

		next, err := e.Execute(ctx, current)
		if err != nil {
			return current, err
		}
		current = next

		done, _ := current.Plan.Step(number)
		if done.Status == domain.StepFailed && e.policy != domain.FailContinue {
			e.logger.Debug("Run Halted", "session_id", current.SessionID, "step", number)
			return current, &HaltError{Step: *done}
		}
	}
}

// Summarize asks the planner for a synthesis of progress so far and stores it
// as the rolling execution summary. Step state is not altered.
func (e *Engine) Summarize(ctx context.Context, state *domain.ExecutionState) (*domain.ExecutionState, error) {
	summary, err := e.planner.Summarize(ctx, state.Plan.Clone())
	if err != nil {
		return state, fmt.Errorf("summary generation failed: %w", err)
	}

	next := state.Clone()
	next.ExecutionResult.Summary = summary
	e.touch(next)

	ev := domain.NewEvent(domain.EventSummaryGenerated, state.SessionID)
	ev.Message = summary
	e.bus.Publish(ctx, ev)
	return next, nil
}

// Complete produces the final summary. When no step is pending it also
// stamps the completion time and publishes plan_complete.
func (e *Engine) Complete(ctx context.Context, state *domain.ExecutionState) (*domain.ExecutionState, error) {
	next, err := e.Summarize(ctx, state)
	if err != nil {
		return state, err
	}
	if !next.IsComplete() {
		return next, nil
	}

	next.ExecutionResult.CompletedAt = e.now()

	ev := domain.NewEvent(domain.EventPlanComplete, state.SessionID)
	counts := next.Plan.Counts()
	ev.Count = len(next.Plan.Steps)
	ev.Message = fmt.Sprintf("%d completed, %d skipped, %d failed",
		counts[domain.StepCompleted], counts[domain.StepSkipped], counts[domain.StepFailed])
	e.bus.Publish(ctx, ev)

	e.logger.Debug("Plan Complete", "session_id", state.SessionID, "steps", ev.Count)
	return next, nil
}
