package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
)

// StepError reports that the planner could not act on a step.
// The step is left pending so the user may retry, skip or revise it.
type StepError struct {
	Number int
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Number, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ErrInvalidOutcome is returned when the planner reports a status other than completed or failed.
var ErrInvalidOutcome = errors.New("planner returned an invalid step status")

// Execute asks the planner to perform the current step and applies the outcome.
//
// On planner error the returned state is the input state (step still pending)
// and the error is a *StepError.
func (e *Engine) Execute(ctx context.Context, state *domain.ExecutionState) (*domain.ExecutionState, error) {
	next := state.Clone()
	step, ok := next.Plan.Current()
	if !ok {
		return state, domain.ErrNoPendingStep
	}

	e.bus.Publish(ctx, e.stepEvent(domain.EventStepExecuteStart, next, *step))
	e.logger.Debug("Execute Step", "session_id", state.SessionID, "step", step.Number)

	started := e.now()
	outcome, err := e.planner.ExecuteStep(ctx, state.Plan.Clone(), *step)
	if err == nil {
		err = validateOutcome(outcome)
	}
	finished := e.now()

	if err != nil {
		stepErr := &StepError{Number: step.Number, Err: err}
		ev := e.stepEvent(domain.EventStepExecuted, state, *step)
		ev.Duration = finished.Sub(started)
		ev.Err = stepErr
		e.bus.Publish(ctx, ev)
		return state, stepErr
	}

	status := outcome.Status
	if status == "" {
		status = domain.StepCompleted
	}
	summary := strings.TrimSpace(outcome.Summary)
	if summary == "" {
		summary = fmt.Sprintf("Step %d %s", step.Number, status)
	}

	step.Status = status
	step.Result = &domain.StepResult{
		Summary:    summary,
		Output:     outcome.Output,
		StartedAt:  started,
		FinishedAt: finished,
	}
	if status == domain.StepFailed {
		step.Result.Error = summary
	}
	e.touch(next)

	ev := e.stepEvent(domain.EventStepExecuted, next, *step)
	ev.Duration = finished.Sub(started)
	ev.Message = summary
	e.bus.Publish(ctx, ev)

	return next, nil
}

func validateOutcome(o domain.StepOutcome) error {
	switch o.Status {
	case "", domain.StepCompleted, domain.StepFailed:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidOutcome, o.Status)
}

// Skip marks the current step skipped. No result is computed.
func (e *Engine) Skip(ctx context.Context, state *domain.ExecutionState) (*domain.ExecutionState, error) {
	next := state.Clone()
	step, ok := next.Plan.Current()
	if !ok {
		return state, domain.ErrNoPendingStep
	}

	step.Status = domain.StepSkipped
	step.Result = nil
	e.touch(next)

	e.bus.Publish(ctx, e.stepEvent(domain.EventStepSkipped, next, *step))
	return next, nil
}

// Revise replaces the description of a pending step.
// Number and status are preserved.
func (e *Engine) Revise(ctx context.Context, state *domain.ExecutionState, number int, description string) (*domain.ExecutionState, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return state, errors.New("revised description cannot be empty")
	}

	next := state.Clone()
	step, ok := next.Plan.Step(number)
	if !ok {
		return state, fmt.Errorf("%w: %d", domain.ErrStepNotFound, number)
	}
	if step.Status != domain.StepPending {
		return state, fmt.Errorf("%w: step %d is %s", domain.ErrStepNotPending, number, step.Status)
	}

	step.Description = description
	e.touch(next)

	e.bus.Publish(ctx, e.stepEvent(domain.EventStepRevised, next, *step))
	return next, nil
}

// Continue asks the planner for additional steps and appends them, numbered
// from the current maximum. Existing steps are never modified.
// Returns the appended steps (possibly none).
func (e *Engine) Continue(ctx context.Context, state *domain.ExecutionState) (*domain.ExecutionState, []domain.Step, error) {
	limit := normalizeConfig(state.Config).MaxSteps

	descriptions, err := e.planner.ContinuePlan(ctx, state.Plan.Clone(), limit)
	if err != nil {
		return state, nil, fmt.Errorf("plan continuation failed: %w", err)
	}
	descriptions = cleanDescriptions(descriptions, limit)

	next := state.Clone()
	added := next.Plan.Append(descriptions)
	if len(added) > 0 {
		e.touch(next)
	}

	ev := domain.NewEvent(domain.EventPlanContinued, state.SessionID)
	ev.Count = len(added)
	e.bus.Publish(ctx, ev)

	return next, added, nil
}
