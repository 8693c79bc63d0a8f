package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
)

// FakePlanner is a scripted ports.Planner for tests.
//
// Steps returns the initial plan. Outcomes are consumed in order by
// ExecuteStep; once exhausted every step completes. Errors queued in
// ExecErrs take precedence over Outcomes for the same call.
type FakePlanner struct {
	mu sync.Mutex

	Steps        []string
	PlanErr      error
	Outcomes     []domain.StepOutcome
	ExecErrs     []error
	Continuation []string
	ContinueErr  error
	Summary      string
	SummaryErr   error

	// OnExecute runs after a step is recorded, before its outcome is returned.
	OnExecute func(step domain.Step)

	GenerateCalls int
	ExecuteCalls  int
	ContinueCalls int
	SummaryCalls  int
	Executed      []int
	LastLimit     int
	LastRequest   ports.PlanRequest
}

var _ ports.Planner = (*FakePlanner)(nil)

func (f *FakePlanner) GeneratePlan(ctx context.Context, req ports.PlanRequest) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GenerateCalls++
	f.LastRequest = req
	if f.PlanErr != nil {
		return nil, f.PlanErr
	}
	return append([]string(nil), f.Steps...), nil
}

func (f *FakePlanner) ExecuteStep(ctx context.Context, plan *domain.Plan, step domain.Step) (domain.StepOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ExecuteCalls++
	f.Executed = append(f.Executed, step.Number)
	if f.OnExecute != nil {
		f.OnExecute(step)
	}

	if len(f.ExecErrs) > 0 {
		err := f.ExecErrs[0]
		f.ExecErrs = f.ExecErrs[1:]
		if err != nil {
			return domain.StepOutcome{}, err
		}
	}
	if len(f.Outcomes) > 0 {
		out := f.Outcomes[0]
		f.Outcomes = f.Outcomes[1:]
		return out, nil
	}
	return domain.StepOutcome{
		Status:  domain.StepCompleted,
		Summary: fmt.Sprintf("did %s", step.Description),
	}, nil
}

func (f *FakePlanner) ContinuePlan(ctx context.Context, plan *domain.Plan, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ContinueCalls++
	f.LastLimit = limit
	if f.ContinueErr != nil {
		return nil, f.ContinueErr
	}
	return append([]string(nil), f.Continuation...), nil
}

func (f *FakePlanner) Summarize(ctx context.Context, plan *domain.Plan) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SummaryCalls++
	if f.SummaryErr != nil {
		return "", f.SummaryErr
	}
	if f.Summary != "" {
		return f.Summary, nil
	}
	counts := plan.Counts()
	return fmt.Sprintf("%d of %d steps completed", counts[domain.StepCompleted], len(plan.Steps)), nil
}
