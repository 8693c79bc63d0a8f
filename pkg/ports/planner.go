package ports

import (
	"context"

	"github.com/aretw0/stepwise/pkg/domain"
)

// PlanRequest is the input of plan generation.
type PlanRequest struct {
	Domain domain.Domain
	Goal   string
	Config domain.PlannerConfig
}

// Planner is the planning/execution capability consumed by the engine.
//
// Implementations are stateless per call: the plan they reason about is
// handed in and must not be retained or mutated. The engine applies every
// outcome to the state it owns.
//
// An error return means the planner could not act at all (backend down,
// goal rejected). A step the planner attempted but could not accomplish is
// reported through StepOutcome with status failed, not through error.
type Planner interface {
	// GeneratePlan returns the ordered step descriptions for a goal.
	GeneratePlan(ctx context.Context, req PlanRequest) ([]string, error)

	// ExecuteStep performs one step of the plan.
	ExecuteStep(ctx context.Context, plan *domain.Plan, step domain.Step) (domain.StepOutcome, error)

	// ContinuePlan proposes at most limit additional steps beyond the current plan.
	// An empty result means the planner considers the plan sufficient.
	ContinuePlan(ctx context.Context, plan *domain.Plan, limit int) ([]string, error)

	// Summarize produces a human-readable (markdown) synthesis of progress.
	Summarize(ctx context.Context, plan *domain.Plan) (string, error)
}
