package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/observability"
	"github.com/aretw0/stepwise/pkg/ports"
)

// Engine is the core plan state machine.
//
// It is stateless: every operation receives the current ExecutionState and
// returns a new one, leaving its input untouched. The caller (the runner
// loop, the MCP server) owns the state and decides what to keep.
type Engine struct {
	planner ports.Planner
	bus     *observability.Bus
	logger  *slog.Logger
	policy  domain.FailurePolicy
	now     func() time.Time
}

// Option configures the Engine.
type Option func(*Engine)

// WithBus sets the event bus lifecycle events are published on.
func WithBus(bus *observability.Bus) Option {
	return func(e *Engine) {
		e.bus = bus
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithFailurePolicy decides whether RunAll halts on a failed step.
func WithFailurePolicy(p domain.FailurePolicy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new engine driving the given planner.
func NewEngine(planner ports.Planner, opts ...Option) *Engine {
	e := &Engine{
		planner: planner,
		logger:  logging.NewNop(),
		policy:  domain.FailHalt,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the configured failure policy.
func (e *Engine) Policy() domain.FailurePolicy {
	return e.policy
}

// Start acquires a plan for the goal and returns the initial state.
// No partial plan is ever returned: any planner error aborts.
func (e *Engine) Start(ctx context.Context, sessionID string, d domain.Domain, goal string, cfg domain.PlannerConfig) (*domain.ExecutionState, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, domain.ErrMissingGoal
	}
	cfg = normalizeConfig(cfg)

	start := domain.NewEvent(domain.EventPlanStart, sessionID)
	start.Message = goal
	e.bus.Publish(ctx, start)

	descriptions, err := e.planner.GeneratePlan(ctx, ports.PlanRequest{
		Domain: d,
		Goal:   goal,
		Config: cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}

	descriptions = cleanDescriptions(descriptions, cfg.MaxSteps)
	if len(descriptions) == 0 {
		return nil, domain.ErrEmptyPlan
	}

	state := domain.NewState(sessionID, d, goal)
	state.Config = cfg
	state.Plan = domain.NewPlan(d, goal, descriptions)
	state.CreatedAt = e.now()
	state.UpdatedAt = state.CreatedAt

	generated := domain.NewEvent(domain.EventPlanGenerated, sessionID)
	generated.Count = len(state.Plan.Steps)
	e.bus.Publish(ctx, generated)

	e.logger.Debug("Plan Generated", "session_id", sessionID, "domain", d, "steps", len(state.Plan.Steps))
	return state, nil
}

func (e *Engine) touch(state *domain.ExecutionState) {
	state.UpdatedAt = e.now()
}

func (e *Engine) stepEvent(t domain.EventType, state *domain.ExecutionState, step domain.Step) domain.Event {
	ev := domain.NewEvent(t, state.SessionID)
	ev.Timestamp = e.now()
	ev.Step = &step
	return ev
}

func normalizeConfig(cfg domain.PlannerConfig) domain.PlannerConfig {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = domain.DefaultMaxSteps
	}
	if cfg.Depth == "" {
		cfg.Depth = domain.DepthMedium
	}
	return cfg
}

// cleanDescriptions trims, drops blanks and caps the list at limit.
func cleanDescriptions(in []string, limit int) []string {
	out := make([]string, 0, len(in))
	for _, d := range in {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		out = append(out, d)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
