package planner

import (
	"context"
	"sync"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
)

// Router is a ports.Planner that hands each call to the planner of the
// plan's domain, creating planners on first use. It serves hosts that plan
// for several domains with one engine, such as the MCP server.
type Router struct {
	cfg  domain.PlannerConfig
	opts []Option

	mu       sync.Mutex
	planners map[domain.Domain]ports.Planner
}

var _ ports.Planner = (*Router)(nil)

// NewRouter creates a router building planners with New(d, cfg, opts...).
func NewRouter(cfg domain.PlannerConfig, opts ...Option) *Router {
	return &Router{
		cfg:      cfg,
		opts:     opts,
		planners: make(map[domain.Domain]ports.Planner),
	}
}

// For returns the planner of d.
func (r *Router) For(d domain.Domain) (ports.Planner, error) {
	if d == "" {
		d = domain.DomainCustom
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.planners[d]; ok {
		return p, nil
	}
	p, err := New(d, r.cfg, r.opts...)
	if err != nil {
		return nil, err
	}
	r.planners[d] = p
	return p, nil
}

func (r *Router) GeneratePlan(ctx context.Context, req ports.PlanRequest) ([]string, error) {
	p, err := r.For(req.Domain)
	if err != nil {
		return nil, err
	}
	return p.GeneratePlan(ctx, req)
}

func (r *Router) ExecuteStep(ctx context.Context, plan *domain.Plan, step domain.Step) (domain.StepOutcome, error) {
	p, err := r.For(plan.Domain)
	if err != nil {
		return domain.StepOutcome{}, err
	}
	return p.ExecuteStep(ctx, plan, step)
}

func (r *Router) ContinuePlan(ctx context.Context, plan *domain.Plan, limit int) ([]string, error) {
	p, err := r.For(plan.Domain)
	if err != nil {
		return nil, err
	}
	return p.ContinuePlan(ctx, plan, limit)
}

func (r *Router) Summarize(ctx context.Context, plan *domain.Plan) (string, error) {
	p, err := r.For(plan.Domain)
	if err != nil {
		return "", err
	}
	return p.Summarize(ctx, plan)
}
