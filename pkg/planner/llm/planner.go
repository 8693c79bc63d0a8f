// Package llm implements the planner on top of a langchaingo language model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/tmc/langchaingo/llms"
)

// Planner asks a language model to plan, execute and summarise.
// It holds no plan between calls.
type Planner struct {
	model       llms.Model
	domain      domain.Domain
	temperature float64
	logger      *slog.Logger
}

var _ ports.Planner = (*Planner)(nil)

// Option configures the planner.
type Option func(*Planner)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(p *Planner) {
		p.temperature = t
	}
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) {
		p.logger = l
	}
}

// New creates a planner specialised for d.
func New(model llms.Model, d domain.Domain, opts ...Option) *Planner {
	p := &Planner{
		model:       model,
		domain:      d,
		temperature: 0.2,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Planner) ask(ctx context.Context, name string, data any) (string, error) {
	system, err := render("system.md", struct{ Domain string }{p.domain.Label()})
	if err != nil {
		return "", err
	}
	prompt, err := render(name, data)
	if err != nil {
		return "", err
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	p.logger.Debug("LLM Request", "prompt", name, "domain", p.domain)
	resp, err := p.model.GenerateContent(ctx, messages, llms.WithTemperature(p.temperature))
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	content := resp.Choices[0].Content
	p.logger.Debug("LLM Response", "prompt", name, "bytes", len(content))
	return content, nil
}

// GeneratePlan asks the model for an ordered list of steps.
func (p *Planner) GeneratePlan(ctx context.Context, req ports.PlanRequest) ([]string, error) {
	reply, err := p.ask(ctx, "plan.md", planData{
		Domain:   req.Domain.Label(),
		Goal:     req.Goal,
		Depth:    req.Config.Depth,
		MaxSteps: req.Config.MaxSteps,
	})
	if err != nil {
		return nil, fmt.Errorf("llm plan: %w", err)
	}
	return parseSteps(reply)
}

// ExecuteStep asks the model to carry out step and report the outcome.
func (p *Planner) ExecuteStep(ctx context.Context, plan *domain.Plan, step domain.Step) (domain.StepOutcome, error) {
	reply, err := p.ask(ctx, "execute.md", planView{
		Goal:    plan.Goal,
		Steps:   plan.Steps,
		Current: step,
	})
	if err != nil {
		return domain.StepOutcome{}, fmt.Errorf("llm execute: %w", err)
	}
	return parseOutcome(reply), nil
}

// ContinuePlan asks the model for up to limit further steps.
func (p *Planner) ContinuePlan(ctx context.Context, plan *domain.Plan, limit int) ([]string, error) {
	reply, err := p.ask(ctx, "continue.md", planView{
		Goal:  plan.Goal,
		Steps: plan.Steps,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("llm continue: %w", err)
	}
	return parseSteps(reply)
}

// Summarize returns the model's markdown synthesis of the plan.
func (p *Planner) Summarize(ctx context.Context, plan *domain.Plan) (string, error) {
	reply, err := p.ask(ctx, "summary.md", planView{
		Goal:  plan.Goal,
		Steps: plan.Steps,
	})
	if err != nil {
		return "", fmt.Errorf("llm summary: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
