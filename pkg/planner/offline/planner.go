// Package offline is a deterministic planner that needs no network access.
//
// Plans are built from YAML step templates; execution always succeeds and
// the summary is assembled from the recorded step results.
package offline

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

// StepTemplate is one candidate step.
type StepTemplate struct {
	Text  string       `yaml:"text"`
	Depth domain.Depth `yaml:"depth"`
}

// DomainTemplates holds the steps and continuation steps for one domain.
type DomainTemplates struct {
	Steps     []StepTemplate `yaml:"steps"`
	Followups []string       `yaml:"followups"`
}

// Templates maps a domain to its templates.
type Templates map[domain.Domain]DomainTemplates

// ParseTemplates decodes a templates document.
func ParseTemplates(data []byte) (Templates, error) {
	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	for d, dt := range t {
		for i, s := range dt.Steps {
			if s.Depth == "" {
				dt.Steps[i].Depth = domain.DepthShallow
				continue
			}
			if _, err := domain.ParseDepth(string(s.Depth)); err != nil {
				return nil, fmt.Errorf("templates for %s, step %d: %w", d, i+1, err)
			}
		}
	}
	return t, nil
}

// LoadTemplates reads a templates file from disk.
func LoadTemplates(path string) (Templates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}
	return ParseTemplates(data)
}

// Planner implements ports.Planner from templates.
type Planner struct {
	templates Templates
}

var _ ports.Planner = (*Planner)(nil)

// Option configures the offline planner.
type Option func(*Planner)

// WithTemplates replaces the built-in templates.
func WithTemplates(t Templates) Option {
	return func(p *Planner) {
		p.templates = t
	}
}

// New creates an offline planner using the built-in templates.
func New(opts ...Option) (*Planner, error) {
	t, err := ParseTemplates(defaultTemplates)
	if err != nil {
		return nil, err
	}
	p := &Planner{templates: t}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Planner) forDomain(d domain.Domain) DomainTemplates {
	if dt, ok := p.templates[d]; ok {
		return dt
	}
	return p.templates[domain.DomainCustom]
}

func depthRank(d domain.Depth) int {
	switch d {
	case domain.DepthShallow:
		return 0
	case domain.DepthDeep:
		return 2
	default:
		return 1
	}
}

func expand(text, goal string) string {
	return strings.ReplaceAll(text, "{{goal}}", goal)
}

// GeneratePlan selects the templates at or below the requested depth.
func (p *Planner) GeneratePlan(ctx context.Context, req ports.PlanRequest) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dt := p.forDomain(req.Domain)
	limit := depthRank(req.Config.Depth)

	var steps []string
	for _, s := range dt.Steps {
		if depthRank(s.Depth) <= limit {
			steps = append(steps, expand(s.Text, req.Goal))
		}
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("no templates for domain %q", req.Domain)
	}
	return steps, nil
}

// ExecuteStep always reports success.
func (p *Planner) ExecuteStep(ctx context.Context, plan *domain.Plan, step domain.Step) (domain.StepOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.StepOutcome{}, err
	}
	return domain.StepOutcome{
		Status:  domain.StepCompleted,
		Summary: fmt.Sprintf("Completed offline: %s", step.Description),
	}, nil
}

// ContinuePlan offers the domain's follow-up steps that are not yet in the plan.
func (p *Planner) ContinuePlan(ctx context.Context, plan *domain.Plan, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(plan.Steps))
	for _, s := range plan.Steps {
		seen[s.Description] = true
	}

	var out []string
	for _, f := range p.forDomain(plan.Domain).Followups {
		text := expand(f, plan.Goal)
		if seen[text] {
			continue
		}
		out = append(out, text)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Summarize renders a markdown report of the plan.
func (p *Planner) Summarize(ctx context.Context, plan *domain.Plan) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	counts := plan.Counts()

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", plan.Goal)
	fmt.Fprintf(&b, "Domain: **%s**. %d of %d steps completed, %d skipped, %d failed, %d pending.\n\n",
		plan.Domain.Label(), counts[domain.StepCompleted], len(plan.Steps),
		counts[domain.StepSkipped], counts[domain.StepFailed], counts[domain.StepPending])

	for _, s := range plan.Steps {
		fmt.Fprintf(&b, "%d. **%s** (%s)", s.Number, s.Description, s.Status)
		if s.Result != nil && s.Result.Summary != "" {
			fmt.Fprintf(&b, ": %s", s.Result.Summary)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
