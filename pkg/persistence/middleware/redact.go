package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
)

// Mask replaces redacted text.
const Mask = "***"

// DefaultSecretPatterns match common credentials in step text and results.
var DefaultSecretPatterns = []string{
	`sk-[A-Za-z0-9_\-]{16,}`,
	`(?i)\b(password|passwd|token|secret|api[_-]?key)\b\s*[:=]\s*\S+`,
	`(?i)bearer\s+[A-Za-z0-9._\-]{12,}`,
	`AKIA[0-9A-Z]{16}`,
}

type redactMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks text matching the
// patterns in the goal, step descriptions, step results and summary before
// they reach the store. Loaded states keep the masks.
func NewRedactMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactMiddleware) Save(ctx context.Context, sessionID string, state *domain.ExecutionState) error {
	// The engine keeps using the unmasked state.
	cloned := state.Clone()

	cloned.Goal = m.mask(cloned.Goal)
	cloned.ExecutionResult.Summary = m.mask(cloned.ExecutionResult.Summary)
	if cloned.Plan != nil {
		cloned.Plan.Goal = m.mask(cloned.Plan.Goal)
		for i := range cloned.Plan.Steps {
			step := &cloned.Plan.Steps[i]
			step.Description = m.mask(step.Description)
			if step.Result != nil {
				step.Result.Summary = m.mask(step.Result.Summary)
				step.Result.Output = m.mask(step.Result.Output)
				step.Result.Error = m.mask(step.Result.Error)
			}
		}
	}

	return m.next.Save(ctx, sessionID, cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, sessionID string) (*domain.ExecutionState, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}
