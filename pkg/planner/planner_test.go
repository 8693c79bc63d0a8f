package planner_test

import (
	"context"
	"testing"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/planner"
	"github.com/aretw0/stepwise/pkg/planner/llm"
	"github.com/aretw0/stepwise/pkg/planner/offline"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type nopModel struct{}

func (nopModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: `{"steps":["x"]}`}}}, nil
}

func (nopModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", nil
}

func TestNew(t *testing.T) {
	t.Run("Fallback Is Offline", func(t *testing.T) {
		cfg := domain.DefaultPlannerConfig()
		cfg.Fallback = true

		p, err := planner.New(domain.DomainCICD, cfg)
		require.NoError(t, err)
		assert.IsType(t, &offline.Planner{}, p)
	})

	t.Run("Fallback With Missing Templates File", func(t *testing.T) {
		cfg := domain.DefaultPlannerConfig()
		cfg.Fallback = true

		_, err := planner.New(domain.DomainCICD, cfg, planner.WithTemplates("/does/not/exist.yaml"))
		assert.Error(t, err)
	})

	t.Run("Supplied Model", func(t *testing.T) {
		p, err := planner.New(domain.DomainData, domain.DefaultPlannerConfig(), planner.WithModel(nopModel{}))
		require.NoError(t, err)
		assert.IsType(t, &llm.Planner{}, p)
	})

	t.Run("No Key Is Unavailable", func(t *testing.T) {
		_, err := planner.New(domain.DomainData, domain.DefaultPlannerConfig(), planner.WithOpenAI("", "", ""))
		assert.ErrorIs(t, err, domain.ErrPlannerUnavailable)
		assert.Contains(t, err.Error(), "--fallback")
	})

	t.Run("OpenAI Client Is Built Lazily", func(t *testing.T) {
		p, err := planner.New(domain.DomainData, domain.DefaultPlannerConfig(),
			planner.WithOpenAI("gpt-4o-mini", "http://127.0.0.1:1/v1", "sk-test"))
		require.NoError(t, err)
		assert.NotNil(t, p)
	})
}

func TestRouter(t *testing.T) {
	ctx := context.Background()
	cfg := domain.DefaultPlannerConfig()
	cfg.Fallback = true
	r := planner.NewRouter(cfg)

	data, err := r.For(domain.DomainData)
	require.NoError(t, err)
	again, err := r.For(domain.DomainData)
	require.NoError(t, err)
	assert.Same(t, data, again, "planners are cached per domain")

	steps, err := r.GeneratePlan(ctx, ports.PlanRequest{Domain: domain.DomainCICD, Goal: "Ship it", Config: cfg})
	require.NoError(t, err)
	require.NotEmpty(t, steps)

	plan := domain.NewPlan(domain.DomainCICD, "Ship it", steps)
	out, err := r.ExecuteStep(ctx, plan, plan.Steps[0])
	require.NoError(t, err)
	assert.Equal(t, domain.StepCompleted, out.Status)

	summary, err := r.Summarize(ctx, plan)
	require.NoError(t, err)
	assert.Contains(t, summary, "Ship it")

	_, err = planner.NewRouter(domain.DefaultPlannerConfig()).For(domain.DomainCustom)
	assert.ErrorIs(t, err, domain.ErrPlannerUnavailable)
}
