package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// stubModel replays canned replies and records the prompts it saw.
type stubModel struct {
	replies []string
	err     error
	prompts []string
}

func (m *stubModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, msg := range messages {
		if msg.Role != llms.ChatMessageTypeHuman {
			continue
		}
		for _, part := range msg.Parts {
			if tp, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, tp.Text)
			}
		}
	}
	reply := ""
	if len(m.replies) > 0 {
		reply, m.replies = m.replies[0], m.replies[1:]
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func (m *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not used")
}

func TestGeneratePlan(t *testing.T) {
	model := &stubModel{replies: []string{"Sure!\n```json\n{\"steps\": [\"build\", {\"description\": \"test\"}, \"deploy\"]}\n```"}}
	p := New(model, domain.DomainCICD)

	cfg := domain.DefaultPlannerConfig()
	cfg.Depth = domain.DepthDeep
	steps, err := p.GeneratePlan(context.Background(), ports.PlanRequest{
		Domain: domain.DomainCICD,
		Goal:   "Ship my-app",
		Config: cfg,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"build", "test", "deploy"}, steps)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "Ship my-app")
	assert.Contains(t, model.prompts[0], "deep")
	assert.Contains(t, model.prompts[0], "20")
}

func TestGeneratePlan_Malformed(t *testing.T) {
	p := New(&stubModel{replies: []string{"I cannot help with that."}}, domain.DomainCustom)
	_, err := p.GeneratePlan(context.Background(), ports.PlanRequest{Goal: "x", Config: domain.DefaultPlannerConfig()})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGeneratePlan_ModelError(t *testing.T) {
	boom := errors.New("401 unauthorized")
	p := New(&stubModel{err: boom}, domain.DomainCustom)
	_, err := p.GeneratePlan(context.Background(), ports.PlanRequest{Goal: "x", Config: domain.DefaultPlannerConfig()})
	assert.ErrorIs(t, err, boom)
}

func TestExecuteStep(t *testing.T) {
	plan := domain.NewPlan(domain.DomainData, "Clean sales.csv", []string{"load", "clean"})
	plan.Steps[0].Status = domain.StepCompleted
	plan.Steps[0].Result = &domain.StepResult{Summary: "loaded 10 rows"}

	t.Run("JSON Report", func(t *testing.T) {
		model := &stubModel{replies: []string{`{"status": "FAILED", "summary": "encoding error", "output": "line 3"}`}}
		p := New(model, domain.DomainData)

		out, err := p.ExecuteStep(context.Background(), plan, plan.Steps[1])
		require.NoError(t, err)
		assert.Equal(t, domain.StepFailed, out.Status)
		assert.Equal(t, "encoding error", out.Summary)
		assert.Equal(t, "line 3", out.Output)

		require.Len(t, model.prompts, 1)
		assert.Contains(t, model.prompts[0], "Carry out step 2: clean")
		assert.Contains(t, model.prompts[0], "loaded 10 rows")
	})

	t.Run("Plain Text Is Completed", func(t *testing.T) {
		model := &stubModel{replies: []string{"## Cleaned\nRemoved 2 duplicates."}}
		p := New(model, domain.DomainData)

		out, err := p.ExecuteStep(context.Background(), plan, plan.Steps[1])
		require.NoError(t, err)
		assert.Equal(t, domain.StepCompleted, out.Status)
		assert.Equal(t, "Cleaned", out.Summary)
		assert.Contains(t, out.Output, "Removed 2 duplicates.")
	})

	t.Run("Unknown Status Is Not A Success", func(t *testing.T) {
		model := &stubModel{replies: []string{`{"status": "Blocked", "summary": "missing credentials, could not run"}`}}
		p := New(model, domain.DomainData)

		out, err := p.ExecuteStep(context.Background(), plan, plan.Steps[1])
		require.NoError(t, err)
		assert.Equal(t, domain.StepStatus("blocked"), out.Status, "left for the engine to reject")
	})

	t.Run("Status Synonyms", func(t *testing.T) {
		for reply, want := range map[string]domain.StepStatus{
			`{"status": "done", "summary": "ok"}`:    domain.StepCompleted,
			`{"status": "Success", "summary": "ok"}`: domain.StepCompleted,
			`{"summary": "cleaned"}`:                 domain.StepCompleted,
			`{"status": "error", "summary": "boom"}`: domain.StepFailed,
		} {
			p := New(&stubModel{replies: []string{reply}}, domain.DomainData)
			out, err := p.ExecuteStep(context.Background(), plan, plan.Steps[1])
			require.NoError(t, err)
			assert.Equal(t, want, out.Status, reply)
		}
	})
}

func TestFirstLine_TruncatesOnRuneBoundary(t *testing.T) {
	got := firstLine(strings.Repeat("a", 119) + "éé and more")
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 119)+"...", got)

	assert.Equal(t, "short", firstLine("# short\nbody"))
}

func TestContinueAndSummarize(t *testing.T) {
	model := &stubModel{replies: []string{`{"steps": []}`, "  # Report\nAll good.  "}}
	p := New(model, domain.DomainCustom)
	plan := domain.NewPlan(domain.DomainCustom, "goal", []string{"a"})

	steps, err := p.ContinuePlan(context.Background(), plan, 5)
	require.NoError(t, err)
	assert.Empty(t, steps)
	assert.Contains(t, model.prompts[0], "at most 5")

	summary, err := p.Summarize(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, "# Report\nAll good.", summary)
}

func TestNoChoices(t *testing.T) {
	p := New(emptyModel{}, domain.DomainCustom)
	_, err := p.Summarize(context.Background(), domain.NewPlan(domain.DomainCustom, "g", nil))
	assert.Error(t, err)
}

type emptyModel struct{}

func (emptyModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{}, nil
}

func (emptyModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", nil
}
