package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/stepwise/internal/presentation/graph"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	plan := domain.NewPlan(domain.DomainCICD, `Deploy "app"`, []string{"build", "test", "deploy", "notify"})
	plan.Steps[0].Status = domain.StepCompleted
	plan.Steps[1].Status = domain.StepFailed
	plan.Steps[2].Status = domain.StepSkipped

	got := graph.GenerateMermaid(plan)

	for _, want := range []string{
		"graph TD\n",
		`goal(("Deploy 'app'"))`,
		`step1["1. build"]`,
		`step2{{"2. test"}}`,
		`step3[/"3. deploy"/]`,
		`step4("4. notify")`,
		"goal --> step1",
		"step3 --> step4",
		"class step1 completed;",
		"class step2 failed;",
		"class step3 skipped;",
		"class step4 current;",
	} {
		assert.Contains(t, got, want)
	}
	assert.Equal(t, 1, strings.Count(got, " current;"))
}

func TestGenerateMermaid_CompletePlanHasNoCurrent(t *testing.T) {
	plan := domain.NewPlan(domain.DomainData, "Report", []string{"load"})
	plan.Steps[0].Status = domain.StepCompleted

	assert.NotContains(t, graph.GenerateMermaid(plan), "current;")
	assert.Equal(t, "graph TD\n", graph.GenerateMermaid(nil))
}
