package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/stepwise/internal/runtime"
	"github.com/aretw0/stepwise/internal/testutils"
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, planner *testutils.FakePlanner, opts ...Option) *Server {
	t.Helper()
	return NewServer(runtime.NewEngine(planner), "test", opts...)
}

func encode(t *testing.T, state *domain.ExecutionState) string {
	t.Helper()
	data, err := json.Marshal(state)
	require.NoError(t, err)
	return string(data)
}

func TestServer_StatelessRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t, &testutils.FakePlanner{
		Steps:        []string{"build", "deploy"},
		Continuation: []string{"monitor"},
	})
	req := mcp.CallToolRequest{}

	resp, err := s.handleGenerate(ctx, req, GenerateArgs{Domain: "cicd", Goal: "Ship it", Steps: 5})
	require.NoError(t, err)
	require.NotNil(t, resp.Current)
	assert.Equal(t, 1, resp.Current.Number)
	assert.Equal(t, 5, resp.State.Config.MaxSteps)

	resp, err = s.handleExecute(ctx, req, StateArgs{State: encode(t, resp.State)})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Current.Number)
	require.NotNil(t, resp.Changes)
	require.Len(t, resp.Changes.Changed, 1)
	assert.Equal(t, domain.StepCompleted, resp.Changes.Changed[0].Status)

	resp, err = s.handleRevise(ctx, req, StateArgs{State: encode(t, resp.State), Description: "deploy to staging"})
	require.NoError(t, err)
	assert.Equal(t, "deploy to staging", resp.Current.Description)

	resp, err = s.handleSkip(ctx, req, StateArgs{State: encode(t, resp.State)})
	require.NoError(t, err)
	assert.True(t, resp.Complete)

	resp, err = s.handleContinue(ctx, req, StateArgs{State: encode(t, resp.State)})
	require.NoError(t, err)
	require.Len(t, resp.Added, 1)
	assert.Equal(t, 3, resp.Added[0].Number)
	assert.False(t, resp.Complete)

	resp, err = s.handleExecute(ctx, req, StateArgs{State: encode(t, resp.State)})
	require.NoError(t, err)

	resp, err = s.handleSummarize(ctx, req, StateArgs{State: encode(t, resp.State)})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.State.ExecutionResult.Summary)
	assert.False(t, resp.State.ExecutionResult.CompletedAt.IsZero())
}

func TestServer_Sessions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := newTestServer(t, &testutils.FakePlanner{Steps: []string{"load", "clean"}}, WithStore(store))
	req := mcp.CallToolRequest{}

	_, err := s.handleGenerate(ctx, req, GenerateArgs{Domain: "data", Goal: "Report", SessionID: "s1"})
	require.NoError(t, err)

	_, err = s.handleExecute(ctx, req, StateArgs{SessionID: "s1"})
	require.NoError(t, err)

	saved, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepCompleted, saved.Plan.Steps[0].Status)
	assert.Equal(t, domain.StepPending, saved.Plan.Steps[1].Status)
}

func TestServer_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t, &testutils.FakePlanner{Steps: []string{"build"}})
	req := mcp.CallToolRequest{}

	_, err := s.handleGenerate(ctx, req, GenerateArgs{Goal: "   "})
	assert.ErrorIs(t, err, domain.ErrMissingGoal)

	_, err = s.handleGenerate(ctx, req, GenerateArgs{Goal: "x", Domain: "marketing"})
	assert.ErrorIs(t, err, domain.ErrInvalidDomain)

	_, err = s.handleExecute(ctx, req, StateArgs{})
	assert.ErrorContains(t, err, "either state or session_id")

	_, err = s.handleExecute(ctx, req, StateArgs{SessionID: "s1"})
	assert.ErrorContains(t, err, "needs a server started with a store")

	_, err = s.handleExecute(ctx, req, StateArgs{State: "{not json"})
	assert.ErrorContains(t, err, "invalid state")
}

func TestServer_ListsTools(t *testing.T) {
	s := newTestServer(t, &testutils.FakePlanner{Steps: []string{"build"}})

	msg := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	for _, name := range []string{"generate_plan", "execute_step", "skip_step", "revise_step", "continue_plan", "summarize"} {
		assert.Contains(t, string(data), `"`+name+`"`)
	}
}
