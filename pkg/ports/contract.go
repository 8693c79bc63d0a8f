package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newState := func(id string) *domain.ExecutionState {
		s := domain.NewState(id, domain.DomainCICD, "Build and deploy my-app to staging")
		s.Plan = domain.NewPlan(domain.DomainCICD, s.Goal, []string{"build", "test", "deploy"})
		return s
	}

	t.Run("Save and Load", func(t *testing.T) {
		state := newState(sessionID)
		state.Plan.Steps[0].Status = domain.StepCompleted
		state.Plan.Steps[0].Result = &domain.StepResult{Summary: "built"}
		state.Plan.Steps[1].Status = domain.StepSkipped
		state.ExecutionResult.Summary = "in progress"

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.Goal, loaded.Goal)
		assert.Equal(t, state.Domain, loaded.Domain)
		require.Len(t, loaded.Plan.Steps, 3)
		assert.Equal(t, domain.StepCompleted, loaded.Plan.Steps[0].Status)
		require.NotNil(t, loaded.Plan.Steps[0].Result)
		assert.Equal(t, "built", loaded.Plan.Steps[0].Result.Summary)
		assert.Nil(t, loaded.Plan.Steps[1].Result, "skipped steps carry no result")
		assert.Equal(t, "in progress", loaded.ExecutionResult.Summary)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		state := newState(sessionID)
		require.NoError(t, store.Save(ctx, sessionID, state))

		state.Plan.Append([]string{"verify"})
		require.NoError(t, store.Save(ctx, sessionID, state))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Len(t, loaded.Plan.Steps, 4)
	})

	t.Run("Loaded State Is Isolated", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, newState(sessionID)))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Plan.Steps[0].Description = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "build", again.Plan.Steps[0].Description)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, newState(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, newState(id1))
		_ = store.Save(ctx, id2, newState(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
