package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/stepwise/internal/adapters/sqlite"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ports.RunStateStoreContract(t, store)
}

func TestSQLiteStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stepwise.db")
	ctx := context.Background()

	store, err := sqlite.New(path)
	require.NoError(t, err)
	state := domain.NewState("s1", domain.DomainDocumentation, "Document the public API of my-project")
	state.Plan = domain.NewPlan(state.Domain, state.Goal, []string{"outline"})
	require.NoError(t, store.Save(ctx, "s1", state))
	require.NoError(t, store.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "outline", loaded.Plan.Steps[0].Description)
}
