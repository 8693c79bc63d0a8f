package file_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/stepwise/internal/adapters/file"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() *domain.ExecutionState {
	s := domain.NewState("", domain.DomainCICD, "Build and deploy my-app to staging")
	s.Plan = domain.NewPlan(s.Domain, s.Goal, []string{"build", "deploy"})
	s.Plan.Steps[0].Status = domain.StepCompleted
	s.Plan.Steps[0].Result = &domain.StepResult{Summary: "built"}
	s.ExecutionResult.Summary = "half way"
	return s
}

func TestStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, file.New(t.TempDir()))
}

func TestStore_RejectsPathTraversal(t *testing.T) {
	store := file.New(t.TempDir())
	err := store.Save(context.Background(), "../escape", sampleState())
	assert.Error(t, err)
}

func TestStore_ListIgnoresTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	require.NoError(t, store.Save(context.Background(), "b", sampleState()))
	require.NoError(t, store.Save(context.Background(), "a", sampleState()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp-c.json-123"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestExport_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "result.json")

	require.NoError(t, file.Export(path, sampleState()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"plan\": {", "output is indented")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "execution_result")
}

func TestExport_TwiceIsStructurallyEqual(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	state := sampleState()

	require.NoError(t, file.Export(path, state))
	first, err := file.Import(path)
	require.NoError(t, err)

	require.NoError(t, file.Export(path, state))
	second, err := file.Import(path)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second save differs (-first +second):\n%s", diff)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestExport_EmptyPath(t *testing.T) {
	assert.Error(t, file.Export("", sampleState()))
}

func TestImport_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := file.Import(path)
	assert.Error(t, err)
}
