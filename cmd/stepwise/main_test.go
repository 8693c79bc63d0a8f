package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/aretw0/stepwise/internal/adapters/file"
	"github.com/aretw0/stepwise/internal/config"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the command tree with fresh flag values.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "stepwise version ")
}

func TestRun_NoInteractiveWithoutGoal(t *testing.T) {
	_, err := execute(t, "--no-interactive", "--domain", "cicd")

	var cerr *config.Error
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, domain.ErrMissingGoal)
}

func TestRun_AutoFallback(t *testing.T) {
	output := filepath.Join(t.TempDir(), "result.json")

	_, err := execute(t, "run", "--auto", "--fallback", "--domain", "cicd",
		"--goal", "Build and deploy my-app to staging", "--output", output)
	require.NoError(t, err)

	state, err := file.Import(output)
	require.NoError(t, err)
	assert.NotEmpty(t, state.ExecutionResult.Summary)
	assert.True(t, state.IsComplete())
}

func TestRun_WithoutKeyNeedsFallback(t *testing.T) {
	_, err := execute(t, "--auto", "-d", "data", "-g", "Report")
	assert.ErrorIs(t, err, domain.ErrPlannerUnavailable)
	assert.Contains(t, err.Error(), "--fallback")
}

func TestSessionLs_Empty(t *testing.T) {
	out, err := execute(t, "session", "ls", "--store", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found.")
}
