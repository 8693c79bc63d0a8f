package adapters_test

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/stepwise/internal/adapters"
	"github.com/aretw0/stepwise/internal/adapters/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	mr := miniredis.RunT(t)

	tests := []struct {
		name       string
		location   string
		kind       string
		withLocker bool
	}{
		{"plain path", filepath.Join(dir, "sessions"), "file", false},
		{"file url", "file://" + filepath.Join(dir, "other"), "file", false},
		{"empty uses default dir", "", "file", false},
		{"sqlite", "sqlite://" + filepath.Join(dir, "db", "s.db"), "sqlite", false},
		{"memory", "memory://", "memory", false},
		{"redis", "redis://" + mr.Addr() + "/0", "redis", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := adapters.Open(tt.location, adapters.OpenOptions{})
			require.NoError(t, err)
			defer b.Close()

			assert.Equal(t, tt.kind, b.Kind)
			assert.NotNil(t, b.Store)
			assert.Equal(t, tt.withLocker, b.Locker != nil)
		})
	}
}

func TestOpen_DefaultDir(t *testing.T) {
	b, err := adapters.Open("", adapters.OpenOptions{})
	require.NoError(t, err)
	store, ok := b.Store.(*file.Store)
	require.True(t, ok)
	assert.Equal(t, file.DefaultDir, store.BasePath)
}

func TestOpen_Errors(t *testing.T) {
	_, err := adapters.Open("postgres://db", adapters.OpenOptions{})
	assert.Error(t, err)

	_, err = adapters.Open("sqlite://", adapters.OpenOptions{})
	assert.Error(t, err)
}
