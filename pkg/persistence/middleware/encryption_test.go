package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"testing"

	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, middleware.KeySize)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sampleState() *domain.ExecutionState {
	state := domain.NewState("test-session", domain.DomainCICD, "Deploy billing with token=s3cr3t")
	state.Plan = domain.NewPlan(domain.DomainCICD, state.Goal, []string{"build", "deploy"})
	state.Plan.Steps[0].Status = domain.StepCompleted
	state.Plan.Steps[0].Result = &domain.StepResult{Summary: "built", Output: "image pushed"}
	return state
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)

	original := sampleState()
	require.NoError(t, secure.Save(ctx, "test-session", original))

	stored, err := underlying.Load(ctx, "test-session")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Sealed)
	assert.Empty(t, stored.Goal, "goal must not be stored in clear")
	assert.Nil(t, stored.Plan, "plan must not be stored in clear")
	assert.Equal(t, domain.DomainCICD, stored.Domain, "envelope keeps the listing fields")

	loaded, err := secure.Load(ctx, "test-session")
	require.NoError(t, err)
	assert.Empty(t, loaded.Sealed)
	assert.Equal(t, original.Goal, loaded.Goal)
	require.NotNil(t, loaded.Plan)
	assert.Equal(t, "image pushed", loaded.Plan.Steps[0].Result.Output)

	ids, err := secure.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"test-session"}, ids)

	require.NoError(t, secure.Delete(ctx, "test-session"))
	_, err = secure.Load(ctx, "test-session")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, oldStore.Save(ctx, "rotated", sampleState()))

	// Without the fallback the new key cannot read old data.
	newOnly := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})(underlying)
	_, err := newOnly.Load(ctx, "rotated")
	assert.Error(t, err)

	rotating := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)
	loaded, err := rotating.Load(ctx, "rotated")
	require.NoError(t, err)
	assert.Equal(t, "build", loaded.Plan.Steps[0].Description)

	// Saving again re-encrypts with the new key.
	require.NoError(t, rotating.Save(ctx, "rotated", loaded))
	_, err = newOnly.Load(ctx, "rotated")
	assert.NoError(t, err)
}

func TestEncryptionMiddleware_RejectsPlainState(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	require.NoError(t, underlying.Save(ctx, "plain", sampleState()))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "plain")
	assert.ErrorContains(t, err, "missing encrypted data envelope")
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	got, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = middleware.ParseKey(" " + hex.EncodeToString(key) + "\n")
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey("c2hvcnQ=")
	assert.Error(t, err)
}
