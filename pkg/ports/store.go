package ports

import (
	"context"

	"github.com/aretw0/stepwise/pkg/domain"
)

// StateStore defines the interface for persisting execution state.
// This allows checkpointing a session and resuming it in a later invocation.
type StateStore interface {
	// Save persists the state for a given session ID, overwriting any previous value.
	Save(ctx context.Context, sessionID string, state *domain.ExecutionState) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.ExecutionState, error)

	// Delete removes the state for a given session ID.
	// Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the known session IDs.
	List(ctx context.Context) ([]string, error)
}

// SessionIndex is implemented by stores that keep a listing view of their
// sessions, so listings do not need to load every state.
type SessionIndex interface {
	Index(ctx context.Context) ([]domain.SessionInfo, error)
}
