package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a session lock.
type UnlockFunc func(ctx context.Context) error

// SessionLocker guards a checkpointed session against being resumed by two
// processes at once (e.g. two terminals pointed at the same Redis store).
type SessionLocker interface {
	// Lock attempts to acquire the lock for the given session ID.
	// It blocks until the lock is acquired or the context is canceled.
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, sessionID string, ttl time.Duration) (UnlockFunc, error)
}
