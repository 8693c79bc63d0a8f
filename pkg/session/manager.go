package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed process can keep a session locked.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to checkpointed sessions.
// In-process callers share a reference-counted mutex per session; when a
// SessionLocker is configured every operation also holds the distributed lock.
//
// Manager implements ports.StateStore, so it can stand in for the raw store.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.SessionLocker
	index   ports.SessionIndex
	lockTTL time.Duration
	logger  *slog.Logger
}

var _ ports.StateStore = (*Manager)(nil)

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.SessionLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithIndex lists sessions from a store-maintained index instead of
// loading each state. Only valid when the index sees the same states the
// manager returns (no encryption in between).
func WithIndex(index ports.SessionIndex) Option {
	return func(m *Manager) {
		m.index = index
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a session manager over store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and drops the entry at zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Load retrieves a checkpoint.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.ExecutionState, error) {
	var state *domain.ExecutionState
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, sessionID)
		return err
	})
	return state, err
}

// Resume loads a checkpoint, reporting found=false when none exists.
func (m *Manager) Resume(ctx context.Context, sessionID string) (state *domain.ExecutionState, found bool, err error) {
	state, err = m.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if state.Plan == nil || len(state.Plan.Steps) == 0 {
		return nil, false, nil
	}
	return state, true, nil
}

// Save persists a checkpoint.
func (m *Manager) Save(ctx context.Context, sessionID string, state *domain.ExecutionState) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, state)
	})
}

// Delete removes a checkpoint.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Index returns the listing view of every session.
func (m *Manager) Index(ctx context.Context) ([]domain.SessionInfo, error) {
	if m.index != nil {
		return m.index.Index(ctx)
	}
	ids, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]domain.SessionInfo, 0, len(ids))
	for _, id := range ids {
		state, err := m.Load(ctx, id)
		if err != nil {
			infos = append(infos, domain.SessionInfo{ID: id, Err: err})
			continue
		}
		infos = append(infos, domain.NewSessionInfo(id, state))
	}
	return infos, nil
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
