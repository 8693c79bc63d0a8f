package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency and counts overlapping writes.
type SlowStore struct {
	ports.StateStore

	mu       sync.Mutex
	inFlight int
	overlap  bool
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, state *domain.ExecutionState) error {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > 1 {
		s.overlap = true
	}
	s.mu.Unlock()

	time.Sleep(5 * time.Millisecond)
	err := s.StateStore.Save(ctx, sessionID, state)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	return err
}

func newState(id string) *domain.ExecutionState {
	s := domain.NewState(id, domain.DomainData, "Clean sales.csv")
	s.Plan = domain.NewPlan(domain.DomainData, s.Goal, []string{"load", "clean"})
	return s
}

func TestManager_SerializesSaves(t *testing.T) {
	store := &SlowStore{StateStore: memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, manager.Save(ctx, "race-test", newState("race-test")))
		}()
	}
	wg.Wait()

	assert.False(t, store.overlap, "saves of one session must not overlap")
}

func TestManager_Resume(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	state, found, err := manager.Resume(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, state)

	require.NoError(t, manager.Save(ctx, "s1", newState("s1")))
	state, found, err = manager.Resume(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, state.Plan.Steps, 2)

	require.NoError(t, manager.Delete(ctx, "s1"))
	_, found, err = manager.Resume(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)
}

type recordingLocker struct {
	mu      sync.Mutex
	ttls    []time.Duration
	unlocks int
	err     error
}

func (l *recordingLocker) Lock(ctx context.Context, sessionID string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.ttls = append(l.ttls, ttl)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocks++
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "s1", newState("s1")))
	_, err := manager.Load(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{time.Minute, time.Minute}, locker.ttls)
	assert.Equal(t, 2, locker.unlocks)

	locker.err = errors.New("busy")
	err = manager.Save(ctx, "s1", newState("s1"))
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}

type fixedIndex []domain.SessionInfo

func (f fixedIndex) Index(context.Context) ([]domain.SessionInfo, error) {
	return f, nil
}

func TestManager_Index(t *testing.T) {
	ctx := context.Background()

	t.Run("Loads States Without An Index", func(t *testing.T) {
		store := memory.NewStore()
		manager := session.NewManager(store)
		state := newState("s1")
		state.Plan.Steps[0].Status = domain.StepCompleted
		require.NoError(t, manager.Save(ctx, "s1", state))

		infos, err := manager.Index(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, "s1", infos[0].ID)
		assert.Equal(t, "1/2", infos[0].Progress())
		assert.NoError(t, infos[0].Err)
	})

	t.Run("Prefers The Store Index", func(t *testing.T) {
		index := fixedIndex{{ID: "cached", Done: 2, Total: 2}}
		manager := session.NewManager(memory.NewStore(), session.WithIndex(index))

		infos, err := manager.Index(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, "complete 2/2", infos[0].Progress())
	})
}
