package ports_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
)

// MockStore is a map-backed StateStore that round-trips through JSON,
// mimicking what a real backend does to the state.
type MockStore struct {
	data map[string][]byte
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string][]byte),
	}
}

func (m *MockStore) Save(ctx context.Context, sessionID string, state *domain.ExecutionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.data[sessionID] = raw
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.ExecutionState, error) {
	raw, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var state domain.ExecutionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestStateStore_Contract(t *testing.T) {
	// Verifies the contract suite itself against the simplest compliant store.
	ports.RunStateStoreContract(t, NewMockStore())
}
