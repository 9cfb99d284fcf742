package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStateStore keeps states in process memory, encoded the same way the
// Redis store encodes them.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string][]byte)}
}

func (m *MemoryStateStore) Load(_ context.Context, sessionID string) (*State, error) {
	m.mu.RLock()
	data, ok := m.states[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrStateNotFound
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return &state, nil
}

func (m *MemoryStateStore) Save(_ context.Context, sessionID string, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[sessionID] = data
	return nil
}

func (m *MemoryStateStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, sessionID)
	return nil
}
