package savedstate

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore returns a store that lives as long as the process.
func NewMemoryStore() Store {
	return &memoryStore{states: make(map[string]State)}
}

func (m *memoryStore) Load(_ context.Context, sessionID string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[sessionID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return &s, nil
}

func (m *memoryStore) Save(_ context.Context, state State) error {
	if err := validateState(state); err != nil {
		return err
	}
	state.UpdatedAt = time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.states[state.Session.ID]; ok && prev.IsFlowTakenOver {
		state.IsFlowTakenOver = true
	}
	m.states[state.Session.ID] = state
	return nil
}

func (m *memoryStore) update(sessionID string, fn func(s *State)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[sessionID]
	if !ok {
		return ErrStateNotFound
	}
	fn(&s)
	s.UpdatedAt = time.Now().UTC()
	m.states[sessionID] = s
	return nil
}

func (m *memoryStore) UpdateSessionData(_ context.Context, sessionID, sessionData string) error {
	if sessionData == "" {
		return ErrInvalidState.Msg("session data is required")
	}
	return m.update(sessionID, func(s *State) { s.Session.SessionData = sessionData })
}

func (m *memoryStore) SetFlowTakenOver(_ context.Context, sessionID string) error {
	return m.update(sessionID, func(s *State) { s.IsFlowTakenOver = true })
}

func (m *memoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, sessionID)
	return nil
}

func (m *memoryStore) Close() error { return nil }
