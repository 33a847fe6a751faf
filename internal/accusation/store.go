package accusation

import (
	"context"
	"sync"
)

// StateStore persists the accusation record between sessions. Save must replace the whole
// record atomically so that a crash can never surface a half-written state.
type StateStore interface {
	// Load returns the saved state, reporting false when none exists yet.
	Load(ctx context.Context) (State, bool, error)
	Save(ctx context.Context, state State) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the state in process memory. The command-line simulator runs on it, and it
// stands in for the database-backed store in tests.
type MemoryStore struct {
	mu    sync.Mutex
	state State
	saved bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.saved, nil
}

func (s *MemoryStore) Save(_ context.Context, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.saved = true
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
	s.saved = false
	return nil
}
