package storage

import (
	"context"
	"sync"
	"time"
)

// UserState is the per-user dialog position.
type UserState struct {
	Step      string    `json:"step"`
	Service   string    `json:"service,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StateStore keeps dialog state between updates. A missing or expired entry
// is reported as an empty UserState, not an error.
type StateStore interface {
	Get(ctx context.Context, userID int64) (UserState, error)
	Save(ctx context.Context, userID int64, state UserState) error
	Clear(ctx context.Context, userID int64) error
}

type MemoryStateStore struct {
	mu     sync.Mutex
	states map[int64]UserState
	ttl    time.Duration
	now    func() time.Time
}

var _ StateStore = (*MemoryStateStore)(nil)

func NewMemoryStateStore(ttl time.Duration) *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[int64]UserState),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *MemoryStateStore) Get(_ context.Context, userID int64) (UserState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[userID]
	if !ok {
		return UserState{}, nil
	}
	if s.expired(state, s.now()) {
		delete(s.states, userID)
		return UserState{}, nil
	}
	return state, nil
}

// Save stores the state and drops any abandoned entries that have expired.
func (s *MemoryStateStore) Save(_ context.Context, userID int64, state UserState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, st := range s.states {
		if s.expired(st, now) {
			delete(s.states, id)
		}
	}

	state.UpdatedAt = now
	s.states[userID] = state
	return nil
}

func (s *MemoryStateStore) expired(state UserState, now time.Time) bool {
	return s.ttl > 0 && now.Sub(state.UpdatedAt) > s.ttl
}

func (s *MemoryStateStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
	return nil
}
