package session

import (
	"context"
	"sync"
	"time"
)

// State is the current session identity. The zero value means logged out.
type State struct {
	LoggedIn  bool      `json:"logged_in"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	Role      string    `json:"role,omitempty"`
	IssuedAt  time.Time `json:"issued_at,omitempty"`
}

// Listener observes state transitions.
type Listener func(State)

// Persister stores session state durably so a session survives a restart.
// Load reports ok=false when nothing usable is persisted; stale entries are
// treated as absent.
type Persister interface {
	Save(ctx context.Context, s State) error
	Load(ctx context.Context) (State, bool, error)
	Clear(ctx context.Context) error
}

// Store holds session state behind explicit accessors and actions instead of
// an ambient global. Updates are copy-on-write: listeners always receive a
// value, never a reference into the store.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	nextID    int
	persister Persister
}

// NewStore builds a logged-out store. persister may be nil for callers that
// do not need durability (tests, tooling).
func NewStore(p Persister) *Store {
	return &Store{
		listeners: make(map[int]Listener),
		persister: p,
	}
}

// Restore loads persisted session state, if any. Absent or stale state
// leaves the store logged out; persistence errors do too, because a session
// that cannot be read is indistinguishable from none.
func (s *Store) Restore(ctx context.Context) {
	if s.persister == nil {
		return
	}
	state, ok, err := s.persister.Load(ctx)
	if err != nil || !ok {
		return
	}
	s.set(state)
}

// GetState returns a copy of the current state.
func (s *Store) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers a listener for state transitions and returns the
// matching unsubscribe function.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Login transitions to a logged-in state and persists it.
func (s *Store) Login(ctx context.Context, userID, email, firstName, role string) {
	next := State{
		LoggedIn:  true,
		UserID:    userID,
		Email:     email,
		FirstName: firstName,
		Role:      role,
		IssuedAt:  time.Now().UTC(),
	}
	s.set(next)
	if s.persister != nil {
		_ = s.persister.Save(ctx, next)
	}
}

// Logout clears the session and its persisted copy.
func (s *Store) Logout(ctx context.Context) {
	s.set(State{})
	if s.persister != nil {
		_ = s.persister.Clear(ctx)
	}
}

func (s *Store) set(next State) {
	s.mu.Lock()
	s.state = next
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()

	for _, l := range ls {
		l(next)
	}
}
