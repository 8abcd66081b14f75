// Package flow implements the multi-step order conversation.
//
// A user's conversation is a linear state machine with one-step back:
// drink, then size, then milk. Idle is represented by the absence of a
// session rather than a state value.
package flow

import (
	"context"
	"sync"
)

// StateType identifies the dialogue step a session is waiting on.
type StateType string

const (
	// StateAwaitingDrink waits for a drink choice.
	StateAwaitingDrink StateType = "AWAITING_DRINK"
	// StateAwaitingSize waits for a size choice.
	StateAwaitingSize StateType = "AWAITING_SIZE"
	// StateAwaitingMilk waits for the milk yes/no answer.
	StateAwaitingMilk StateType = "AWAITING_MILK"
)

// Session holds one user's in-progress order: the current step plus the
// answers accumulated so far.
type Session struct {
	State StateType
	Drink string
	Size  string
	Milk  string
}

// SessionStore holds at most one Session per user. A nil Session from
// Get means the user is idle. The host serializes processing per user,
// so implementations need no per-user transactionality beyond that.
type SessionStore interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Set(ctx context.Context, userID int64, s Session) error
	Clear(ctx context.Context, userID int64) error
}

// InMemorySessionStore is a SessionStore kept in process memory.
type InMemorySessionStore struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

// NewInMemorySessionStore creates an empty session store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[int64]Session)}
}

func (s *InMemorySessionStore) Get(ctx context.Context, userID int64) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	copied := sess
	return &copied, nil
}

func (s *InMemorySessionStore) Set(ctx context.Context, userID int64, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = sess
	return nil
}

func (s *InMemorySessionStore) Clear(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}
