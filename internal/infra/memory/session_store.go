package memory

import (
	"context"
	"sync"
	"time"

	"timed-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.ActiveSessions:
// at most one live session per user. Entries live until released, so the
// lease is ignored.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]string),
	}
}

func (s *SessionStore) Acquire(_ context.Context, userID, sessionID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.sessions[userID]; ok && current != sessionID {
		return domain.ErrSessionInProgress
	}
	s.sessions[userID] = sessionID
	return nil
}

// Release frees the slot only if it still belongs to sessionID.
func (s *SessionStore) Release(_ context.Context, userID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.sessions[userID]; ok && current == sessionID {
		delete(s.sessions, userID)
	}
}

func (s *SessionStore) Get(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessionID, ok := s.sessions[userID]
	return sessionID, ok
}

// Len reports how many sessions are live.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
