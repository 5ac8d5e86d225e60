package memory

import (
	"context"
	"sync"
	"time"

	"weekly-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
	}
}

func (s *SessionStore) GetByKey(_ context.Context, periodKey string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[periodKey]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStore) GetActive(_ context.Context) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if session.IsActive() {
			return session, nil
		}
	}
	return domain.Session{}, domain.ErrNoActiveSession
}

// Create checks the key and the active slot under one lock.
func (s *SessionStore) Create(_ context.Context, session domain.Session) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[session.PeriodKey]; ok {
		return existing, nil
	}
	for _, other := range s.sessions {
		if other.IsActive() {
			return domain.Session{}, domain.ErrSessionActive
		}
	}
	session.Status = domain.SessionActive
	session.ClosedAt = nil
	s.sessions[session.PeriodKey] = session
	return session, nil
}

func (s *SessionStore) SetStatus(_ context.Context, periodKey string, status domain.SessionStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[periodKey]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if !session.IsActive() {
		return domain.ErrSessionEnded
	}
	if status != domain.SessionEnded {
		return domain.ErrInvalidTransition
	}
	session.Status = status
	closedAt := at
	session.ClosedAt = &closedAt
	s.sessions[periodKey] = session
	return nil
}
