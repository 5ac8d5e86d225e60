package memory

import (
	"context"
	"sync"

	"weekly-quiz-service/internal/domain"
)

// CursorStore holds in-progress cursors in process memory.
type CursorStore struct {
	mu      sync.Mutex
	cursors map[string]map[string]domain.Cursor // periodKey -> participantID
}

func NewCursorStore() *CursorStore {
	return &CursorStore{cursors: make(map[string]map[string]domain.Cursor)}
}

func (s *CursorStore) Load(_ context.Context, participantID, periodKey string) (domain.Cursor, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cursor, ok := s.cursors[periodKey][participantID]
	return cursor, ok, nil
}

func (s *CursorStore) Save(_ context.Context, cursor domain.Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bySession, ok := s.cursors[cursor.PeriodKey]
	if !ok {
		bySession = make(map[string]domain.Cursor)
		s.cursors[cursor.PeriodKey] = bySession
	}
	bySession[cursor.ParticipantID] = cursor
	return nil
}

func (s *CursorStore) Delete(_ context.Context, participantID, periodKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cursors[periodKey], participantID)
	return nil
}

func (s *CursorStore) Purge(_ context.Context, periodKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cursors, periodKey)
	return nil
}
