package memory

import (
	"context"
	"sort"
	"sync"

	"weekly-quiz-service/internal/domain"
)

// ParticipantStore is an in-memory participant directory.
type ParticipantStore struct {
	mu           sync.RWMutex
	participants map[string]domain.Participant
}

func NewParticipantStore() *ParticipantStore {
	return &ParticipantStore{participants: make(map[string]domain.Participant)}
}

// Upsert keeps the first JoinedAt and refreshes the display name when given.
func (s *ParticipantStore) Upsert(_ context.Context, p domain.Participant) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.participants[p.ID]; ok {
		if p.DisplayName != "" {
			existing.DisplayName = p.DisplayName
		}
		s.participants[p.ID] = existing
		return existing, nil
	}
	s.participants[p.ID] = p
	return p, nil
}

func (s *ParticipantStore) Get(_ context.Context, participantID string) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[participantID]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return p, nil
}

func (s *ParticipantStore) SetCategory(_ context.Context, participantID, category string) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[participantID]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	p.Category = category
	s.participants[participantID] = p
	return p, nil
}

func (s *ParticipantStore) List(_ context.Context) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
