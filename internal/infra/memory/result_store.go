package memory

import (
	"context"
	"sync"

	"weekly-quiz-service/internal/domain"
)

type resultKey struct {
	participantID string
	periodKey     string
}

// ResultStore keeps one result per (participant, session).
type ResultStore struct {
	mu      sync.Mutex
	results map[resultKey]domain.Result
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[resultKey]domain.Result)}
}

// GetOrCreate runs compute under the store lock, so concurrent finalizers
// write a single result.
func (s *ResultStore) GetOrCreate(_ context.Context, participantID, periodKey string, compute func() (domain.Result, error)) (domain.Result, error) {
	key := resultKey{participantID, periodKey}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.results[key]; ok {
		return existing, nil
	}
	result, err := compute()
	if err != nil {
		return domain.Result{}, err
	}
	result.ParticipantID = participantID
	result.PeriodKey = periodKey
	s.results[key] = result
	return result, nil
}

func (s *ResultStore) Get(_ context.Context, participantID, periodKey string) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.results[resultKey{participantID, periodKey}]
	if !ok {
		return domain.Result{}, domain.ErrResultNotFound
	}
	return result, nil
}

func (s *ResultStore) TopN(_ context.Context, periodKey string, n int) ([]domain.Result, error) {
	s.mu.Lock()
	var all []domain.Result
	for key, result := range s.results {
		if key.periodKey == periodKey {
			all = append(all, result)
		}
	}
	s.mu.Unlock()
	return domain.RankResults(all, n), nil
}
