package memory

import (
	"context"
	"sort"
	"sync"

	"weekly-quiz-service/internal/domain"
)

type answerKey struct {
	participantID string
	periodKey     string
	questionID    string
}

// AnswerStore keeps answers keyed by (participant, session, question).
type AnswerStore struct {
	mu      sync.RWMutex
	answers map[answerKey]domain.ParticipantAnswer
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[answerKey]domain.ParticipantAnswer)}
}

func (s *AnswerStore) InsertIfAbsent(_ context.Context, answer domain.ParticipantAnswer) (bool, error) {
	key := answerKey{answer.ParticipantID, answer.PeriodKey, answer.QuestionID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.answers[key]; ok {
		return false, nil
	}
	s.answers[key] = answer
	return true, nil
}

func (s *AnswerStore) ListFor(_ context.Context, participantID, periodKey string) ([]domain.ParticipantAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ParticipantAnswer
	for key, answer := range s.answers {
		if key.participantID == participantID && key.periodKey == periodKey {
			out = append(out, answer)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}
