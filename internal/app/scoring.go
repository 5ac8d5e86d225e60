package app

import (
	"context"
	"time"

	"weekly-quiz-service/internal/domain"
)

// ScoringEngine turns a participant's answers into a Result, exactly once.
type ScoringEngine struct {
	answers AnswerRepository
	results ResultRepository
	now     func() time.Time
}

func NewScoringEngine(answers AnswerRepository, results ResultRepository, now func() time.Time) *ScoringEngine {
	if now == nil {
		now = time.Now
	}
	return &ScoringEngine{answers: answers, results: results, now: now}
}

// FinalizeScore scores the participant against the session snapshot. A stored
// Result is returned unchanged instead of being recomputed.
func (e *ScoringEngine) FinalizeScore(ctx context.Context, participantID string, session domain.Session) (domain.Result, error) {
	return e.results.GetOrCreate(ctx, participantID, session.PeriodKey, func() (domain.Result, error) {
		answers, err := e.answers.ListFor(ctx, participantID, session.PeriodKey)
		if err != nil {
			return domain.Result{}, domain.Storage("list answers", err)
		}
		if len(answers) == 0 {
			return domain.Result{}, domain.ErrNoAnswers
		}
		return domain.Result{
			ParticipantID: participantID,
			PeriodKey:     session.PeriodKey,
			Score:         Score(session.Questions, answers),
			Total:         len(session.Questions),
			CompletedAt:   e.now(),
		}, nil
	})
}

// Score counts answers matching the correct option of their question.
func Score(questions []domain.Question, answers []domain.ParticipantAnswer) int {
	correct := make(map[string]domain.Choice, len(questions))
	for _, q := range questions {
		correct[q.ID] = q.Correct
	}
	score := 0
	seen := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		if _, dup := seen[a.QuestionID]; dup {
			continue
		}
		seen[a.QuestionID] = struct{}{}
		if want, ok := correct[a.QuestionID]; ok && a.Choice.Matches(want) {
			score++
		}
	}
	return score
}
