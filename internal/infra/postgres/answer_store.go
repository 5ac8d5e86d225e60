package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"weekly-quiz-service/internal/domain"
)

// AnswerStore keeps one row per (participant, session, question).
type AnswerStore struct {
	pool *pgxpool.Pool
}

func NewAnswerStore(pool *pgxpool.Pool) *AnswerStore {
	return &AnswerStore{pool: pool}
}

func (s *AnswerStore) InsertIfAbsent(ctx context.Context, a domain.ParticipantAnswer) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO participant_answers (participant_id, period_key, question_id, position, choice, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING`,
		a.ParticipantID, a.PeriodKey, a.QuestionID, a.Position, string(a.Choice), a.AnsweredAt)
	if err != nil {
		return false, domain.Storage("insert answer", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *AnswerStore) ListFor(ctx context.Context, participantID, periodKey string) ([]domain.ParticipantAnswer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT question_id, position, choice, answered_at
		FROM participant_answers
		WHERE participant_id = $1 AND period_key = $2
		ORDER BY position`, participantID, periodKey)
	if err != nil {
		return nil, domain.Storage("list answers", err)
	}
	defer rows.Close()

	var answers []domain.ParticipantAnswer
	for rows.Next() {
		a := domain.ParticipantAnswer{ParticipantID: participantID, PeriodKey: periodKey}
		var choice string
		if err := rows.Scan(&a.QuestionID, &a.Position, &choice, &a.AnsweredAt); err != nil {
			return nil, domain.Storage("scan answer", err)
		}
		a.Choice = domain.Choice(choice)
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Storage("list answers", err)
	}
	return answers, nil
}
