package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"weekly-quiz-service/internal/domain"
)

// QuestionStore reads and maintains the question catalog.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

// ListActive returns active questions in catalog order.
func (s *QuestionStore) ListActive(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, prompt, option_a, option_b, option_c, option_d, correct_option, is_active
		FROM questions
		WHERE is_active
		ORDER BY position, id`)
	if err != nil {
		return nil, domain.Storage("list questions", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q       domain.Question
			correct string
		)
		if err := rows.Scan(&q.ID, &q.Prompt, &q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3], &correct, &q.Active); err != nil {
			return nil, domain.Storage("scan question", err)
		}
		q.Correct = domain.Choice(correct)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Storage("list questions", err)
	}
	return questions, nil
}

// Upsert writes questions in the given order. New questions are appended
// after the existing catalog; known ids keep their position.
func (s *QuestionStore) Upsert(ctx context.Context, questions []domain.Question) (int, error) {
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return 0, fmt.Errorf("question %q: %w", q.ID, err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, domain.Storage("begin upsert questions", err)
	}
	defer tx.Rollback(ctx)

	// imports run one at a time so appended positions never collide
	if _, err := tx.Exec(ctx, `LOCK TABLE questions IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return 0, domain.Storage("lock questions", err)
	}
	var next int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM questions`).Scan(&next); err != nil {
		return 0, domain.Storage("next question position", err)
	}

	for i, q := range questions {
		_, err := tx.Exec(ctx, `
			INSERT INTO questions (id, position, prompt, option_a, option_b, option_c, option_d, correct_option, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				prompt = EXCLUDED.prompt,
				option_a = EXCLUDED.option_a,
				option_b = EXCLUDED.option_b,
				option_c = EXCLUDED.option_c,
				option_d = EXCLUDED.option_d,
				correct_option = EXCLUDED.correct_option,
				is_active = EXCLUDED.is_active`,
			q.ID, next+i, q.Prompt, q.Options[0], q.Options[1], q.Options[2], q.Options[3], string(q.Correct), q.Active)
		if err != nil {
			return 0, domain.Storage("upsert question", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, domain.Storage("commit questions", err)
	}
	return len(questions), nil
}
