package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"weekly-quiz-service/internal/domain"
)

// ResultStore keeps the write-once result of each participant per session.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) Get(ctx context.Context, participantID, periodKey string) (domain.Result, error) {
	r := domain.Result{ParticipantID: participantID, PeriodKey: periodKey}
	err := s.pool.QueryRow(ctx, `
		SELECT score, total, completed_at FROM quiz_results
		WHERE participant_id = $1 AND period_key = $2`,
		participantID, periodKey).Scan(&r.Score, &r.Total, &r.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Result{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.Result{}, domain.Storage("get result", err)
	}
	return r, nil
}

// GetOrCreate inserts compute()'s result unless a row exists and returns
// whatever row won.
func (s *ResultStore) GetOrCreate(ctx context.Context, participantID, periodKey string, compute func() (domain.Result, error)) (domain.Result, error) {
	existing, err := s.Get(ctx, participantID, periodKey)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrResultNotFound) {
		return domain.Result{}, err
	}

	r, err := compute()
	if err != nil {
		return domain.Result{}, err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quiz_results (participant_id, period_key, score, total, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING`,
		participantID, periodKey, r.Score, r.Total, r.CompletedAt)
	if err != nil {
		return domain.Result{}, domain.Storage("insert result", err)
	}
	return s.Get(ctx, participantID, periodKey)
}

func (s *ResultStore) TopN(ctx context.Context, periodKey string, n int) ([]domain.Result, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT participant_id, score, total, completed_at FROM quiz_results
		WHERE period_key = $1
		ORDER BY score DESC, completed_at ASC, participant_id ASC
		LIMIT $2`, periodKey, n)
	if err != nil {
		return nil, domain.Storage("top results", err)
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		r := domain.Result{PeriodKey: periodKey}
		if err := rows.Scan(&r.ParticipantID, &r.Score, &r.Total, &r.CompletedAt); err != nil {
			return nil, domain.Storage("scan result", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Storage("top results", err)
	}
	return results, nil
}
