package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"weekly-quiz-service/internal/domain"
)

// ParticipantStore is the durable participant directory.
type ParticipantStore struct {
	pool *pgxpool.Pool
}

func NewParticipantStore(pool *pgxpool.Pool) *ParticipantStore {
	return &ParticipantStore{pool: pool}
}

// Upsert registers p, keeping the original join time. An empty display name
// leaves the stored one untouched.
func (s *ParticipantStore) Upsert(ctx context.Context, p domain.Participant) (domain.Participant, error) {
	var out domain.Participant
	err := s.pool.QueryRow(ctx, `
		INSERT INTO participants (id, display_name, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET display_name = CASE
			WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name
			ELSE participants.display_name END
		RETURNING id, display_name, COALESCE(category, ''), joined_at`,
		p.ID, p.DisplayName, p.JoinedAt).Scan(&out.ID, &out.DisplayName, &out.Category, &out.JoinedAt)
	if err != nil {
		return domain.Participant{}, domain.Storage("upsert participant", err)
	}
	return out, nil
}

func (s *ParticipantStore) Get(ctx context.Context, participantID string) (domain.Participant, error) {
	var p domain.Participant
	err := s.pool.QueryRow(ctx, `
		SELECT id, display_name, COALESCE(category, ''), joined_at
		FROM participants WHERE id = $1`, participantID).
		Scan(&p.ID, &p.DisplayName, &p.Category, &p.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, domain.Storage("get participant", err)
	}
	return p, nil
}

// SetCategory records the category the participant picked.
func (s *ParticipantStore) SetCategory(ctx context.Context, participantID, category string) (domain.Participant, error) {
	var p domain.Participant
	err := s.pool.QueryRow(ctx, `
		UPDATE participants SET category = $2 WHERE id = $1
		RETURNING id, display_name, COALESCE(category, ''), joined_at`, participantID, category).
		Scan(&p.ID, &p.DisplayName, &p.Category, &p.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, domain.Storage("set participant category", err)
	}
	return p, nil
}

func (s *ParticipantStore) List(ctx context.Context) ([]domain.Participant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, display_name, COALESCE(category, ''), joined_at
		FROM participants ORDER BY id`)
	if err != nil {
		return nil, domain.Storage("list participants", err)
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.Category, &p.JoinedAt); err != nil {
			return nil, domain.Storage("scan participant", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Storage("list participants", err)
	}
	return participants, nil
}
