package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"weekly-quiz-service/internal/domain"
)

const oneActiveIndex = "quiz_sessions_one_active"

// SessionStore persists quiz windows with their question snapshot as JSONB.
// The partial unique index on status keeps a single active row.
type SessionStore struct {
	pool *pgxpool.Pool
}

func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

const selectSession = `SELECT period_key, status, opened_at, closed_at, questions FROM quiz_sessions`

func (s *SessionStore) GetByKey(ctx context.Context, periodKey string) (domain.Session, error) {
	session, err := scanSession(s.pool.QueryRow(ctx, selectSession+` WHERE period_key = $1`, periodKey))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, domain.Storage("get session", err)
	}
	return session, nil
}

func (s *SessionStore) GetActive(ctx context.Context) (domain.Session, error) {
	session, err := scanSession(s.pool.QueryRow(ctx, selectSession+` WHERE status = 'active'`))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrNoActiveSession
	}
	if err != nil {
		return domain.Session{}, domain.Storage("get active session", err)
	}
	return session, nil
}

// Create inserts the session unless its key exists. A second active row
// trips the partial unique index and maps to domain.ErrSessionActive.
func (s *SessionStore) Create(ctx context.Context, session domain.Session) (domain.Session, error) {
	raw, err := json.Marshal(session.Questions)
	if err != nil {
		return domain.Session{}, domain.Storage("marshal snapshot", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quiz_sessions (period_key, status, opened_at, questions)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (period_key) DO NOTHING`,
		session.PeriodKey, string(domain.SessionActive), session.OpenedAt, string(raw))
	if isUniqueViolation(err, oneActiveIndex) {
		return domain.Session{}, domain.ErrSessionActive
	}
	if err != nil {
		return domain.Session{}, domain.Storage("create session", err)
	}
	return s.GetByKey(ctx, session.PeriodKey)
}

func (s *SessionStore) SetStatus(ctx context.Context, periodKey string, status domain.SessionStatus, at time.Time) error {
	if status != domain.SessionEnded {
		return domain.ErrInvalidTransition
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE quiz_sessions SET status = $2, closed_at = $3
		WHERE period_key = $1 AND status = 'active'`,
		periodKey, string(status), at)
	if err != nil {
		return domain.Storage("close session", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := s.GetByKey(ctx, periodKey); err != nil {
		return err
	}
	return domain.ErrSessionEnded
}

func scanSession(row pgx.Row) (domain.Session, error) {
	var (
		session domain.Session
		status  string
		raw     []byte
	)
	if err := row.Scan(&session.PeriodKey, &status, &session.OpenedAt, &session.ClosedAt, &raw); err != nil {
		return domain.Session{}, err
	}
	session.Status = domain.SessionStatus(status)
	if err := json.Unmarshal(raw, &session.Questions); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}
