package app

import (
	"context"
	"time"

	"weekly-quiz-service/internal/domain"
)

// QuestionCatalog lists the questions a new window snapshots.
type QuestionCatalog interface {
	ListActive(ctx context.Context) ([]domain.Question, error)
}

// CatalogInvalidator is implemented by catalogs that cache the question list.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context) error
}

// SessionRepository stores quiz windows.
type SessionRepository interface {
	// GetByKey returns domain.ErrSessionNotFound for unknown keys.
	GetByKey(ctx context.Context, periodKey string) (domain.Session, error)
	// GetActive returns domain.ErrNoActiveSession when no window is open.
	GetActive(ctx context.Context) (domain.Session, error)
	// Create atomically inserts an active session. An existing session with the
	// same key is returned unchanged; a different active session yields
	// domain.ErrSessionActive.
	Create(ctx context.Context, session domain.Session) (domain.Session, error)
	// SetStatus moves an active session to status, stamping at. Unknown keys
	// return domain.ErrSessionNotFound and ended ones domain.ErrSessionEnded.
	SetStatus(ctx context.Context, periodKey string, status domain.SessionStatus, at time.Time) error
}

// AnswerRepository stores one answer per (participant, session, question).
type AnswerRepository interface {
	// InsertIfAbsent reports whether the row was written; an existing row is never overwritten.
	InsertIfAbsent(ctx context.Context, answer domain.ParticipantAnswer) (bool, error)
	// ListFor returns answers ordered by position.
	ListFor(ctx context.Context, participantID, periodKey string) ([]domain.ParticipantAnswer, error)
}

// ResultRepository stores one result per (participant, session).
type ResultRepository interface {
	// GetOrCreate returns the stored result, or writes compute()'s result once.
	GetOrCreate(ctx context.Context, participantID, periodKey string, compute func() (domain.Result, error)) (domain.Result, error)
	// Get returns domain.ErrResultNotFound when absent.
	Get(ctx context.Context, participantID, periodKey string) (domain.Result, error)
	// TopN returns results ordered as domain.RankResults does.
	TopN(ctx context.Context, periodKey string, n int) ([]domain.Result, error)
}

// ParticipantDirectory keeps every participant that ever registered.
type ParticipantDirectory interface {
	Upsert(ctx context.Context, participant domain.Participant) (domain.Participant, error)
	Get(ctx context.Context, participantID string) (domain.Participant, error)
	// SetCategory returns domain.ErrParticipantNotFound for unknown ids.
	SetCategory(ctx context.Context, participantID, category string) (domain.Participant, error)
	List(ctx context.Context) ([]domain.Participant, error)
}

// CursorStore caches in-progress cursors. Losing entries is allowed; they are
// rebuilt from the answer rows.
type CursorStore interface {
	Load(ctx context.Context, participantID, periodKey string) (domain.Cursor, bool, error)
	Save(ctx context.Context, cursor domain.Cursor) error
	Delete(ctx context.Context, participantID, periodKey string) error
	// Purge drops every cursor of a session.
	Purge(ctx context.Context, periodKey string) error
}

// Locker hands out exclusive per-key locks. TryLock returns
// domain.ErrInProgress when the key is already held.
type Locker interface {
	TryLock(ctx context.Context, key string) (unlock func(), err error)
}

// Notifier delivers a notice to a single participant.
type Notifier interface {
	Notify(ctx context.Context, participantID string, notice domain.Notice) error
}
