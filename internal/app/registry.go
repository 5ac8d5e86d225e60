package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"weekly-quiz-service/internal/domain"
)

// SessionRegistry owns the lifecycle of quiz windows: Active -> Ended, never back.
type SessionRegistry struct {
	sessions  SessionRepository
	catalog   QuestionCatalog
	periodKey PeriodKeyFunc
	now       func() time.Time

	// serializes opens within the process; the repository guards across processes
	mu sync.Mutex
}

func NewSessionRegistry(sessions SessionRepository, catalog QuestionCatalog, periodKey PeriodKeyFunc, now func() time.Time) *SessionRegistry {
	if periodKey == nil {
		periodKey = WeeklyPeriodKey
	}
	if now == nil {
		now = time.Now
	}
	return &SessionRegistry{sessions: sessions, catalog: catalog, periodKey: periodKey, now: now}
}

// OpenWindow returns the session for the current period, creating it with a
// snapshot of the active questions if it does not exist yet.
func (r *SessionRegistry) OpenWindow(ctx context.Context) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	key := r.periodKey(now)

	existing, err := r.sessions.GetByKey(ctx, key)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Session{}, err
	}

	// a snapshot must see the current catalog, not a cached copy
	if inv, ok := r.catalog.(CatalogInvalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			return domain.Session{}, domain.Storage("invalidate questions", err)
		}
	}
	questions, err := r.catalog.ListActive(ctx)
	if err != nil {
		return domain.Session{}, domain.Storage("list questions", err)
	}
	if len(questions) == 0 {
		return domain.Session{}, domain.ErrNoQuestions
	}
	snapshot := make([]domain.Question, len(questions))
	copy(snapshot, questions)

	return r.sessions.Create(ctx, domain.Session{
		PeriodKey: key,
		Status:    domain.SessionActive,
		OpenedAt:  now,
		Questions: snapshot,
	})
}

// ActiveQuestions lists the catalog as it stands, possibly from cache.
func (r *SessionRegistry) ActiveQuestions(ctx context.Context) ([]domain.Question, error) {
	questions, err := r.catalog.ListActive(ctx)
	if err != nil {
		return nil, domain.Storage("list questions", err)
	}
	return questions, nil
}

// ActiveSession returns the open window, if any.
func (r *SessionRegistry) ActiveSession(ctx context.Context) (domain.Session, bool, error) {
	session, err := r.sessions.GetActive(ctx)
	if errors.Is(err, domain.ErrNoActiveSession) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, err
	}
	return session, true, nil
}

// Session loads any session by key.
func (r *SessionRegistry) Session(ctx context.Context, periodKey string) (domain.Session, error) {
	return r.sessions.GetByKey(ctx, periodKey)
}

// CloseWindow ends the named session. Closing twice reports domain.ErrSessionEnded.
func (r *SessionRegistry) CloseWindow(ctx context.Context, periodKey string) error {
	return r.sessions.SetStatus(ctx, periodKey, domain.SessionEnded, r.now())
}
