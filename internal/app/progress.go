package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"weekly-quiz-service/internal/domain"
)

// ProgressTracker moves participants through a session one question at a time.
// Every call holds the participant's lock for its whole duration.
type ProgressTracker struct {
	sessions SessionRepository
	answers  AnswerRepository
	results  ResultRepository
	cursors  CursorStore
	locker   Locker
	scoring  *ScoringEngine
	now      func() time.Time
}

func NewProgressTracker(
	sessions SessionRepository,
	answers AnswerRepository,
	results ResultRepository,
	cursors CursorStore,
	locker Locker,
	scoring *ScoringEngine,
	now func() time.Time,
) *ProgressTracker {
	if now == nil {
		now = time.Now
	}
	return &ProgressTracker{
		sessions: sessions,
		answers:  answers,
		results:  results,
		cursors:  cursors,
		locker:   locker,
		scoring:  scoring,
		now:      now,
	}
}

func progressLockKey(participantID, periodKey string) string {
	return "progress:" + periodKey + ":" + participantID
}

// Begin returns the participant's current question. A fresh participant starts
// at the first question; one with recorded answers resumes after them.
func (t *ProgressTracker) Begin(ctx context.Context, participantID, periodKey string) (domain.QuestionView, error) {
	if strings.TrimSpace(participantID) == "" {
		return domain.QuestionView{}, domain.ErrInvalidParticipant
	}
	unlock, err := t.locker.TryLock(ctx, progressLockKey(participantID, periodKey))
	if err != nil {
		return domain.QuestionView{}, err
	}
	defer unlock()

	session, err := t.activeSession(ctx, periodKey)
	if err != nil {
		return domain.QuestionView{}, err
	}

	_, err = t.results.Get(ctx, participantID, periodKey)
	if err == nil {
		return domain.QuestionView{}, domain.ErrAlreadyCompleted
	}
	if !errors.Is(err, domain.ErrResultNotFound) {
		return domain.QuestionView{}, domain.Storage("get result", err)
	}

	cursor, _, err := t.loadCursor(ctx, session, participantID, true)
	if err != nil {
		return domain.QuestionView{}, err
	}
	if cursor.Done(session) {
		// every answer landed but the result was never written
		if _, err := t.scoring.FinalizeScore(ctx, participantID, session); err != nil {
			return domain.QuestionView{}, err
		}
		t.dropCursor(ctx, participantID, periodKey)
		return domain.QuestionView{}, domain.ErrAlreadyCompleted
	}
	if err := t.cursors.Save(ctx, cursor); err != nil {
		return domain.QuestionView{}, domain.Storage("save cursor", err)
	}
	return session.View(cursor.Index), nil
}

// SubmitAnswer records the answer for the question at the cursor. Replaying an
// accepted answer returns the same response without writing anything.
func (t *ProgressTracker) SubmitAnswer(ctx context.Context, participantID, periodKey, questionID, rawChoice string) (domain.SubmitOutcome, error) {
	choice, err := domain.ParseChoice(rawChoice)
	if err != nil {
		return domain.SubmitOutcome{}, err
	}
	if strings.TrimSpace(participantID) == "" {
		return domain.SubmitOutcome{}, domain.ErrInvalidParticipant
	}
	unlock, err := t.locker.TryLock(ctx, progressLockKey(participantID, periodKey))
	if err != nil {
		return domain.SubmitOutcome{}, err
	}
	defer unlock()

	session, err := t.activeSession(ctx, periodKey)
	if err != nil {
		return domain.SubmitOutcome{}, err
	}
	cursor, started, err := t.loadCursor(ctx, session, participantID, false)
	if err != nil {
		return domain.SubmitOutcome{}, err
	}
	if !started {
		return domain.SubmitOutcome{}, domain.ErrNotStarted
	}

	idx := session.QuestionIndex(questionID)
	if idx > cursor.Index {
		// a cached cursor may lag the answer rows after a failed save
		answers, err := t.answers.ListFor(ctx, participantID, periodKey)
		if err != nil {
			return domain.SubmitOutcome{}, domain.Storage("list answers", err)
		}
		cursor = domain.RebuildCursor(session, participantID, answers)
		t.saveCursor(ctx, cursor)
	}
	switch {
	case idx < 0:
		return domain.SubmitOutcome{}, domain.ErrUnknownQuestion
	case idx < cursor.Index:
		return t.replay(ctx, session, cursor, idx, choice)
	case idx > cursor.Index:
		return domain.SubmitOutcome{}, domain.ErrOutOfSequence
	}

	inserted, err := t.answers.InsertIfAbsent(ctx, domain.ParticipantAnswer{
		ParticipantID: participantID,
		PeriodKey:     periodKey,
		QuestionID:    questionID,
		Position:      idx,
		Choice:        choice,
		AnsweredAt:    t.now(),
	})
	if err != nil {
		return domain.SubmitOutcome{}, domain.Storage("insert answer", err)
	}
	if !inserted {
		// the row exists although the cursor did not know it: trust the rows
		answers, err := t.answers.ListFor(ctx, participantID, periodKey)
		if err != nil {
			return domain.SubmitOutcome{}, domain.Storage("list answers", err)
		}
		cursor = domain.RebuildCursor(session, participantID, answers)
		t.saveCursor(ctx, cursor)
		return t.replay(ctx, session, cursor, idx, choice)
	}

	cursor = cursor.Advance(choice)
	if !cursor.Done(session) {
		t.saveCursor(ctx, cursor)
		next := session.View(cursor.Index)
		return domain.SubmitOutcome{Next: &next}, nil
	}

	result, err := t.scoring.FinalizeScore(ctx, participantID, session)
	if err != nil {
		return domain.SubmitOutcome{}, err
	}
	t.dropCursor(ctx, participantID, periodKey)
	return domain.SubmitOutcome{Completed: true, Result: &result}, nil
}

func (t *ProgressTracker) replay(ctx context.Context, session domain.Session, cursor domain.Cursor, idx int, choice domain.Choice) (domain.SubmitOutcome, error) {
	if idx >= len(cursor.Choices) || !cursor.Choices[idx].Matches(choice) {
		return domain.SubmitOutcome{}, domain.ErrAlreadyAnswered
	}
	if idx+1 < len(session.Questions) {
		next := session.View(idx + 1)
		return domain.SubmitOutcome{Next: &next}, nil
	}
	result, err := t.scoring.FinalizeScore(ctx, cursor.ParticipantID, session)
	if err != nil {
		return domain.SubmitOutcome{}, err
	}
	return domain.SubmitOutcome{Completed: true, Result: &result}, nil
}

func (t *ProgressTracker) activeSession(ctx context.Context, periodKey string) (domain.Session, error) {
	session, err := t.sessions.GetByKey(ctx, periodKey)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Session{}, domain.ErrNoActiveSession
	}
	if err != nil {
		return domain.Session{}, domain.Storage("get session", err)
	}
	if !session.IsActive() {
		return domain.Session{}, domain.ErrNoActiveSession
	}
	return session, nil
}

// loadCursor returns the cached cursor or rebuilds it from the answer rows.
// started is false when nothing is cached and no answers exist.
func (t *ProgressTracker) loadCursor(ctx context.Context, session domain.Session, participantID string, allowEmpty bool) (domain.Cursor, bool, error) {
	cursor, ok, err := t.cursors.Load(ctx, participantID, session.PeriodKey)
	if err != nil {
		log.Printf("load cursor %s/%s: %v", session.PeriodKey, participantID, err)
	} else if ok {
		return cursor, true, nil
	}

	answers, err := t.answers.ListFor(ctx, participantID, session.PeriodKey)
	if err != nil {
		return domain.Cursor{}, false, domain.Storage("list answers", err)
	}
	if len(answers) == 0 && !allowEmpty {
		return domain.Cursor{}, false, nil
	}
	return domain.RebuildCursor(session, participantID, answers), true, nil
}

// The cursor cache is best effort; answer rows stay authoritative.
func (t *ProgressTracker) saveCursor(ctx context.Context, cursor domain.Cursor) {
	if err := t.cursors.Save(ctx, cursor); err != nil {
		log.Printf("save cursor %s/%s: %v", cursor.PeriodKey, cursor.ParticipantID, err)
		// a stale entry would be trusted on the next load
		t.dropCursor(ctx, cursor.ParticipantID, cursor.PeriodKey)
	}
}

func (t *ProgressTracker) dropCursor(ctx context.Context, participantID, periodKey string) {
	if err := t.cursors.Delete(ctx, participantID, periodKey); err != nil {
		log.Printf("delete cursor %s/%s: %v", periodKey, participantID, err)
	}
}
