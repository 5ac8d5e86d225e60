package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"weekly-quiz-service/internal/domain"
)

// Dependencies wires the quiz use cases to their adapters.
type Dependencies struct {
	Questions    QuestionCatalog
	Sessions     SessionRepository
	Answers      AnswerRepository
	Results      ResultRepository
	Participants ParticipantDirectory
	Cursors      CursorStore
	Locker       Locker
	Notifier     Notifier

	PeriodKey            PeriodKeyFunc
	Clock                func() time.Time
	Winners              int
	BroadcastConcurrency int
}

// QuizService contains the core quiz use cases called by transports, the CLI
// and the scheduler.
type QuizService struct {
	registry     *SessionRegistry
	tracker      *ProgressTracker
	scoring      *ScoringEngine
	leaderboard  *LeaderboardSelector
	broadcaster  *Broadcaster
	participants ParticipantDirectory
	cursors      CursorStore
	now          func() time.Time
	winners      int
}

func NewQuizService(deps Dependencies) *QuizService {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	winners := deps.Winners
	if winners <= 0 {
		winners = domain.DefaultWinners
	}
	scoring := NewScoringEngine(deps.Answers, deps.Results, now)
	return &QuizService{
		registry:     NewSessionRegistry(deps.Sessions, deps.Questions, deps.PeriodKey, now),
		tracker:      NewProgressTracker(deps.Sessions, deps.Answers, deps.Results, deps.Cursors, deps.Locker, scoring, now),
		scoring:      scoring,
		leaderboard:  NewLeaderboardSelector(deps.Results, deps.Participants),
		broadcaster:  NewBroadcaster(deps.Participants, deps.Notifier, deps.BroadcastConcurrency),
		participants: deps.Participants,
		cursors:      deps.Cursors,
		now:          now,
		winners:      winners,
	}
}

// OpenWindow opens (or returns) the window for the current period.
func (s *QuizService) OpenWindow(ctx context.Context) (domain.Window, error) {
	session, err := s.registry.OpenWindow(ctx)
	if err != nil {
		return domain.Window{}, err
	}
	return windowOf(session), nil
}

// ActiveWindow reports the open window, if any.
func (s *QuizService) ActiveWindow(ctx context.Context) (domain.Window, bool, error) {
	session, ok, err := s.registry.ActiveSession(ctx)
	if err != nil || !ok {
		return domain.Window{}, ok, err
	}
	return windowOf(session), true, nil
}

// ActiveQuestions lists the catalog a window opened now would snapshot.
func (s *QuizService) ActiveQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.registry.ActiveQuestions(ctx)
}

// CloseWindow ends the active window and returns its winners.
func (s *QuizService) CloseWindow(ctx context.Context) (domain.CloseSummary, error) {
	session, ok, err := s.registry.ActiveSession(ctx)
	if err != nil {
		return domain.CloseSummary{}, err
	}
	if !ok {
		return domain.CloseSummary{}, domain.ErrNoActiveSession
	}
	return s.CloseSession(ctx, session.PeriodKey)
}

// CloseSession ends the named window and returns its winners.
func (s *QuizService) CloseSession(ctx context.Context, periodKey string) (domain.CloseSummary, error) {
	if err := s.registry.CloseWindow(ctx, periodKey); err != nil {
		return domain.CloseSummary{}, err
	}
	if err := s.cursors.Purge(ctx, periodKey); err != nil {
		log.Printf("purge cursors for %s: %v", periodKey, err)
	}
	winners, err := s.leaderboard.TopResults(ctx, periodKey, s.winners)
	if err != nil {
		return domain.CloseSummary{}, err
	}
	return domain.CloseSummary{PeriodKey: periodKey, Winners: winners}, nil
}

// Standings returns the leaderboard of any session.
func (s *QuizService) Standings(ctx context.Context, periodKey string, limit int) ([]domain.Standing, error) {
	if _, err := s.registry.Session(ctx, periodKey); err != nil {
		return nil, err
	}
	return s.leaderboard.TopResults(ctx, periodKey, limit)
}

// Join registers or refreshes a participant.
func (s *QuizService) Join(ctx context.Context, participantID, displayName string) (domain.Participant, error) {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return domain.Participant{}, domain.ErrInvalidParticipant
	}
	_, err := s.participants.Get(ctx, participantID)
	first := errors.Is(err, domain.ErrParticipantNotFound)
	if err != nil && !first {
		return domain.Participant{}, domain.Storage("get participant", err)
	}
	p, err := s.participants.Upsert(ctx, domain.Participant{
		ID:          participantID,
		DisplayName: strings.TrimSpace(displayName),
		JoinedAt:    s.now(),
	})
	if err != nil {
		return domain.Participant{}, domain.Storage("upsert participant", err)
	}
	if first {
		if err := s.broadcaster.Send(ctx, p.ID, WelcomeNotice(p)); err != nil && !errors.Is(err, ErrNoTransport) {
			log.Printf("welcome %s: %v", p.ID, err)
		}
	}
	return p, nil
}

// SetCategory records the category a participant picked after the welcome.
func (s *QuizService) SetCategory(ctx context.Context, participantID, category string) (domain.Participant, error) {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return domain.Participant{}, domain.ErrInvalidParticipant
	}
	category = strings.ToLower(strings.TrimSpace(category))
	if !domain.ValidCategory(category) {
		return domain.Participant{}, domain.ErrInvalidCategory
	}
	p, err := s.participants.SetCategory(ctx, participantID, category)
	if err != nil {
		return domain.Participant{}, domain.Storage("set category", err)
	}
	return p, nil
}

// Begin starts (or resumes) the active window's quiz for a participant.
func (s *QuizService) Begin(ctx context.Context, participantID string) (domain.QuestionView, error) {
	session, err := s.active(ctx)
	if err != nil {
		return domain.QuestionView{}, err
	}
	return s.tracker.Begin(ctx, participantID, session.PeriodKey)
}

// SubmitAnswer records an answer in the active window.
func (s *QuizService) SubmitAnswer(ctx context.Context, participantID, questionID, choice string) (domain.SubmitOutcome, error) {
	session, err := s.active(ctx)
	if err != nil {
		return domain.SubmitOutcome{}, err
	}
	return s.tracker.SubmitAnswer(ctx, participantID, session.PeriodKey, questionID, choice)
}

// FinalizeScore scores a participant of any session; used for operator recovery.
func (s *QuizService) FinalizeScore(ctx context.Context, participantID, periodKey string) (domain.Result, error) {
	session, err := s.registry.Session(ctx, periodKey)
	if err != nil {
		return domain.Result{}, err
	}
	return s.scoring.FinalizeScore(ctx, participantID, session)
}

// Broadcast sends notice to every known participant.
func (s *QuizService) Broadcast(ctx context.Context, notice domain.Notice) (domain.BroadcastReport, error) {
	return s.broadcaster.Broadcast(ctx, notice)
}

func (s *QuizService) active(ctx context.Context) (domain.Session, error) {
	session, ok, err := s.registry.ActiveSession(ctx)
	if err != nil {
		return domain.Session{}, domain.Storage("active session", err)
	}
	if !ok {
		return domain.Session{}, domain.ErrNoActiveSession
	}
	return session, nil
}

func windowOf(session domain.Session) domain.Window {
	return domain.Window{
		PeriodKey:     session.PeriodKey,
		Status:        session.Status,
		QuestionCount: len(session.Questions),
		OpenedAt:      session.OpenedAt,
	}
}
