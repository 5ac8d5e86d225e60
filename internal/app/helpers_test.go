package app_test

import (
	"sync"
	"time"

	"weekly-quiz-service/internal/app"
	"weekly-quiz-service/internal/domain"
	"weekly-quiz-service/internal/infra/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	clock        *fakeClock
	catalog      *memory.StaticCatalog
	sessions     *memory.SessionStore
	answers      *memory.AnswerStore
	results      *memory.ResultStore
	participants *memory.ParticipantStore
	cursors      *memory.CursorStore
	service      *app.QuizService
}

func newTestEnv(notifier app.Notifier) *testEnv {
	return newTestEnvWith(notifier, nil)
}

// newTestEnvWith lets a test swap adapters before the service is built.
func newTestEnvWith(notifier app.Notifier, override func(*app.Dependencies)) *testEnv {
	env := &testEnv{
		clock:        newFakeClock(),
		catalog:      memory.NewStaticCatalog(sampleQuestions()),
		sessions:     memory.NewSessionStore(),
		answers:      memory.NewAnswerStore(),
		results:      memory.NewResultStore(),
		participants: memory.NewParticipantStore(),
		cursors:      memory.NewCursorStore(),
	}
	deps := app.Dependencies{
		Questions:    env.catalog,
		Sessions:     env.sessions,
		Answers:      env.answers,
		Results:      env.results,
		Participants: env.participants,
		Cursors:      env.cursors,
		Locker:       memory.NewLocker(),
		Notifier:     notifier,
		Clock:        env.clock.Now,
	}
	if override != nil {
		override(&deps)
	}
	env.service = app.NewQuizService(deps)
	return env
}

// Correct answers are A, B, C, D in order.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Prompt: "Largest planet?", Options: [4]string{"Jupiter", "Mars", "Venus", "Earth"}, Correct: domain.ChoiceA, Active: true},
		{ID: "q2", Prompt: "2 + 2?", Options: [4]string{"3", "4", "5", "6"}, Correct: domain.ChoiceB, Active: true},
		{ID: "q3", Prompt: "Capital of Italy?", Options: [4]string{"Paris", "Oslo", "Rome", "Bern"}, Correct: domain.ChoiceC, Active: true},
		{ID: "q4", Prompt: "H2O is?", Options: [4]string{"Salt", "Air", "Gold", "Water"}, Correct: domain.ChoiceD, Active: true},
	}
}
