package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"weekly-quiz-service/internal/app"
	"weekly-quiz-service/internal/domain"
	"weekly-quiz-service/internal/infra/memory"
)

const testToken = "s3cret"

type testServer struct {
	*httptest.Server
	service *app.QuizService
	hub     *Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	hub := NewHub()
	service := app.NewQuizService(app.Dependencies{
		Questions:    memory.NewStaticCatalog(sampleQuestions()),
		Sessions:     memory.NewSessionStore(),
		Answers:      memory.NewAnswerStore(),
		Results:      memory.NewResultStore(),
		Participants: memory.NewParticipantStore(),
		Cursors:      memory.NewCursorStore(),
		Locker:       memory.NewLocker(),
		Notifier:     hub,
		Clock:        func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) },
	})
	srv := httptest.NewServer(NewRouter(NewWSHandler(service, hub), NewAdminHandler(service, testToken)))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, service: service, hub: hub}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Prompt: "What is 2 + 2?", Options: [4]string{"3", "4", "5", "6"}, Correct: domain.ChoiceB, Active: true},
		{ID: "q2", Prompt: "Capital of France?", Options: [4]string{"Paris", "Rome", "Madrid", "Berlin"}, Correct: domain.ChoiceA, Active: true},
	}
}
