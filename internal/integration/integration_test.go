package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"weekly-quiz-service/internal/app"
	"weekly-quiz-service/internal/domain"
	"weekly-quiz-service/internal/infra/postgres"
	pgmigrations "weekly-quiz-service/internal/infra/postgres/migrations"
	infraredis "weekly-quiz-service/internal/infra/redis"
)

func TestWeeklyQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	questions := postgres.NewQuestionStore(pool)
	if _, err := questions.Upsert(ctx, sampleQuestions()); err != nil {
		t.Fatalf("seed questions: %v", err)
	}

	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		now = now.Add(time.Second)
		return now
	}
	sessions := postgres.NewSessionStore(pool)
	service := app.NewQuizService(app.Dependencies{
		Questions:    infraredis.NewCatalogCache(redisClient, questions, 5*time.Minute),
		Sessions:     sessions,
		Answers:      postgres.NewAnswerStore(pool),
		Results:      postgres.NewResultStore(pool),
		Participants: postgres.NewParticipantStore(pool),
		Cursors:      infraredis.NewCursorStore(redisClient, time.Hour),
		Locker:       infraredis.NewLocker(redisClient, 10*time.Second),
		Clock:        clock,
	})

	window, err := service.OpenWindow(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if window.PeriodKey != "week_2026_42" || window.QuestionCount != 3 {
		t.Fatalf("unexpected window %+v", window)
	}
	again, err := service.OpenWindow(ctx)
	if err != nil || again.PeriodKey != window.PeriodKey {
		t.Fatalf("reopen should be idempotent: %+v %v", again, err)
	}

	_, err = sessions.Create(ctx, domain.Session{PeriodKey: "week_2026_43", Status: domain.SessionActive, OpenedAt: now})
	if !errors.Is(err, domain.ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive from partial index, got %v", err)
	}

	play := func(id, name string, choices ...string) domain.SubmitOutcome {
		t.Helper()
		if _, err := service.Join(ctx, id, name); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
		if _, err := service.Begin(ctx, id); err != nil {
			t.Fatalf("begin %s: %v", id, err)
		}
		var outcome domain.SubmitOutcome
		for i, c := range choices {
			outcome, err = service.SubmitAnswer(ctx, id, sampleQuestions()[i].ID, c)
			if err != nil {
				t.Fatalf("submit %s #%d: %v", id, i, err)
			}
		}
		return outcome
	}

	first := play("u1", "Alice", "A", "B", "A")
	if !first.Completed || first.Result.Score != 2 {
		t.Fatalf("unexpected outcome for u1 %+v", first)
	}
	second := play("u2", "Bob", "a", "b", "c")
	if !second.Completed || second.Result.Score != 3 {
		t.Fatalf("unexpected outcome for u2 %+v", second)
	}

	replay, err := service.SubmitAnswer(ctx, "u2", "q3", "C")
	if err != nil || replay.Result.Score != 3 {
		t.Fatalf("replay should return stored result: %+v %v", replay, err)
	}
	if _, err := service.Begin(ctx, "u1"); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("expected already completed, got %v", err)
	}

	summary, err := service.CloseWindow(ctx)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(summary.Winners) != 2 || summary.Winners[0].DisplayName != "Bob" || summary.Winners[1].ParticipantID != "u1" {
		t.Fatalf("unexpected winners %+v", summary.Winners)
	}
	if _, err := service.CloseSession(ctx, window.PeriodKey); !errors.Is(err, domain.ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded, got %v", err)
	}

	profile, err := service.SetCategory(ctx, "u1", domain.CategoryParent)
	if err != nil || profile.Category != domain.CategoryParent {
		t.Fatalf("set category: %+v %v", profile, err)
	}
	if _, err := service.SetCategory(ctx, "ghost", domain.CategoryParent); !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Fatalf("expected ErrParticipantNotFound, got %v", err)
	}

	// a second import edits q3 and adds q4; earlier questions keep their place
	edited := sampleQuestions()[2]
	edited.Prompt = "Largest planet in the solar system?"
	if _, err := questions.Upsert(ctx, []domain.Question{edited, {
		ID: "q4", Prompt: "Boiling point of water (C)?", Options: [4]string{"90", "100", "110", "120"}, Correct: domain.ChoiceB, Active: true,
	}}); err != nil {
		t.Fatalf("second import: %v", err)
	}
	listed, err := questions.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	var order []string
	for _, q := range listed {
		order = append(order, q.ID)
	}
	if strings.Join(order, ",") != "q1,q2,q3,q4" {
		t.Fatalf("unexpected catalog order %v", order)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

// Correct answers are A, B, C.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Prompt: "Capital of France?", Options: [4]string{"Paris", "London", "Berlin", "Madrid"}, Correct: domain.ChoiceA, Active: true},
		{ID: "q2", Prompt: "2 + 2?", Options: [4]string{"3", "4", "5", "6"}, Correct: domain.ChoiceB, Active: true},
		{ID: "q3", Prompt: "Largest planet?", Options: [4]string{"Earth", "Mars", "Jupiter", "Saturn"}, Correct: domain.ChoiceC, Active: true},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
