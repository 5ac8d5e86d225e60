package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"weekly-quiz-service/internal/app"
	"weekly-quiz-service/internal/config"
	"weekly-quiz-service/internal/domain"
	"weekly-quiz-service/internal/infra/memory"
	"weekly-quiz-service/internal/infra/postgres"
	infraredis "weekly-quiz-service/internal/infra/redis"
)

// backend holds the optional external connections.
type backend struct {
	pool  *pgxpool.Pool
	redis *redis.Client
}

func connect(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
	}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return b, nil
}

func (b *backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

// catalogCache returns the redis catalog cache when redis is configured.
func (b *backend) catalogCache(cfg config.Config, loader infraredis.QuestionLoader) *infraredis.CatalogCache {
	if b.redis == nil {
		return nil
	}
	return infraredis.NewCatalogCache(b.redis, loader, config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute))
}

// buildService wires the quiz use cases onto postgres/redis when configured
// and in-memory adapters otherwise.
func buildService(cfg config.Config, b *backend, notifier app.Notifier) (*app.QuizService, error) {
	periodKey, err := app.PeriodKeyByName(cfg.Quiz.Period)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("quiz timezone: %w", err)
	}

	deps := app.Dependencies{
		Notifier:             notifier,
		PeriodKey:            periodKey,
		Clock:                func() time.Time { return time.Now().In(loc) },
		Winners:              cfg.Quiz.Winners,
		BroadcastConcurrency: cfg.Quiz.BroadcastConcurrency,
	}

	var questions memory.QuestionLoader
	if b.pool != nil {
		questions = postgres.NewQuestionStore(b.pool)
		deps.Sessions = postgres.NewSessionStore(b.pool)
		deps.Answers = postgres.NewAnswerStore(b.pool)
		deps.Results = postgres.NewResultStore(b.pool)
		deps.Participants = postgres.NewParticipantStore(b.pool)
	} else {
		questions = memory.NewStaticCatalog(sampleQuestions())
		deps.Sessions = memory.NewSessionStore()
		deps.Answers = memory.NewAnswerStore()
		deps.Results = memory.NewResultStore()
		deps.Participants = memory.NewParticipantStore()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if cache := b.catalogCache(cfg, questions); cache != nil {
		deps.Questions = cache
	} else {
		deps.Questions = memory.NewCachedCatalog(questions, quizTTL)
	}

	if b.redis != nil {
		deps.Cursors = infraredis.NewCursorStore(b.redis, config.TTLDuration(cfg.Quiz.CursorTTL, 7*24*time.Hour))
		deps.Locker = infraredis.NewLocker(b.redis, config.TTLDuration(cfg.Redis.TTL, 30*time.Second))
	} else {
		deps.Cursors = memory.NewCursorStore()
		deps.Locker = memory.NewLocker()
	}
	return app.NewQuizService(deps), nil
}

// sampleQuestions seeds the in-memory catalog when no database is configured.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "capital-france", Prompt: "What is the capital of France?", Options: [4]string{"Paris", "London", "Berlin", "Madrid"}, Correct: domain.ChoiceA, Active: true},
		{ID: "math-2plus2", Prompt: "What is 2 + 2?", Options: [4]string{"3", "4", "5", "6"}, Correct: domain.ChoiceB, Active: true},
		{ID: "largest-planet", Prompt: "Which planet is the largest in our solar system?", Options: [4]string{"Earth", "Mars", "Jupiter", "Saturn"}, Correct: domain.ChoiceC, Active: true},
		{ID: "water-formula", Prompt: "What is the chemical formula for water?", Options: [4]string{"CO2", "O2", "NaCl", "H2O"}, Correct: domain.ChoiceD, Active: true},
	}
}
