package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"weekly-quiz-service/internal/domain"
)

// QuestionLoader fetches the active questions from a backing store.
type QuestionLoader interface {
	ListActive(ctx context.Context) ([]domain.Question, error)
}

// CachedCatalog caches the active question list with TTL to avoid repeated DB hits.
type CachedCatalog struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	questions []domain.Question
	expiresAt time.Time
}

func NewCachedCatalog(loader QuestionLoader, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CachedCatalog) ListActive(ctx context.Context) ([]domain.Question, error) {
	if questions, ok := c.cached(c.clock()); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do("active", func() (interface{}, error) {
		now := c.clock()
		if questions, ok := c.cached(now); ok {
			return questions, nil
		}

		questions, err := c.loader.ListActive(ctx)
		if err != nil {
			return nil, err
		}

		ttl := c.ttlWithJitter()
		c.mu.Lock()
		c.questions = questions
		c.expiresAt = now.Add(ttl)
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(result.([]domain.Question)), nil
}

// Invalidate forces the next ListActive to hit the loader.
func (c *CachedCatalog) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.questions = nil
	c.expiresAt = time.Time{}
	c.mu.Unlock()
	c.sf.Forget("active")
	return nil
}

func (c *CachedCatalog) cached(now time.Time) ([]domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.questions != nil && c.expiresAt.After(now) {
		return clone(c.questions), true
	}
	return nil, false
}

func (c *CachedCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticCatalog is a catalog backed by an in-memory list (useful for tests/demos).
type StaticCatalog struct {
	mu        sync.RWMutex
	questions []domain.Question
}

func NewStaticCatalog(questions []domain.Question) *StaticCatalog {
	return &StaticCatalog{questions: clone(questions)}
}

func (s *StaticCatalog) ListActive(_ context.Context) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	active := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if q.Active {
			active = append(active, q)
		}
	}
	return active, nil
}

// Upsert replaces a question with the same ID or appends it.
func (s *StaticCatalog) Upsert(_ context.Context, q domain.Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.questions {
		if s.questions[i].ID == q.ID {
			s.questions[i] = q
			return nil
		}
	}
	s.questions = append(s.questions, q)
	return nil
}

func clone(questions []domain.Question) []domain.Question {
	if questions == nil {
		return nil
	}
	out := make([]domain.Question, len(questions))
	copy(out, questions)
	return out
}
