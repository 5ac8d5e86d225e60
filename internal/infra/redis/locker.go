package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"weekly-quiz-service/internal/domain"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a per-key try-lock shared by every instance using the same Redis.
// Locks expire after ttl so a crashed holder cannot block a participant forever.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, ttl: ttl}
}

func (l *Locker) TryLock(ctx context.Context, key string) (func(), error) {
	lockKey := "quiz:lock:" + key
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return nil, domain.Storage("acquire lock", fmt.Errorf("setnx %s: %w", lockKey, err))
	}
	if !ok {
		return nil, domain.ErrInProgress
	}
	return func() {
		// release must run even when the request context was canceled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{lockKey}, token).Err(); err != nil {
			log.Printf("release lock %s: %v", lockKey, err)
		}
	}, nil
}
