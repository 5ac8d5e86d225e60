package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"weekly-quiz-service/internal/domain"
)

// CursorStore keeps in-progress cursors in one hash per session:
// HSET quiz:cursors:{periodKey} {participantID} {cursor JSON}
// The hash expires ttl after its last write, so abandoned sessions clean up.
type CursorStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCursorStore(client *redis.Client, ttl time.Duration) *CursorStore {
	return &CursorStore{client: client, ttl: ttl}
}

func (s *CursorStore) Load(ctx context.Context, participantID, periodKey string) (domain.Cursor, bool, error) {
	raw, err := s.client.HGet(ctx, s.key(periodKey), participantID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Cursor{}, false, nil
	}
	if err != nil {
		return domain.Cursor{}, false, fmt.Errorf("load cursor: %w", err)
	}
	var cursor domain.Cursor
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return domain.Cursor{}, false, fmt.Errorf("decode cursor: %w", err)
	}
	return cursor, true, nil
}

func (s *CursorStore) Save(ctx context.Context, cursor domain.Cursor) error {
	raw, err := json.Marshal(cursor)
	if err != nil {
		return fmt.Errorf("encode cursor: %w", err)
	}
	key := s.key(cursor.PeriodKey)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, cursor.ParticipantID, raw)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

func (s *CursorStore) Delete(ctx context.Context, participantID, periodKey string) error {
	return s.client.HDel(ctx, s.key(periodKey), participantID).Err()
}

func (s *CursorStore) Purge(ctx context.Context, periodKey string) error {
	return s.client.Del(ctx, s.key(periodKey)).Err()
}

func (s *CursorStore) key(periodKey string) string {
	return "quiz:cursors:" + periodKey
}
