// internal/infra/cache/redis_session_repository.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"phq9_screening_bot/internal/domain/screening"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "screening_session:"

// RedisSessionRepository stores each session as a JSON value keyed by conversation.
// Keys carry no TTL: an unfinished conversation may wait indefinitely.
type RedisSessionRepository struct {
	client *redis.Client
}

func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

func sessionKey(conversationID string) string {
	return sessionKeyPrefix + conversationID
}

func (r *RedisSessionRepository) GetByConversationID(ctx context.Context, conversationID string) (*screening.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(conversationID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, screening.ErrSessionNotFound
		}
		return nil, fmt.Errorf("error getting session from redis: %w", err)
	}
	var s screening.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("error decoding session %s: %w", conversationID, err)
	}
	return &s, nil
}

func (r *RedisSessionRepository) Save(ctx context.Context, s *screening.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("error encoding session %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ConversationID), data, 0).Err(); err != nil {
		return fmt.Errorf("error saving session to redis: %w", err)
	}
	return nil
}

// DeleteFinishedBefore removes completed sessions last updated before cutoff.
// Each key is checked and deleted under WATCH, so a session restarted or saved
// again after it was read is left alone.
func (r *RedisSessionRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	iter := r.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		ok, err := r.deleteIfFinished(ctx, key, cutoff)
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted++
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("error scanning sessions: %w", err)
	}
	return deleted, nil
}

func (r *RedisSessionRepository) deleteIfFinished(ctx context.Context, key string, cutoff time.Time) (bool, error) {
	var deleted bool
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading %s: %w", key, err)
		}
		var s screening.Session
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("error decoding %s: %w", key, err)
		}
		if !s.IsTerminal() || !s.UpdatedAt.Before(cutoff) {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		if err != nil {
			return err
		}
		deleted = true
		return nil
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		// written concurrently; the newer value is kept
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error deleting %s: %w", key, err)
	}
	return deleted, nil
}

// Ping checks connectivity at start-up.
func (r *RedisSessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
