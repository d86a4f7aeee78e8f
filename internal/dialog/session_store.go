package dialog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore is the per-call session repository. Get returns (nil, nil)
// when no session exists for the call.
type SessionStore interface {
	Get(ctx context.Context, callID string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, callID string) error
}

const sessionKeyPrefix = "dialog:session:"

// RedisSessionStore keeps call sessions in Redis with a rolling TTL, so an
// abandoned call expires on its own.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSessionStore creates a session store backed by Redis. A zero ttl
// falls back to 24 hours.
func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(callID string) string {
	return sessionKeyPrefix + callID
}

// Get retrieves a call session from Redis.
func (s *RedisSessionStore) Get(ctx context.Context, callID string) (*Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(callID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("session: get: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	return &sess, nil
}

// Save persists the session and refreshes its TTL.
func (s *RedisSessionStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.CallID == "" {
		return fmt.Errorf("session: call_id required")
	}
	sess.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	return s.rdb.Set(ctx, sessionKey(sess.CallID), data, s.ttl).Err()
}

// Delete removes the session, typically after call hangup processing.
func (s *RedisSessionStore) Delete(ctx context.Context, callID string) error {
	return s.rdb.Del(ctx, sessionKey(callID)).Err()
}
