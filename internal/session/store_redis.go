package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of go-redis the store needs, so tests can swap
// in a fake without a running server.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore persists session snapshots in Redis as JSON under a single key
// per deployment.
type RedisStore struct {
	rdb RedisClient
	key string
	ttl time.Duration
}

// NewRedisStore connects to redisURL and returns a snapshot store. A zero
// ttl keeps snapshots until logout.
func NewRedisStore(redisURL, key string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStore{rdb: redis.NewClient(opts), key: key, ttl: ttl}, nil
}

// NewRedisStoreWithClient wraps an existing client. Used by tests.
func NewRedisStoreWithClient(rdb RedisClient, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, key: key, ttl: ttl}
}

// Load returns the stored snapshot, or (nil, nil) when none exists.
func (s *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	raw, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode session snapshot: %w", err)
	}
	return &snap, nil
}

// Save stores the snapshot.
func (s *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session snapshot: %w", err)
	}
	return nil
}

// Clear removes the snapshot.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session snapshot: %w", err)
	}
	return nil
}
