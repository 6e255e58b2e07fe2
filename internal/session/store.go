package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Keys used inside a browser scope. The token lives under "session"
// with "token" kept as a legacy fallback read by older deployments.
const (
	KeyUser         = "user"
	KeyToken        = "session"
	KeyLegacyToken  = "token"
	KeyCSRF         = "csrf_token"
	KeyVerification = "verification"
)

// ErrNoValue indicates the key is absent from the scope.
var ErrNoValue = errors.New("session: no value")

// Store is durable key-value persistence for a browser scope. One login
// is live per scope at a time; writers overwrite, there is no stacking.
type Store interface {
	Get(ctx context.Context, scope, key string) (string, error)
	Set(ctx context.Context, scope, key, value string) error
	Delete(ctx context.Context, scope, key string) error
	Clear(ctx context.Context, scope string) error
}

// RedisStore keeps each scope as a redis hash with a rolling TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) redisKey(scope string) string {
	return "scope:" + scope
}

// Get reads one key from the scope hash.
func (s *RedisStore) Get(ctx context.Context, scope, key string) (string, error) {
	value, err := s.client.HGet(ctx, s.redisKey(scope), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoValue
		}
		return "", err
	}
	return value, nil
}

// Set writes one key and refreshes the scope TTL.
func (s *RedisStore) Set(ctx context.Context, scope, key, value string) error {
	if err := s.client.HSet(ctx, s.redisKey(scope), key, value).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, s.redisKey(scope), s.ttl).Err()
}

// Delete removes one key from the scope.
func (s *RedisStore) Delete(ctx context.Context, scope, key string) error {
	return s.client.HDel(ctx, s.redisKey(scope), key).Err()
}

// Clear drops the whole scope.
func (s *RedisStore) Clear(ctx context.Context, scope string) error {
	err := s.client.Del(ctx, s.redisKey(scope)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

var _ Store = (*RedisStore)(nil)

// MemoryStore is an in-process Store for tests and the worker.
type MemoryStore struct {
	mu     sync.RWMutex
	scopes map[string]map[string]string
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scopes: make(map[string]map[string]string)}
}

// Get reads one key.
func (s *MemoryStore) Get(ctx context.Context, scope, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values, ok := s.scopes[scope]
	if !ok {
		return "", ErrNoValue
	}
	value, ok := values[key]
	if !ok {
		return "", ErrNoValue
	}
	return value, nil
}

// Set writes one key.
func (s *MemoryStore) Set(ctx context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, ok := s.scopes[scope]
	if !ok {
		values = make(map[string]string)
		s.scopes[scope] = values
	}
	values[key] = value
	return nil
}

// Delete removes one key.
func (s *MemoryStore) Delete(ctx context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if values, ok := s.scopes[scope]; ok {
		delete(values, key)
	}
	return nil
}

// Clear drops the whole scope.
func (s *MemoryStore) Clear(ctx context.Context, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scopes, scope)
	return nil
}

var _ Store = (*MemoryStore)(nil)
