package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

// DefaultRedisKey holds the snapshot when no key is configured
const DefaultRedisKey = "webdesk:preferences"

// RedisStore keeps the snapshot under one Redis key, for deployments where
// several backend replicas serve the same desktop
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore connects to redisURL. A zero ttl keeps the snapshot forever.
func NewRedisStore(ctx context.Context, redisURL, key string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client, key, ttl), nil
}

// NewRedisStoreWithClient creates a store from an existing client
func NewRedisStoreWithClient(client *redis.Client, key string, ttl time.Duration) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key, ttl: ttl}
}

// Load reads the snapshot; a missing key yields empty preferences
func (s *RedisStore) Load(ctx context.Context) (*Preferences, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewPreferences(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	prefs := NewPreferences()
	if err := sonic.Unmarshal(data, prefs); err != nil {
		return nil, fmt.Errorf("unmarshal preferences: %w", err)
	}
	if prefs.Positions == nil {
		prefs.Positions = make(map[string]types.Bounds)
	}
	return prefs, nil
}

// Save replaces the snapshot and refreshes its expiry
func (s *RedisStore) Save(ctx context.Context, prefs *Preferences) error {
	data, err := sonic.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
