// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/moodlog/internal/metrics"
)

// RedisClient is the subset of *redis.Client used by RedisStore.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStore is a Store backed by Redis.
type RedisStore struct {
	client  RedisClient
	timeout time.Duration
}

// RedisOptions configures NewRedisClient.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// NewRedisClient builds a go-redis client with short timeouts so a dead
// cache costs milliseconds, not seconds.
func NewRedisClient(opts RedisOptions) *redis.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 250 * time.Millisecond
	}
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		MaxRetries:   1,
	})
}

// NewRedisStore wraps client. timeout bounds each operation.
func NewRedisStore(client RedisClient, timeout time.Duration) *RedisStore {
	return &RedisStore{client: client, timeout: timeout}
}

func (s *RedisStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	b, err := s.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.RecordCacheRequest("get", "miss")
		return nil, false, nil
	case err != nil:
		metrics.RecordCacheRequest("get", "error")
		return nil, false, fmt.Errorf("%w: redis get %s: %v", ErrCacheUnavailable, key, err)
	}
	metrics.RecordCacheRequest("get", "hit")
	return b, true, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		metrics.RecordCacheRequest("set", "error")
		return fmt.Errorf("%w: redis set %s: %v", ErrCacheUnavailable, key, err)
	}
	metrics.RecordCacheRequest("set", "ok")
	return nil
}

// Invalidate implements Store.
func (s *RedisStore) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		metrics.RecordCacheRequest("invalidate", "error")
		return fmt.Errorf("%w: redis del %v: %v", ErrCacheUnavailable, keys, err)
	}
	metrics.RecordCacheRequest("invalidate", "ok")
	return nil
}

// Ping implements Store.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
