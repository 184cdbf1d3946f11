// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/moodlog/internal/logging"
	"github.com/tomtom215/moodlog/internal/metrics"
)

// BreakerConfig configures a BreakerStore.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
	MaxRequests      uint32
}

// BreakerStore wraps a Store with a circuit breaker. A miss is a success;
// only backend errors count toward tripping.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreakerStore wraps next.
func NewBreakerStore(next Store, cfg BreakerConfig) *BreakerStore {
	if cfg.Name == "" {
		cfg.Name = "cache"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Cache circuit breaker state changed")
		},
	}
	return &BreakerStore{next: next, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// State returns the current breaker state.
func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
}

type getResult struct {
	value []byte
	hit   bool
}

// Get implements Store.
func (s *BreakerStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := s.cb.Execute(func() (any, error) {
		v, ok, err := s.next.Get(ctx, key)
		return getResult{value: v, hit: ok}, err
	})
	if err != nil {
		return nil, false, mapBreakerErr(err)
	}
	r := res.(getResult)
	return r.value, r.hit, nil
}

// Set implements Store.
func (s *BreakerStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.cb.Execute(func() (any, error) {
		return nil, s.next.Set(ctx, key, value, ttl)
	})
	return mapBreakerErr(err)
}

// Invalidate bypasses the breaker. A skipped delete would leave a stale
// view readable once the breaker closes, so every invalidation reaches the
// backend.
func (s *BreakerStore) Invalidate(ctx context.Context, keys ...string) error {
	return s.next.Invalidate(ctx, keys...)
}

// Ping bypasses the breaker so health checks see the real backend state.
func (s *BreakerStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close implements Store.
func (s *BreakerStore) Close() error {
	return s.next.Close()
}

func mapBreakerErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Join(ErrCacheUnavailable, err)
	}
	return err
}
