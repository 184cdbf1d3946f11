// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/tomtom215/moodlog/internal/metrics"
)

// MemoryStore is an in-process Store backed by ristretto. Capacity counts
// keys; each value has cost 1.
type MemoryStore struct {
	cache *ristretto.Cache[string, []byte]
}

// NewMemoryStore creates a store holding at most capacity keys.
func NewMemoryStore(capacity int) (*MemoryStore, error) {
	if capacity <= 0 {
		capacity = 10000
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: int64(capacity) * 10,
		MaxCost:     int64(capacity),
		BufferItems: 64,
		// Cost is a key count; ristretto's per-item overhead would
		// otherwise be added to each cost of 1.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &MemoryStore{cache: c}, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		metrics.RecordCacheRequest("get", "miss")
		return nil, false, nil
	}
	metrics.RecordCacheRequest("get", "hit")
	return v, true, nil
}

// Set implements Store. The write is applied before Set returns so an
// Invalidate issued afterwards cannot be overtaken by a buffered Set.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	s.cache.SetWithTTL(key, cp, 1, ttl)
	s.cache.Wait()
	metrics.RecordCacheRequest("set", "ok")
	return nil
}

// Invalidate implements Store.
func (s *MemoryStore) Invalidate(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.cache.Del(k)
	}
	metrics.RecordCacheRequest("invalidate", "ok")
	return nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.cache.Close()
	return nil
}
