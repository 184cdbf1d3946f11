// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package cache

import (
	"fmt"

	"github.com/tomtom215/moodlog/internal/config"
)

// New builds the configured backend wrapped in a circuit breaker.
func New(cfg config.CacheConfig) (Store, error) {
	var backend Store
	switch cfg.Backend {
	case "redis":
		client := NewRedisClient(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Timeout:  cfg.OperationTimeout,
		})
		backend = NewRedisStore(client, cfg.OperationTimeout)
	case "memory":
		mem, err := NewMemoryStore(cfg.Capacity)
		if err != nil {
			return nil, err
		}
		backend = mem
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}

	return NewBreakerStore(backend, BreakerConfig{
		Name:             "cache-" + cfg.Backend,
		FailureThreshold: cfg.BreakerFailures,
		OpenTimeout:      cfg.BreakerOpenTimeout,
	}), nil
}
