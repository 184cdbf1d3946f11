// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheUnavailable is returned when the backend cannot be reached or the
// circuit breaker is open.
var ErrCacheUnavailable = errors.New("cache unavailable")

// Store is a key-value cache with per-key TTL.
type Store interface {
	// Get returns the value and true on a hit, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Invalidate removes keys. Missing keys are not an error.
	Invalidate(ctx context.Context, keys ...string) error

	// Ping checks backend reachability.
	Ping(ctx context.Context) error

	Close() error
}

// EntryKey is the cache key of a single entry view.
func EntryKey(entryID string) string {
	return "entry:" + entryID
}

// UserEntriesKey is the cache key of an owner's entry list view.
func UserEntriesKey(ownerID string) string {
	return "userEntries:" + ownerID
}

// EntryKeys returns both keys affected by a mutation of one entry.
func EntryKeys(entryID, ownerID string) []string {
	return []string{EntryKey(entryID), UserEntriesKey(ownerID)}
}
