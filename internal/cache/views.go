// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// viewStripes is the number of generation counters keys hash onto. Two keys
// sharing a stripe only cost an extra skipped fill.
const viewStripes = 256

// Views wraps a Store with per-key generations so that a fill computed
// before an invalidation never lands after it. Writers and the enrichment
// worker invalidate through the same Views; readers take a generation with
// Begin before loading and fill with SetIfCurrent.
//
// Views holds no lock across backend calls.
type Views struct {
	Store

	gens [viewStripes]atomic.Uint64

	mu      sync.RWMutex
	forgets []func(key string)
}

// NewViews wraps store. A nil store yields a Views that only tracks
// generations.
func NewViews(store Store) *Views {
	return &Views{Store: store}
}

// AsViews returns store itself when it already is a *Views, or wraps it.
func AsViews(store Store) *Views {
	if v, ok := store.(*Views); ok {
		return v
	}
	return NewViews(store)
}

// OnInvalidate registers fn to run for each key before the backend delete.
// Readers use it to drop in-flight shared loads.
func (v *Views) OnInvalidate(fn func(key string)) {
	v.mu.Lock()
	v.forgets = append(v.forgets, fn)
	v.mu.Unlock()
}

func (v *Views) stripe(key string) *atomic.Uint64 {
	return &v.gens[xxhash.Sum64String(key)%viewStripes]
}

// Begin returns the current generation of key.
func (v *Views) Begin(key string) uint64 {
	return v.stripe(key).Load()
}

// Invalidate bumps the generation of every key, runs the registered hooks,
// then removes the keys from the backend.
func (v *Views) Invalidate(ctx context.Context, keys ...string) error {
	v.mu.RLock()
	forgets := v.forgets
	v.mu.RUnlock()
	for _, k := range keys {
		v.stripe(k).Add(1)
		for _, fn := range forgets {
			fn(k)
		}
	}
	if v.Store == nil {
		return nil
	}
	return v.Store.Invalidate(ctx, keys...)
}

// SetIfCurrent stores value only while key is still at generation gen. It
// reports whether the value was kept. If an invalidation races the write,
// the key is deleted again so the older value cannot survive it.
func (v *Views) SetIfCurrent(ctx context.Context, key string, gen uint64, value []byte, ttl time.Duration) (bool, error) {
	if v.Store == nil || v.Begin(key) != gen {
		return false, nil
	}
	if err := v.Store.Set(ctx, key, value, ttl); err != nil {
		return false, err
	}
	if v.Begin(key) != gen {
		return false, v.Store.Invalidate(ctx, key)
	}
	return true, nil
}
