// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package journal

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/moodlog/internal/cache"
	"github.com/tomtom215/moodlog/internal/models"
	"github.com/tomtom215/moodlog/internal/testinfra"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store *testinfra.EntryStore
	cache *cache.MemoryStore
	pub   *testinfra.RecordingPublisher
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c, err := cache.NewMemoryStore(1000)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	f := &fixture{
		store: testinfra.NewEntryStore(),
		cache: c,
		pub:   &testinfra.RecordingPublisher{},
	}
	f.svc = NewService(f.store, c, f.pub, Config{CacheTTL: time.Minute})

	var seq atomic.Int64
	f.svc.now = func() time.Time { return testNow }
	f.svc.newID = func() string { return fmt.Sprintf("entry-%d", seq.Add(1)) }
	return f
}

func (f *fixture) create(t *testing.T, owner, content string) *models.JournalEntry {
	t.Helper()
	e, err := f.svc.CreateOrUpdateEntry(context.Background(), owner, EntryInput{Title: "t", Content: content})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return e
}

func (f *fixture) cached(t *testing.T, key string) bool {
	t.Helper()
	_, ok, err := f.cache.Get(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	return ok
}

// failingCache returns err from every call.
type failingCache struct {
	err   error
	calls atomic.Int64
}

func (c *failingCache) Get(context.Context, string) ([]byte, bool, error) {
	c.calls.Add(1)
	return nil, false, c.err
}

func (c *failingCache) Set(context.Context, string, []byte, time.Duration) error {
	c.calls.Add(1)
	return c.err
}

func (c *failingCache) Invalidate(context.Context, ...string) error {
	c.calls.Add(1)
	return c.err
}

func (c *failingCache) Ping(context.Context) error { return c.err }
func (c *failingCache) Close() error               { return nil }
