// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package journal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/moodlog/internal/cache"
	"github.com/tomtom215/moodlog/internal/models"
	"github.com/tomtom215/moodlog/internal/testinfra"
)

func TestGetEntryCacheAside(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, "alice", "hello")

	if _, err := f.svc.GetEntry(ctx, "alice", e.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.GetEntry(ctx, "alice", e.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.store.Calls("GetEntry"); got != 1 {
		t.Errorf("store GetEntry calls = %d, want 1 (second read from cache)", got)
	}

	data, ok, _ := f.cache.Get(ctx, cache.EntryKey(e.ID))
	if !ok {
		t.Fatal("entry not cached")
	}
	var cached models.JournalEntry
	rec, err := cache.DecodeRecord(data, &cached)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Version != 1 || cached.ID != e.ID || !rec.CachedAt.Equal(testNow) {
		t.Errorf("record = %+v, entry = %+v", rec, cached)
	}
}

func TestGetEntryOwnerCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, "alice", "private")

	// Once from the store, once from the cache.
	for i := 0; i < 2; i++ {
		if _, err := f.svc.GetEntry(ctx, "mallory", e.ID); !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("read %d: err = %v, want ErrPermissionDenied", i, err)
		}
		if _, err := f.svc.GetEntry(ctx, "alice", e.ID); err != nil {
			t.Fatalf("read %d: owner err = %v", i, err)
		}
	}
}

func TestGetEntryNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetEntry(context.Background(), "alice", "missing")
	if !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("err = %v, want ErrEntryNotFound", err)
	}
	if f.cached(t, cache.EntryKey("missing")) {
		t.Error("miss was cached")
	}
}

func TestGetEntryCacheDownDegrades(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, "alice", "hello")
	f.svc.cache = cache.NewViews(&failingCache{err: cache.ErrCacheUnavailable})

	for i := 0; i < 3; i++ {
		got, err := f.svc.GetEntry(context.Background(), "alice", e.ID)
		if err != nil {
			t.Fatalf("read with cache down: %v", err)
		}
		if got.ID != e.ID {
			t.Errorf("got %+v", got)
		}
	}
	if got := f.store.Calls("GetEntry"); got != 3 {
		t.Errorf("store GetEntry calls = %d, want 3", got)
	}
}

func TestGetEntryThroughOpenBreaker(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, "alice", "hello")
	f.svc.cache = cache.NewViews(cache.NewBreakerStore(&failingCache{err: errors.New("dial tcp: connection refused")}, cache.BreakerConfig{
		Name:             "test",
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
	}))

	for i := 0; i < 3; i++ {
		if _, err := f.svc.GetEntry(context.Background(), "alice", e.ID); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
	}
}

func TestGetEntryUndecodableRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, "alice", "hello")
	_ = f.cache.Set(ctx, cache.EntryKey(e.ID), []byte("{not json"), time.Minute)

	got, err := f.svc.GetEntry(ctx, "alice", e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "hello" {
		t.Errorf("content = %q", got.Content)
	}
	if f.store.Calls("GetEntry") != 1 {
		t.Error("undecodable record was not treated as a miss")
	}

	data, ok, _ := f.cache.Get(ctx, cache.EntryKey(e.ID))
	if !ok {
		t.Fatal("entry not repopulated")
	}
	var repopulated models.JournalEntry
	if _, err := cache.DecodeRecord(data, &repopulated); err != nil {
		t.Errorf("repopulated record undecodable: %v", err)
	}
}

func TestGetEntryReturnsCopies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, "alice", "hello")

	a, _ := f.svc.GetEntry(ctx, "alice", e.ID)
	a.Content = "mutated"
	b, _ := f.svc.GetEntry(ctx, "alice", e.ID)
	if b.Content != "hello" {
		t.Errorf("content = %q, caller mutation leaked", b.Content)
	}
}

// gatedStore blocks GetEntry until release is closed.
type gatedStore struct {
	*testinfra.EntryStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *gatedStore) GetEntry(ctx context.Context, id string) (*models.JournalEntry, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return s.EntryStore.GetEntry(ctx, id)
}

// snapshotGate returns the entry as it was when the first GetEntry began,
// but only after release is closed. Later calls pass through.
type snapshotGate struct {
	*testinfra.EntryStore
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int64
}

func (s *snapshotGate) GetEntry(ctx context.Context, id string) (*models.JournalEntry, error) {
	if s.calls.Add(1) > 1 {
		return s.EntryStore.GetEntry(ctx, id)
	}
	e, err := s.EntryStore.GetEntry(ctx, id)
	close(s.entered)
	<-s.release
	return e, err
}

func TestReadAfterUpdateSkipsInFlightLoad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, "alice", "before")

	gate := &snapshotGate{EntryStore: f.store, entered: make(chan struct{}), release: make(chan struct{})}
	f.svc.store = gate

	slow := make(chan *models.JournalEntry, 1)
	go func() {
		got, err := f.svc.GetEntry(ctx, "alice", e.ID)
		if err != nil {
			t.Error(err)
		}
		slow <- got
	}()
	<-gate.entered

	if _, err := f.svc.CreateOrUpdateEntry(ctx, "alice", EntryInput{EntryID: e.ID, Title: "t", Content: "after"}); err != nil {
		t.Fatal(err)
	}

	// Issued after the update returned, so it must not join the old load.
	got, err := f.svc.GetEntry(ctx, "alice", e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "after" || got.Version != 2 {
		t.Fatalf("read after update = %q@%d, want after@2", got.Content, got.Version)
	}

	close(gate.release)
	if old := <-slow; old.Content != "before" {
		t.Errorf("in-flight read = %q, want before", old.Content)
	}

	for i := 0; i < 2; i++ {
		got, err := f.svc.GetEntry(ctx, "alice", e.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Content != "after" {
			t.Fatalf("read %d after the slow load finished = %q, want after", i, got.Content)
		}
	}
	data, ok, _ := f.cache.Get(ctx, cache.EntryKey(e.ID))
	if ok {
		var cached models.JournalEntry
		if _, err := cache.DecodeRecord(data, &cached); err != nil || cached.Content != "after" {
			t.Errorf("cached view = %q (err %v), want after", cached.Content, err)
		}
	}
}

func TestWorkerInvalidationForgetsInFlightLoad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	views := cache.NewViews(f.cache)
	f.svc = NewService(f.store, views, f.pub, Config{CacheTTL: time.Minute})
	e := f.create(t, "alice", "a day")

	gate := &snapshotGate{EntryStore: f.store, entered: make(chan struct{}), release: make(chan struct{})}
	f.svc.store = gate

	slow := make(chan struct{})
	go func() {
		defer close(slow)
		_, _ = f.svc.GetEntry(ctx, "alice", e.ID)
	}()
	<-gate.entered

	// The worker shares views with the service.
	_, _ = f.store.SetSentiment(ctx, e.ID, 1, models.SentimentPositive)
	if err := views.Invalidate(ctx, cache.EntryKeys(e.ID, "alice")...); err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.GetEntry(ctx, "alice", e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Sentiment != models.SentimentPositive {
		t.Errorf("sentiment = %s, want POSITIVE", got.Sentiment)
	}
	close(gate.release)
	<-slow

	got, _ = f.svc.GetEntry(ctx, "alice", e.ID)
	if got.Sentiment != models.SentimentPositive {
		t.Errorf("sentiment after slow load = %s, want POSITIVE", got.Sentiment)
	}
}

func TestConcurrentMissesShareOneRead(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, "alice", "hello")

	gated := &gatedStore{EntryStore: f.store, entered: make(chan struct{}), release: make(chan struct{})}
	f.svc.store = gated

	const readers = 8
	var wg sync.WaitGroup
	errs := make(chan error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.GetEntry(context.Background(), "alice", e.ID)
			errs <- err
		}()
	}

	<-gated.entered
	// Let the other readers join the in-flight load.
	time.Sleep(50 * time.Millisecond)
	close(gated.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if got := f.store.Calls("GetEntry"); got != 1 {
		t.Errorf("store reads = %d, want 1", got)
	}
}

func TestCanceledReaderDoesNotAbortSharedLoad(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, "alice", "hello")
	gated := &gatedStore{EntryStore: f.store, entered: make(chan struct{}), release: make(chan struct{})}
	f.svc.store = gated

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.svc.GetEntry(ctx, "alice", e.ID)
		done <- err
	}()
	<-gated.entered
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled reader err = %v", err)
	}

	close(gated.release)
	deadline := time.Now().Add(2 * time.Second)
	for !f.cached(t, cache.EntryKey(e.ID)) {
		if time.Now().After(deadline) {
			t.Fatal("shared load did not populate the cache")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestListEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "alice", "a1")
	f.create(t, "alice", "a2")
	f.create(t, "bob", "b1")

	list, err := f.svc.ListEntries(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	for _, e := range list {
		if e.OwnerID != "alice" {
			t.Errorf("foreign entry %+v", e)
		}
	}

	if _, err := f.svc.ListEntries(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	if got := f.store.Calls("ListEntriesByOwner"); got != 1 {
		t.Errorf("store list calls = %d, want 1", got)
	}
}

func TestListEntriesAfterEnrichmentInvalidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, "alice", "a day")
	if _, err := f.svc.ListEntries(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	// What the worker does after a sentiment write.
	_, _ = f.store.SetSentiment(ctx, e.ID, 1, models.SentimentPositive)
	_ = f.cache.Invalidate(ctx, cache.EntryKeys(e.ID, "alice")...)

	list, err := f.svc.ListEntries(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if list[0].Sentiment != models.SentimentPositive {
		t.Errorf("sentiment = %s, want POSITIVE", list[0].Sentiment)
	}
}

func TestListEntriesStoreError(t *testing.T) {
	f := newFixture(t)
	f.store.FailNext("ListEntriesByOwner", errors.New("database is locked"))
	if _, err := f.svc.ListEntries(context.Background(), "alice"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := f.svc.ListEntries(context.Background(), ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty owner err = %v", err)
	}
}
