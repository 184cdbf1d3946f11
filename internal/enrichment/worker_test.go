// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package enrichment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/moodlog/internal/cache"
	"github.com/tomtom215/moodlog/internal/models"
	"github.com/tomtom215/moodlog/internal/testinfra"
)

func TestWorkerAppliesLabel(t *testing.T) {
	store := testinfra.NewEntryStore()
	store.Put(pendingEntry("e1", 1, "a happy day"))
	c := newTestCache(t)
	l := newTestLedger(t)
	ctx := context.Background()

	// Seed both views so invalidation is observable.
	_ = c.Set(ctx, cache.EntryKey("e1"), []byte("stale"), time.Minute)
	_ = c.Set(ctx, cache.UserEntriesKey("owner-1"), []byte("stale"), time.Minute)
	_ = l.Record(ctx, "e1", 1)

	w := newTestWorker(store, c, l, NewLexiconClassifier(), 3)
	outcome, err := w.Handle(ctx, models.NewEnrichmentEvent(pendingEntry("e1", 1, "a happy day"), baseTime))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if outcome != OutcomeApplied {
		t.Errorf("outcome = %s, want applied", outcome)
	}

	got, _ := store.GetEntry(ctx, "e1")
	if got.Sentiment != models.SentimentPositive || got.Version != 1 {
		t.Errorf("entry = %s@%d, want POSITIVE@1", got.Sentiment, got.Version)
	}
	for _, key := range cache.EntryKeys("e1", "owner-1") {
		if _, ok, _ := c.Get(ctx, key); ok {
			t.Errorf("%s still cached", key)
		}
	}
	if ok, _ := l.IsOutstanding(ctx, "e1", 1); ok {
		t.Error("ledger record not resolved")
	}
}

func TestWorkerClassifiesStoredContent(t *testing.T) {
	store := testinfra.NewEntryStore()
	store.Put(pendingEntry("e1", 2, "stored content"))
	cl := &scriptedClassifier{results: []classifyResult{{label: models.SentimentNeutral}}}

	event := models.NewEnrichmentEvent(pendingEntry("e1", 2, "snapshot content"), baseTime)
	if _, err := newTestWorker(store, nil, nil, cl, 1).Handle(context.Background(), event); err != nil {
		t.Fatal(err)
	}
	if cl.texts[0] != "stored content" {
		t.Errorf("classified %q, want stored content", cl.texts[0])
	}
}

func TestWorkerStaleEvent(t *testing.T) {
	store := testinfra.NewEntryStore()
	store.Put(pendingEntry("e1", 3, "newer"))
	cl := &scriptedClassifier{results: []classifyResult{{label: models.SentimentPositive}}}
	l := newTestLedger(t)
	ctx := context.Background()
	_ = l.Record(ctx, "e1", 2)

	outcome, err := newTestWorker(store, nil, l, cl, 3).Handle(ctx, models.NewEnrichmentEvent(pendingEntry("e1", 2, "older"), baseTime))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeStale {
		t.Errorf("outcome = %s, want stale", outcome)
	}
	if cl.callCount() != 0 {
		t.Error("stale event must not be classified")
	}
	if got, _ := store.GetEntry(ctx, "e1"); got.Sentiment != models.SentimentPending {
		t.Errorf("sentiment = %s, want PENDING", got.Sentiment)
	}
	if ok, _ := l.IsOutstanding(ctx, "e1", 2); ok {
		t.Error("stale event's ledger record not resolved")
	}
}

func TestWorkerDuplicateDelivery(t *testing.T) {
	store := testinfra.NewEntryStore()
	e := pendingEntry("e1", 1, "x")
	e.Sentiment = models.SentimentNegative
	store.Put(e)
	cl := &scriptedClassifier{results: []classifyResult{{label: models.SentimentPositive}}}

	outcome, err := newTestWorker(store, nil, nil, cl, 3).Handle(context.Background(), models.NewEnrichmentEvent(e, baseTime))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeDuplicate {
		t.Errorf("outcome = %s, want duplicate", outcome)
	}
	if cl.callCount() != 0 || store.Calls("SetSentiment") != 0 {
		t.Error("duplicate must be a no-op")
	}
}

func TestWorkerEntryGone(t *testing.T) {
	store := testinfra.NewEntryStore()
	outcome, err := newTestWorker(store, nil, nil, NewLexiconClassifier(), 3).
		Handle(context.Background(), models.NewEnrichmentEvent(pendingEntry("gone", 1, "x"), baseTime))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeDiscarded {
		t.Errorf("outcome = %s, want discarded", outcome)
	}
}

func TestWorkerRetriesThenApplies(t *testing.T) {
	store := testinfra.NewEntryStore()
	store.Put(pendingEntry("e1", 1, "x"))
	cl := &scriptedClassifier{results: []classifyResult{
		{err: errors.New("upstream 503")},
		{err: errors.New("upstream 503")},
		{label: models.SentimentNeutral},
	}}

	outcome, err := newTestWorker(store, nil, nil, cl, 3).Handle(context.Background(), models.NewEnrichmentEvent(pendingEntry("e1", 1, "x"), baseTime))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeApplied || cl.callCount() != 3 {
		t.Errorf("outcome = %s after %d calls, want applied after 3", outcome, cl.callCount())
	}
}

func TestWorkerExhaustedWritesFailed(t *testing.T) {
	store := testinfra.NewEntryStore()
	store.Put(pendingEntry("e1", 1, "x"))
	cl := &scriptedClassifier{results: []classifyResult{{err: errors.New("model unavailable")}}}

	outcome, err := newTestWorker(store, nil, nil, cl, 3).Handle(context.Background(), models.NewEnrichmentEvent(pendingEntry("e1", 1, "x"), baseTime))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeFailed {
		t.Errorf("outcome = %s, want failed", outcome)
	}
	if cl.callCount() != 3 {
		t.Errorf("attempts = %d, want 3", cl.callCount())
	}
	got, _ := store.GetEntry(context.Background(), "e1")
	if got.Sentiment != models.SentimentFailed || got.Version != 1 {
		t.Errorf("entry = %s@%d, want FAILED@1", got.Sentiment, got.Version)
	}
}

func TestWorkerTimeoutCountsAsFailure(t *testing.T) {
	store := testinfra.NewEntryStore()
	store.Put(pendingEntry("e1", 1, "x"))
	cl := &scriptedClassifier{results: []classifyResult{{block: true}, {label: models.SentimentPositive}}}

	outcome, err := newTestWorker(store, nil, nil, cl, 2).Handle(context.Background(), models.NewEnrichmentEvent(pendingEntry("e1", 1, "x"), baseTime))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeApplied || cl.callCount() != 2 {
		t.Errorf("outcome = %s after %d calls, want applied after a timed-out attempt", outcome, cl.callCount())
	}
}

func TestWorkerInvalidLabelCountsAsFailure(t *testing.T) {
	store := testinfra.NewEntryStore()
	store.Put(pendingEntry("e1", 1, "x"))
	cl := &scriptedClassifier{results: []classifyResult{{label: models.SentimentPending}}}

	outcome, err := newTestWorker(store, nil, nil, cl, 2).Handle(context.Background(), models.NewEnrichmentEvent(pendingEntry("e1", 1, "x"), baseTime))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeFailed {
		t.Errorf("outcome = %s, want failed", outcome)
	}
}

func TestWorkerLosesRaceToUpdate(t *testing.T) {
	store := testinfra.NewEntryStore()
	store.Put(pendingEntry("e1", 1, "old content"))
	store.BeforeSetSentiment = func(id string, _ int64) {
		store.BeforeSetSentiment = nil
		_, _ = store.UpdateEntryContent(context.Background(), id, 1, "t", "new content", baseTime.Add(time.Minute))
	}

	outcome, err := newTestWorker(store, nil, nil, NewLexiconClassifier(), 3).
		Handle(context.Background(), models.NewEnrichmentEvent(pendingEntry("e1", 1, "old content"), baseTime))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeStale {
		t.Errorf("outcome = %s, want stale", outcome)
	}
	got, _ := store.GetEntry(context.Background(), "e1")
	if got.Version != 2 || got.Sentiment != models.SentimentPending {
		t.Errorf("entry = %s@%d, want PENDING@2", got.Sentiment, got.Version)
	}
}

func TestWorkerTransientStoreErrorRedelivers(t *testing.T) {
	store := testinfra.NewEntryStore()
	store.Put(pendingEntry("e1", 1, "x"))
	ctx := context.Background()
	w := newTestWorker(store, nil, nil, NewLexiconClassifier(), 3)
	event := models.NewEnrichmentEvent(pendingEntry("e1", 1, "x"), baseTime)

	store.FailNext("GetEntry", errors.New("database is locked"))
	if err := w.HandleEvent(ctx, event); err == nil {
		t.Fatal("expected error on read failure")
	}

	store.FailNext("SetSentiment", errors.New("database is locked"))
	if err := w.HandleEvent(ctx, event); err == nil {
		t.Fatal("expected error on write failure")
	}

	if err := w.HandleEvent(ctx, event); err != nil {
		t.Fatalf("redelivery error = %v", err)
	}
	got, _ := store.GetEntry(ctx, "e1")
	if !got.Sentiment.IsLabel() {
		t.Errorf("sentiment = %s after redelivery", got.Sentiment)
	}
}

func TestWorkerCanceledContextIsNotExhaustion(t *testing.T) {
	store := testinfra.NewEntryStore()
	store.Put(pendingEntry("e1", 1, "x"))
	cl := &scriptedClassifier{results: []classifyResult{{block: true}}}
	w := newTestWorker(store, nil, nil, cl, 3)
	w.cfg.ClassifyTimeout = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	if _, err := w.Handle(ctx, models.NewEnrichmentEvent(pendingEntry("e1", 1, "x"), baseTime)); err == nil {
		t.Fatal("expected error when the handler is canceled")
	}
	got, _ := store.GetEntry(context.Background(), "e1")
	if got.Sentiment != models.SentimentPending {
		t.Errorf("sentiment = %s, want PENDING", got.Sentiment)
	}
}

func TestWorkerDeliveryDeadlineIsExhaustion(t *testing.T) {
	store := testinfra.NewEntryStore()
	store.Put(pendingEntry("e1", 1, "x"))
	c := newTestCache(t)
	cl := &scriptedClassifier{results: []classifyResult{{block: true}}}
	w := newTestWorker(store, c, nil, cl, 3)
	event := models.NewEnrichmentEvent(pendingEntry("e1", 1, "x"), baseTime)

	// Three 50ms attempts cannot fit a 120ms delivery.
	for delivery := 1; delivery <= 3; delivery++ {
		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
		outcome, err := w.Handle(ctx, event)
		cancel()
		if err != nil {
			t.Fatalf("delivery %d: error = %v, want a durable outcome", delivery, err)
		}
		want := OutcomeFailed
		if delivery > 1 {
			want = OutcomeDuplicate
		}
		if outcome != want {
			t.Errorf("delivery %d: outcome = %s, want %s", delivery, outcome, want)
		}
	}

	got, _ := store.GetEntry(context.Background(), "e1")
	if got.Sentiment != models.SentimentFailed || got.Version != 1 {
		t.Errorf("entry = %s@%d, want FAILED@1", got.Sentiment, got.Version)
	}
	if n := cl.callCount(); n > 3 {
		t.Errorf("classify calls = %d, want at most 3 across deliveries", n)
	}
}

func TestWorkerCacheFailureDoesNotFailEvent(t *testing.T) {
	store := testinfra.NewEntryStore()
	store.Put(pendingEntry("e1", 1, "x"))
	broken := cache.NewBreakerStore(downCache{}, cache.BreakerConfig{FailureThreshold: 1})

	outcome, err := newTestWorker(store, broken, nil, NewLexiconClassifier(), 3).
		Handle(context.Background(), models.NewEnrichmentEvent(pendingEntry("e1", 1, "x"), baseTime))
	if err != nil || outcome != OutcomeApplied {
		t.Errorf("Handle() = (%s, %v), want applied", outcome, err)
	}
}

// downCache fails every operation.
type downCache struct{}

func (downCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, cache.ErrCacheUnavailable
}
func (downCache) Set(context.Context, string, []byte, time.Duration) error {
	return cache.ErrCacheUnavailable
}
func (downCache) Invalidate(context.Context, ...string) error { return cache.ErrCacheUnavailable }
func (downCache) Ping(context.Context) error                  { return cache.ErrCacheUnavailable }
func (downCache) Close() error                                { return nil }
