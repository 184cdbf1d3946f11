// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package enrichment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/moodlog/internal/cache"
	"github.com/tomtom215/moodlog/internal/config"
	"github.com/tomtom215/moodlog/internal/ledger"
	"github.com/tomtom215/moodlog/internal/models"
)

var baseTime = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func pendingEntry(id string, version int64, content string) *models.JournalEntry {
	return &models.JournalEntry{
		ID:        id,
		OwnerID:   "owner-1",
		Title:     "t",
		Content:   content,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
		Sentiment: models.SentimentPending,
		Version:   version,
	}
}

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(config.LedgerConfig{InMemory: true}, time.Minute)
	if err != nil {
		t.Fatalf("ledger.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func newTestCache(t *testing.T) *cache.MemoryStore {
	t.Helper()
	c, err := cache.NewMemoryStore(100)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// scriptedClassifier returns results in order, then repeats the last one.
type scriptedClassifier struct {
	mu      sync.Mutex
	results []classifyResult
	calls   int
	texts   []string
}

type classifyResult struct {
	label models.Sentiment
	err   error
	block bool
}

func (c *scriptedClassifier) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	c.mu.Lock()
	i := c.calls
	if i >= len(c.results) {
		i = len(c.results) - 1
	}
	r := c.results[i]
	c.calls++
	c.texts = append(c.texts, text)
	c.mu.Unlock()

	if r.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return r.label, r.err
}

func (c *scriptedClassifier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func noSleep(context.Context, time.Duration) error { return nil }

func newTestWorker(store EntryStore, c cache.Store, l OutstandingLedger, cl Classifier, retries int) *Worker {
	w := NewWorker(store, c, l, cl, WorkerConfig{
		MaxRetries:      retries,
		RetryBackoff:    time.Millisecond,
		MaxBackoff:      4 * time.Millisecond,
		ClassifyTimeout: 50 * time.Millisecond,
		ClassifierName:  "test",
	})
	w.sleep = noSleep
	return w
}
