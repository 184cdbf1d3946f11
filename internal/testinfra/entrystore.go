// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package testinfra

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/moodlog/internal/models"
)

// EntryStore is an in-memory entry store with the same conditional-write
// semantics as the database package.
type EntryStore struct {
	mu      sync.Mutex
	entries map[string]*models.JournalEntry
	faults  map[string][]error
	calls   map[string]int

	// BeforeSetSentiment runs inside SetSentiment before the condition is
	// checked, without the store lock held. Tests use it to interleave a
	// concurrent content update.
	BeforeSetSentiment func(id string, expectedVersion int64)
}

// NewEntryStore creates an empty store.
func NewEntryStore() *EntryStore {
	return &EntryStore{
		entries: make(map[string]*models.JournalEntry),
		faults:  make(map[string][]error),
		calls:   make(map[string]int),
	}
}

// FailNext makes the next call to op return err. Calls queue in order.
func (s *EntryStore) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = append(s.faults[op], err)
}

// Calls returns how many times op was called.
func (s *EntryStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// enter counts the call and pops a queued fault. Caller holds s.mu.
func (s *EntryStore) enter(op string) error {
	s.calls[op]++
	if q := s.faults[op]; len(q) > 0 {
		s.faults[op] = q[1:]
		return q[0]
	}
	return nil
}

// Put stores entry as-is, bypassing all conditions.
func (s *EntryStore) Put(entry *models.JournalEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry.Clone()
}

// Delete removes an entry.
func (s *EntryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// InsertEntry stores a new entry.
func (s *EntryStore) InsertEntry(ctx context.Context, entry *models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertEntry"); err != nil {
		return err
	}
	if _, ok := s.entries[entry.ID]; ok {
		return fmt.Errorf("entry %s already exists", entry.ID)
	}
	s.entries[entry.ID] = entry.Clone()
	return nil
}

// GetEntry returns a copy of the entry or models.ErrEntryNotFound.
func (s *EntryStore) GetEntry(ctx context.Context, id string) (*models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetEntry"); err != nil {
		return nil, err
	}
	e, ok := s.entries[id]
	if !ok {
		return nil, models.ErrEntryNotFound
	}
	return e.Clone(), nil
}

// ListEntriesByOwner returns the owner's entries, newest first.
func (s *EntryStore) ListEntriesByOwner(ctx context.Context, ownerID string, limit int) ([]models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListEntriesByOwner"); err != nil {
		return nil, err
	}

	var out []models.JournalEntry
	for _, e := range s.entries {
		if e.OwnerID == ownerID {
			out = append(out, *e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpdateEntryContent applies a content update conditioned on expectedVersion.
func (s *EntryStore) UpdateEntryContent(ctx context.Context, id string, expectedVersion int64, title, content string, now time.Time) (*models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateEntryContent"); err != nil {
		return nil, err
	}
	e, ok := s.entries[id]
	if !ok {
		return nil, models.ErrEntryNotFound
	}
	if e.Version != expectedVersion {
		return nil, fmt.Errorf("entry %s is at version %d: %w", id, e.Version, models.ErrVersionConflict)
	}
	e.Title = title
	e.Content = content
	e.UpdatedAt = now.UTC()
	e.Sentiment = models.SentimentPending
	e.Version++
	return e.Clone(), nil
}

// SetSentiment writes sentiment if the entry is PENDING at expectedVersion.
func (s *EntryStore) SetSentiment(ctx context.Context, id string, expectedVersion int64, sentiment models.Sentiment) (bool, error) {
	if hook := s.BeforeSetSentiment; hook != nil {
		hook(id, expectedVersion)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SetSentiment"); err != nil {
		return false, err
	}
	if !sentiment.IsTerminal() {
		return false, fmt.Errorf("sentiment %q is not a terminal state", sentiment)
	}
	e, ok := s.entries[id]
	if !ok || e.Version != expectedVersion || e.Sentiment != models.SentimentPending {
		return false, nil
	}
	e.Sentiment = sentiment
	return true, nil
}

// ListStalePending returns PENDING entries updated before olderThan that
// sort after the cursor, ordered by (UpdatedAt, ID).
func (s *EntryStore) ListStalePending(ctx context.Context, olderThan time.Time, after models.StaleCursor, limit int) ([]models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListStalePending"); err != nil {
		return nil, err
	}

	var out []models.JournalEntry
	for _, e := range s.entries {
		if e.Sentiment == models.SentimentPending && e.UpdatedAt.Before(olderThan) && after.After(e) {
			out = append(out, *e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
