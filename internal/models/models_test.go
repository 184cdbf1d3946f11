// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package models

import (
	"errors"
	"testing"
	"time"
)

func TestSentimentStates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		s        Sentiment
		valid    bool
		label    bool
		terminal bool
	}{
		{SentimentPending, true, false, false},
		{SentimentPositive, true, true, true},
		{SentimentNegative, true, true, true},
		{SentimentNeutral, true, true, true},
		{SentimentFailed, true, false, true},
		{Sentiment("HAPPY"), false, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.s), func(t *testing.T) {
			if got := tt.s.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.s.IsLabel(); got != tt.label {
				t.Errorf("IsLabel() = %v, want %v", got, tt.label)
			}
			if got := tt.s.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestParseSentiment(t *testing.T) {
	t.Parallel()

	got, err := ParseSentiment(" positive\n")
	if err != nil || got != SentimentPositive {
		t.Fatalf("ParseSentiment = %q, %v", got, err)
	}
	if _, err := ParseSentiment("ecstatic"); err == nil {
		t.Error("expected error for unknown label")
	}
}

func TestNewEnrichmentEvent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	entry := &JournalEntry{ID: "e-1", OwnerID: "u-1", Content: "Today was wonderful", Version: 4}

	ev := NewEnrichmentEvent(entry, now)
	if ev.EntryID != "e-1" || ev.OwnerID != "u-1" || ev.Version != 4 {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.ContentSnapshot != "Today was wonderful" {
		t.Errorf("ContentSnapshot = %q", ev.ContentSnapshot)
	}
	if ev.PublishedAt.Location() != time.UTC {
		t.Error("PublishedAt should be UTC")
	}
	if err := ev.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestEnrichmentEventValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ev   EnrichmentEvent
		want error
	}{
		{"missing entry", EnrichmentEvent{OwnerID: "u", Version: 1}, ErrEventMissingEntryID},
		{"missing owner", EnrichmentEvent{EntryID: "e", Version: 1}, ErrEventMissingOwnerID},
		{"zero version", EnrichmentEvent{EntryID: "e", OwnerID: "u"}, ErrEventInvalidVersion},
		{"ok", EnrichmentEvent{EntryID: "e", OwnerID: "u", Version: 1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.ev.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestJournalEntryClone(t *testing.T) {
	t.Parallel()

	orig := &JournalEntry{ID: "e", Weather: &WeatherSnapshot{Condition: "rain"}}
	c := orig.Clone()
	c.Weather.Condition = "sun"
	if orig.Weather.Condition != "rain" {
		t.Error("Clone shares the weather snapshot")
	}
	var nilEntry *JournalEntry
	if nilEntry.Clone() != nil {
		t.Error("nil Clone should be nil")
	}
}

func TestStaleCursorAfter(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	cur := CursorAt(&JournalEntry{ID: "m", UpdatedAt: at})

	tests := []struct {
		name string
		e    JournalEntry
		want bool
	}{
		{"later", JournalEntry{ID: "a", UpdatedAt: at.Add(time.Second)}, true},
		{"earlier", JournalEntry{ID: "z", UpdatedAt: at.Add(-time.Second)}, false},
		{"same time higher id", JournalEntry{ID: "n", UpdatedAt: at}, true},
		{"same time lower id", JournalEntry{ID: "l", UpdatedAt: at}, false},
		{"itself", JournalEntry{ID: "m", UpdatedAt: at}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cur.After(&tt.e); got != tt.want {
				t.Errorf("After() = %v, want %v", got, tt.want)
			}
		})
	}
	if !(StaleCursor{}).After(&JournalEntry{ID: "a", UpdatedAt: at}) {
		t.Error("zero cursor must admit every entry")
	}
}
