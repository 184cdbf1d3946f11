// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package models

import (
	"errors"
	"time"
)

// EnrichmentEvent asks the worker to classify an entry's content as of a
// specific version. Events are immutable once published and may be
// delivered more than once.
type EnrichmentEvent struct {
	EntryID         string    `json:"entryId"`
	OwnerID         string    `json:"ownerId"`
	Version         int64     `json:"version"`
	ContentSnapshot string    `json:"contentSnapshot"`
	PublishedAt     time.Time `json:"publishedAt"`
}

// Event validation errors.
var (
	ErrEventMissingEntryID = errors.New("enrichment event: entryId is required")
	ErrEventMissingOwnerID = errors.New("enrichment event: ownerId is required")
	ErrEventInvalidVersion = errors.New("enrichment event: version must be positive")
)

// NewEnrichmentEvent snapshots entry for publication.
func NewEnrichmentEvent(entry *JournalEntry, now time.Time) *EnrichmentEvent {
	return &EnrichmentEvent{
		EntryID:         entry.ID,
		OwnerID:         entry.OwnerID,
		Version:         entry.Version,
		ContentSnapshot: entry.Content,
		PublishedAt:     now.UTC(),
	}
}

// Validate checks the fields the worker depends on.
func (e *EnrichmentEvent) Validate() error {
	switch {
	case e.EntryID == "":
		return ErrEventMissingEntryID
	case e.OwnerID == "":
		return ErrEventMissingOwnerID
	case e.Version < 1:
		return ErrEventInvalidVersion
	}
	return nil
}
