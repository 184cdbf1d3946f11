// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/moodlog/internal/cache"
	"github.com/tomtom215/moodlog/internal/logging"
	"github.com/tomtom215/moodlog/internal/metrics"
	"github.com/tomtom215/moodlog/internal/models"
	"github.com/tomtom215/moodlog/internal/validation"
)

// EntryInput is a create or update request. An empty EntryID creates a new
// entry.
type EntryInput struct {
	EntryID string `json:"entry_id" validate:"omitempty,max=64"`

	// ExpectedVersion is the version the caller last observed. Zero means
	// the version read while checking ownership.
	ExpectedVersion int64 `json:"expected_version" validate:"gte=0"`

	Title   string `json:"title" validate:"max=200"`
	Content string `json:"content" validate:"notblank,max=20000"`

	// Weather is kept on create and ignored on update.
	Weather *models.WeatherSnapshot `json:"weather,omitempty" validate:"omitempty"`
}

// CreateOrUpdateEntry persists the entry, invalidates its cached views and
// publishes an enrichment event for the new version.
func (s *Service) CreateOrUpdateEntry(ctx context.Context, ownerID string, in EntryInput) (*models.JournalEntry, error) {
	kind := "update"
	if in.EntryID == "" {
		kind = "create"
	}

	if ownerID == "" {
		metrics.RecordEntryWrite(kind, "invalid")
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	if verr := validation.ValidateStruct(&in); verr != nil {
		metrics.RecordEntryWrite(kind, "invalid")
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, verr)
	}

	var (
		entry *models.JournalEntry
		err   error
	)
	if kind == "create" {
		entry, err = s.create(ctx, ownerID, in)
	} else {
		entry, err = s.update(ctx, ownerID, in)
	}
	if err != nil {
		metrics.RecordEntryWrite(kind, writeResult(err))
		return nil, err
	}
	metrics.RecordEntryWrite(kind, "ok")

	s.invalidate(ctx, entry)
	s.publish(ctx, entry)

	logging.Ctx(ctx).Debug().
		Str("entry_id", entry.ID).
		Str("owner_id", entry.OwnerID).
		Int64("version", entry.Version).
		Str("kind", kind).
		Msg("Entry written")

	return entry, nil
}

func (s *Service) create(ctx context.Context, ownerID string, in EntryInput) (*models.JournalEntry, error) {
	now := s.now().UTC()
	entry := &models.JournalEntry{
		ID:        s.newID(),
		OwnerID:   ownerID,
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
		Sentiment: models.SentimentPending,
		Version:   1,
	}
	if in.Weather != nil {
		w := *in.Weather
		entry.Weather = &w
	}

	if err := s.store.InsertEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	return entry, nil
}

func (s *Service) update(ctx context.Context, ownerID string, in EntryInput) (*models.JournalEntry, error) {
	current, err := s.store.GetEntry(ctx, in.EntryID)
	if err != nil {
		return nil, mapStoreErr(in.EntryID, err)
	}
	if current.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: entry %s", ErrPermissionDenied, in.EntryID)
	}

	expected := in.ExpectedVersion
	if expected == 0 {
		expected = current.Version
	}
	if expected != current.Version {
		return nil, fmt.Errorf("%w: entry %s is at version %d, caller observed %d",
			ErrConcurrentModification, in.EntryID, current.Version, expected)
	}

	updated, err := s.store.UpdateEntryContent(ctx, in.EntryID, expected, in.Title, in.Content, s.now())
	if err != nil {
		return nil, mapStoreErr(in.EntryID, err)
	}
	return updated, nil
}

// invalidate drops both cached views of entry. A failure is logged; the
// views then expire with the cache TTL.
func (s *Service) invalidate(ctx context.Context, entry *models.JournalEntry) {
	if err := s.cache.Invalidate(ctx, cache.EntryKeys(entry.ID, entry.OwnerID)...); err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("entry_id", entry.ID).
			Msg("Cache invalidation after write failed; views expire with TTL")
	}
}

// publish sends the enrichment event. Failures leave the entry PENDING for
// the reconciliation sweep.
func (s *Service) publish(ctx context.Context, entry *models.JournalEntry) {
	if s.publisher == nil {
		return
	}
	event := models.NewEnrichmentEvent(entry, s.now())
	if err := s.publisher.PublishEnrichment(ctx, event); err != nil {
		logging.Ctx(ctx).Warn().
			Err(fmt.Errorf("%w: %w", ErrPublishFailure, err)).
			Str("entry_id", entry.ID).
			Int64("version", entry.Version).
			Msg("PublishFailure: entry stays PENDING until the next sweep")
	}
}

func mapStoreErr(id string, err error) error {
	switch {
	case errors.Is(err, models.ErrEntryNotFound):
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	case errors.Is(err, models.ErrVersionConflict):
		return fmt.Errorf("%w: %w", ErrConcurrentModification, err)
	default:
		return fmt.Errorf("entry %s: %w", id, err)
	}
}

func writeResult(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrConcurrentModification):
		return "concurrent_modification"
	case errors.Is(err, ErrEntryNotFound):
		return "not_found"
	default:
		return "error"
	}
}
