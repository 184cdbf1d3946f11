// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/moodlog/internal/cache"
	"github.com/tomtom215/moodlog/internal/eventprocessor"
	"github.com/tomtom215/moodlog/internal/models"
)

// EntryStore is the part of the entry store the coordinators need.
type EntryStore interface {
	InsertEntry(ctx context.Context, entry *models.JournalEntry) error
	GetEntry(ctx context.Context, id string) (*models.JournalEntry, error)
	ListEntriesByOwner(ctx context.Context, ownerID string, limit int) ([]models.JournalEntry, error)
	UpdateEntryContent(ctx context.Context, id string, expectedVersion int64, title, content string, now time.Time) (*models.JournalEntry, error)
}

// Config configures a Service.
type Config struct {
	// CacheTTL bounds how long a cached view is served.
	CacheTTL time.Duration

	// ListLimit caps ListEntries results.
	ListLimit int

	// LoadTimeout bounds a shared store read on a cache miss. The read is
	// detached from any single caller's cancellation.
	LoadTimeout time.Duration
}

// Service coordinates entry writes and reads across the store, cache and
// enrichment channel.
type Service struct {
	store     EntryStore
	cache     *cache.Views
	publisher eventprocessor.EventPublisher
	cfg       Config
	loads     singleflight.Group

	now   func() time.Time
	newID func() string
}

// NewService creates a service. cache and publisher may be nil. When cache
// is a *cache.Views shared with the enrichment worker, the worker's
// invalidations also fence this service's in-flight loads.
func NewService(store EntryStore, c cache.Store, publisher eventprocessor.EventPublisher, cfg Config) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 200
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 10 * time.Second
	}
	s := &Service{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if c != nil {
		s.cache = cache.AsViews(c)
	} else {
		s.cache = cache.NewViews(nil)
	}
	s.cache.OnInvalidate(s.loads.Forget)
	return s
}

func (s *Service) cacheEnabled() bool {
	return s.cache.Store != nil
}
