// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package journal

import (
	"context"
	"fmt"

	"github.com/tomtom215/moodlog/internal/cache"
	"github.com/tomtom215/moodlog/internal/logging"
	"github.com/tomtom215/moodlog/internal/models"
)

// GetEntry returns one of the owner's entries.
func (s *Service) GetEntry(ctx context.Context, ownerID, entryID string) (*models.JournalEntry, error) {
	if ownerID == "" || entryID == "" {
		return nil, fmt.Errorf("%w: owner and entry id are required", ErrInvalidInput)
	}
	key := cache.EntryKey(entryID)

	var entry models.JournalEntry
	if s.cachedRecord(ctx, key, &entry) {
		return checkOwner(&entry, ownerID)
	}

	v, err := s.load(ctx, key, func(loadCtx context.Context) (any, int64, error) {
		e, err := s.store.GetEntry(loadCtx, entryID)
		if err != nil {
			return nil, 0, mapStoreErr(entryID, err)
		}
		return e, e.Version, nil
	})
	if err != nil {
		return nil, err
	}
	return checkOwner(v.(*models.JournalEntry).Clone(), ownerID)
}

// ListEntries returns the owner's entries, newest first.
func (s *Service) ListEntries(ctx context.Context, ownerID string) ([]models.JournalEntry, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	key := cache.UserEntriesKey(ownerID)

	var entries []models.JournalEntry
	if s.cachedRecord(ctx, key, &entries) {
		return entries, nil
	}

	v, err := s.load(ctx, key, func(loadCtx context.Context) (any, int64, error) {
		list, err := s.store.ListEntriesByOwner(loadCtx, ownerID, s.cfg.ListLimit)
		if err != nil {
			return nil, 0, fmt.Errorf("list entries of %s: %w", ownerID, err)
		}
		var maxVersion int64
		for i := range list {
			if list[i].Version > maxVersion {
				maxVersion = list[i].Version
			}
		}
		return list, maxVersion, nil
	})
	if err != nil {
		return nil, err
	}

	shared := v.([]models.JournalEntry)
	out := make([]models.JournalEntry, len(shared))
	for i := range shared {
		out[i] = *shared[i].Clone()
	}
	return out, nil
}

// cachedRecord reports a usable hit decoded into out. Cache errors and
// undecodable records are misses; the latter are also invalidated.
func (s *Service) cachedRecord(ctx context.Context, key string, out any) bool {
	if !s.cacheEnabled() {
		return false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("key", key).Msg("Cache read failed; reading store")
		return false
	}
	if !ok {
		return false
	}
	if _, err := cache.DecodeRecord(data, out); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Dropping undecodable cache record")
		if err := s.cache.Invalidate(ctx, key); err != nil {
			logging.Ctx(ctx).Debug().Err(err).Str("key", key).Msg("Cache invalidation failed")
		}
		return false
	}
	return true
}

type loadFunc func(ctx context.Context) (value any, version int64, err error)

// load runs fn once per key among concurrent callers and populates the
// cache with the result. An invalidation of key forgets the shared call, so
// callers arriving after a write start a fresh read, and the result of a
// read that started before it is not cached. The shared value must not be
// mutated.
func (s *Service) load(ctx context.Context, key string, fn loadFunc) (any, error) {
	ch := s.loads.DoChan(key, func() (any, error) {
		gen := s.cache.Begin(key)
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.LoadTimeout)
		defer cancel()

		v, version, err := fn(loadCtx)
		if err != nil {
			return nil, err
		}
		s.populate(loadCtx, key, gen, version, v)
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) populate(ctx context.Context, key string, gen uint64, version int64, v any) {
	if !s.cacheEnabled() {
		return
	}
	data, err := cache.EncodeRecord(version, v, s.now())
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Failed to encode cache record")
		return
	}
	kept, err := s.cache.SetIfCurrent(ctx, key, gen, data, s.cfg.CacheTTL)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("key", key).Msg("Cache populate failed")
		return
	}
	if !kept {
		logging.Ctx(ctx).Debug().Str("key", key).Msg("Skipped populate; key was invalidated during the load")
	}
}

func checkOwner(entry *models.JournalEntry, ownerID string) (*models.JournalEntry, error) {
	if entry.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: entry %s", ErrPermissionDenied, entry.ID)
	}
	return entry, nil
}
