// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

// Package cache provides the read-side cache used by the journal read path.
//
// The cache holds two kinds of derived views:
//
//	entry:{id}               one journal entry
//	userEntries:{ownerId}    the owner's entry list
//
// It is never a source of truth. Writers invalidate both keys after every
// store mutation; readers repopulate on miss with a TTL. Every backend error
// is returned to the caller, which is expected to fall back to the entry
// store. A Breaker-wrapped store stops calling an unreachable backend for
// reads and fills after a run of failures and returns ErrCacheUnavailable
// until its open timeout passes. Invalidations always reach the backend.
//
// Views sits in front of a backend and tags each key with a generation.
// Readers take the generation before a store read and fill only if no
// invalidation happened in between.
//
// Backends:
//   - RedisStore: shared cache over go-redis, used in multi-instance deployments
//   - MemoryStore: in-process ristretto cache for single-instance and tests
package cache
