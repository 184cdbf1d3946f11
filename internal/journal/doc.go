// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

// Package journal implements the write and read path coordinators for
// journal entries.
//
// Writes go to the entry store first. A successful write invalidates the
// entry:{id} and userEntries:{ownerId} cache keys before returning, then
// publishes one enrichment event for the new version. Publishing is best
// effort: a failed publish leaves the entry PENDING for the reconciliation
// sweep and never fails the write.
//
// Reads are cache-aside. A miss reads the store and populates the cache
// with the configured TTL; concurrent misses on one key share a single
// store read. Any cache failure degrades to a direct store read.
//
// The caller's owner ID is trusted; authentication happens upstream.
package journal
