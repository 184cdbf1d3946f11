// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

// Package database implements the DuckDB entry store.
//
// The store is the only authority for an entry's sentiment and version. All
// mutations are single conditional statements: a write names the version it
// expects and the statement only matches when that version is still current.
// No in-process lock table exists; two concurrent writers that read the same
// version cannot both succeed.
//
//	db, err := database.New(&cfg.Database)
//	entry, err := db.UpdateEntryContent(ctx, id, 3, title, content, time.Now())
//	if errors.Is(err, models.ErrVersionConflict) {
//	    // caller re-reads and decides whether to retry
//	}
package database
