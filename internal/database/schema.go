// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package database

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// Only columns that are never updated are indexed. DuckDB rewrites an
// update of an indexed column as delete plus insert, which conflicts with
// concurrent readers of the same row.
var schemaQueries = []string{
	`CREATE TABLE IF NOT EXISTS journal_entries (
		id VARCHAR PRIMARY KEY,
		owner_id VARCHAR NOT NULL,
		title VARCHAR NOT NULL,
		content VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		sentiment VARCHAR NOT NULL DEFAULT 'PENDING',
		weather VARCHAR,
		version BIGINT NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_entries_owner ON journal_entries(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_entries_pending ON journal_entries(sentiment, updated_at)`,
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, q := range schemaQueries {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
