// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/moodlog/internal/metrics"
	"github.com/tomtom215/moodlog/internal/models"
)

const entryColumns = `id, owner_id, title, content, created_at, updated_at, sentiment, weather, version`

// DefaultListLimit caps ListEntriesByOwner when the caller passes 0.
const DefaultListLimit = 200

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.JournalEntry, error) {
	var (
		e         models.JournalEntry
		sentiment string
		weather   sql.NullString
	)
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Content, &e.CreatedAt, &e.UpdatedAt, &sentiment, &weather, &e.Version); err != nil {
		return nil, err
	}
	e.Sentiment = models.Sentiment(sentiment)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	if weather.Valid && weather.String != "" {
		var w models.WeatherSnapshot
		if err := json.Unmarshal([]byte(weather.String), &w); err != nil {
			return nil, fmt.Errorf("failed to decode weather for entry %s: %w", e.ID, err)
		}
		e.Weather = &w
	}
	return &e, nil
}

func encodeWeather(w *models.WeatherSnapshot) (sql.NullString, error) {
	if w == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(w)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode weather: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// queryContext applies the configured per-query timeout.
func (db *DB) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.cfg != nil && db.cfg.QueryTimeout > 0 {
		return context.WithTimeout(ctx, db.cfg.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

func observe(operation string, start time.Time, err error) {
	metrics.RecordStoreQuery(operation, time.Since(start), errorType(err))
}

// InsertEntry stores a new entry. The caller sets ID, version 1 and PENDING.
func (db *DB) InsertEntry(ctx context.Context, entry *models.JournalEntry) (err error) {
	defer func(start time.Time) { observe("insert_entry", start, err) }(time.Now())

	weather, err := encodeWeather(entry.Weather)
	if err != nil {
		return err
	}

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO journal_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.OwnerID, entry.Title, entry.Content,
		entry.CreatedAt.UTC(), entry.UpdatedAt.UTC(),
		string(entry.Sentiment), weather, entry.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry %s: %w", entry.ID, err)
	}
	return nil
}

// GetEntry returns the current entry or models.ErrEntryNotFound.
func (db *DB) GetEntry(ctx context.Context, id string) (entry *models.JournalEntry, err error) {
	defer func(start time.Time) { observe("get_entry", start, err) }(time.Now())

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	entry, err = scanEntry(db.conn.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %s: %w", id, err)
	}
	return entry, nil
}

// ListEntriesByOwner returns the owner's entries, newest first.
func (db *DB) ListEntriesByOwner(ctx context.Context, ownerID string, limit int) (entries []models.JournalEntry, err error) {
	defer func(start time.Time) { observe("list_entries_by_owner", start, err) }(time.Now())

	if limit <= 0 {
		limit = DefaultListLimit
	}

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM journal_entries
		WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for owner %s: %w", ownerID, err)
	}
	return collectEntries(rows)
}

// UpdateEntryContent replaces title and content if the entry is still at
// expectedVersion. The version is incremented by exactly one and sentiment
// resets to PENDING. Returns models.ErrVersionConflict when the entry moved
// on and models.ErrEntryNotFound when it does not exist.
func (db *DB) UpdateEntryContent(ctx context.Context, id string, expectedVersion int64, title, content string, now time.Time) (entry *models.JournalEntry, err error) {
	defer func(start time.Time) { observe("update_entry_content", start, err) }(time.Now())

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	err = retryOnConflict(ctx, func() error {
		var scanErr error
		entry, scanErr = scanEntry(db.conn.QueryRowContext(ctx,
			`UPDATE journal_entries
			SET title = ?, content = ?, updated_at = ?, sentiment = 'PENDING', version = version + 1
			WHERE id = ? AND version = ?
			RETURNING `+entryColumns,
			title, content, now.UTC(), id, expectedVersion))
		return scanErr
	})
	switch {
	case err == nil:
		return entry, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, db.missOrConflict(ctx, id)
	case isTransactionConflict(err):
		return nil, fmt.Errorf("entry %s: %w", id, models.ErrVersionConflict)
	default:
		return nil, fmt.Errorf("failed to update entry %s: %w", id, err)
	}
}

// SetSentiment writes sentiment if the entry is still PENDING at
// expectedVersion. It returns false, without error, when that condition no
// longer holds. The version is not changed.
func (db *DB) SetSentiment(ctx context.Context, id string, expectedVersion int64, sentiment models.Sentiment) (applied bool, err error) {
	defer func(start time.Time) { observe("set_sentiment", start, err) }(time.Now())

	if !sentiment.IsTerminal() {
		return false, fmt.Errorf("sentiment %q is not a terminal state", sentiment)
	}

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	var affected int64
	err = retryOnConflict(ctx, func() error {
		res, execErr := db.conn.ExecContext(ctx,
			`UPDATE journal_entries SET sentiment = ?
			WHERE id = ? AND version = ? AND sentiment = 'PENDING'`,
			string(sentiment), id, expectedVersion)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return false, fmt.Errorf("failed to set sentiment for entry %s: %w", id, err)
	}
	return affected == 1, nil
}

// ListStalePending returns up to limit PENDING entries whose last content
// write is older than olderThan and that sort after the cursor, ordered by
// (updated_at, id).
func (db *DB) ListStalePending(ctx context.Context, olderThan time.Time, after models.StaleCursor, limit int) (entries []models.JournalEntry, err error) {
	defer func(start time.Time) { observe("list_stale_pending", start, err) }(time.Now())

	if limit <= 0 {
		limit = DefaultListLimit
	}

	ctx, cancel := db.queryContext(ctx)
	defer cancel()

	query := `SELECT ` + entryColumns + ` FROM journal_entries
		WHERE sentiment = 'PENDING' AND updated_at < ?`
	args := []any{olderThan.UTC()}
	if after.ID != "" {
		query += ` AND (updated_at > ? OR (updated_at = ? AND id > ?))`
		at := after.UpdatedAt.UTC()
		args = append(args, at, at, after.ID)
	}
	query += ` ORDER BY updated_at ASC, id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale pending entries: %w", err)
	}
	return collectEntries(rows)
}

// missOrConflict distinguishes a missing entry from a version mismatch
// after a conditional update matched no rows.
func (db *DB) missOrConflict(ctx context.Context, id string) error {
	var version int64
	err := db.conn.QueryRowContext(ctx, `SELECT version FROM journal_entries WHERE id = ?`, id).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.ErrEntryNotFound
	case err != nil:
		return fmt.Errorf("failed to read version of entry %s: %w", id, err)
	default:
		return fmt.Errorf("entry %s is at version %d: %w", id, version, models.ErrVersionConflict)
	}
}

func collectEntries(rows *sql.Rows) ([]models.JournalEntry, error) {
	defer closeQuietly(rows, "rows")

	var entries []models.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}
