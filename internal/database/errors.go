// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package database

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/tomtom215/moodlog/internal/logging"
	"github.com/tomtom215/moodlog/internal/models"
)

// closeQuietly closes a resource whose Close error cannot change the
// caller's result. The error is logged.
func closeQuietly(closer io.Closer, what string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Err(err).Str("resource", what).Msg("Failed to close database resource")
	}
}

// isTransactionConflict reports whether err is DuckDB's optimistic
// transaction conflict, raised when two transactions update the same row.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Transaction conflict") ||
		strings.Contains(msg, "Conflict on update") ||
		strings.Contains(msg, "Conflict on tuple deletion")
}

// errorType classifies err for the store_query_errors_total metric.
func errorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrEntryNotFound):
		return "not_found"
	case errors.Is(err, models.ErrVersionConflict):
		return "version_conflict"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "other"
	}
}

const maxConflictRetries = 3

// retryOnConflict re-runs fn while DuckDB reports a transaction conflict.
// The statements passed here are conditional on the entry version, so a
// re-run re-evaluates the version check rather than overwriting blindly.
func retryOnConflict(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err = fn(); !isTransactionConflict(err) {
			return err
		}
		backoff := time.Millisecond * time.Duration(1<<uint(attempt))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
