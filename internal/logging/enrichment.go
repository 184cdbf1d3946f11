// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// EnrichmentLogger writes enrichment worker and sweep records with stable
// field names (entry_id, version, partition, outcome) so dashboards can tell
// an applied label apart from a stale discard or a terminal failure.
type EnrichmentLogger struct {
	logger zerolog.Logger
}

// NewEnrichmentLogger returns a logger tagged component=enrichment.
func NewEnrichmentLogger() *EnrichmentLogger {
	return &EnrichmentLogger{logger: WithComponent("enrichment")}
}

// with prefers a logger carried by ctx, such as the consumer's
// per-partition logger, over the component logger.
func (e *EnrichmentLogger) with(ctx context.Context) *zerolog.Logger {
	l := e.logger
	if cl, ok := storedLogger(ctx); ok {
		l = cl.With().Str("component", "enrichment").Logger()
	}
	if id := CorrelationIDFromContext(ctx); id != "" {
		l = l.With().Str("correlation_id", id).Logger()
	}
	return &l
}

// LogApplied records a label written at the event's version.
func (e *EnrichmentLogger) LogApplied(ctx context.Context, entryID string, version int64, sentiment string, attempts int, took time.Duration) {
	e.with(ctx).Info().
		Str("entry_id", entryID).
		Int64("version", version).
		Str("outcome", "applied").
		Str("sentiment", sentiment).
		Int("attempts", attempts).
		Dur("duration", took).
		Msg("sentiment applied")
}

// LogStale records an event discarded because the entry moved past its version.
func (e *EnrichmentLogger) LogStale(ctx context.Context, entryID string, eventVersion, currentVersion int64) {
	e.with(ctx).Info().
		Str("entry_id", entryID).
		Int64("version", eventVersion).
		Int64("current_version", currentVersion).
		Str("outcome", "stale").
		Msg("stale enrichment event discarded")
}

// LogDuplicate records a redelivered event whose version was already resolved.
func (e *EnrichmentLogger) LogDuplicate(ctx context.Context, entryID string, version int64, sentiment string) {
	e.with(ctx).Debug().
		Str("entry_id", entryID).
		Int64("version", version).
		Str("outcome", "duplicate").
		Str("sentiment", sentiment).
		Msg("enrichment event already resolved")
}

// LogEntryGone records an event for an entry that no longer exists.
func (e *EnrichmentLogger) LogEntryGone(ctx context.Context, entryID string, version int64) {
	e.with(ctx).Warn().
		Str("entry_id", entryID).
		Int64("version", version).
		Str("outcome", "discarded").
		Msg("enrichment event for missing entry discarded")
}

// LogFailed records a version for which classification was exhausted.
func (e *EnrichmentLogger) LogFailed(ctx context.Context, entryID string, version int64, attempts int, err error) {
	e.with(ctx).Error().
		Err(err).
		Str("entry_id", entryID).
		Int64("version", version).
		Str("outcome", "failed").
		Int("attempts", attempts).
		Msg("sentiment classification exhausted")
}

// LogAttemptFailed records one failed classification attempt before a retry.
func (e *EnrichmentLogger) LogAttemptFailed(ctx context.Context, entryID string, attempt int, backoff time.Duration, err error) {
	e.with(ctx).Warn().
		Err(err).
		Str("entry_id", entryID).
		Int("attempt", attempt).
		Dur("backoff", backoff).
		Msg("classification attempt failed")
}

// LogRepublished records a sweep republish of a stalled entry.
func (e *EnrichmentLogger) LogRepublished(ctx context.Context, entryID string, version int64, pendingFor time.Duration) {
	e.with(ctx).Info().
		Str("entry_id", entryID).
		Int64("version", version).
		Dur("pending_for", pendingFor).
		Msg("sweep republished enrichment event")
}

// LogSweepCompleted records one sweep pass.
func (e *EnrichmentLogger) LogSweepCompleted(ctx context.Context, scanned, republished, skipped, failed int, took time.Duration) {
	e.with(ctx).Info().
		Int("scanned", scanned).
		Int("republished", republished).
		Int("skipped_outstanding", skipped).
		Int("failed", failed).
		Dur("duration", took).
		Msg("reconciliation sweep completed")
}
