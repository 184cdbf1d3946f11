// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

// Package logging provides the process-wide zerolog logger for Moodlog.
//
// A single global logger is configured once at startup with Init and read
// through the level helpers (Info, Warn, Error, ...). Request and event
// handlers attach a correlation ID to their context and log through Ctx so
// that every line written while serving one journal write or one enrichment
// event can be joined afterwards.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("entry_id", id).Msg("entry created")
//	logging.Ctx(ctx).Warn().Err(err).Msg("publish failed")
//
// Adapters:
//   - NewSlogLogger bridges log/slog consumers (suture, watermill) onto zerolog.
//   - EnrichmentLogger records worker and sweep outcomes with stable field names.
//
// Always terminate an event chain with Msg or Send; an unterminated chain is
// never written.
package logging
