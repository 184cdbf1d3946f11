// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

// Package models defines the domain types shared by the entry store, the
// enrichment channel and the read/write coordinators.
//
// JournalEntry.Version is the single authority for freshness. Content writes
// increment it by exactly one; the enrichment worker writes Sentiment
// conditioned on it and never changes it. EnrichmentEvent carries the
// version the event was published for so the worker can recognize events
// that a newer write already superseded.
package models
