// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

// Package enrichment classifies journal entries and keeps their sentiment
// eventually consistent with their content.
//
// The Worker consumes enrichment events. For each event it re-reads the
// entry and classifies the content only if the entry is still at the event's
// version; the label is written with a conditional update that succeeds only
// while the entry is PENDING at that version. A write that raced a newer
// content update is discarded, never applied, so a label always describes
// the content it was computed from.
//
// Outcomes:
//
//	applied     label written for the event's version
//	failed      classification exhausted; FAILED written for the version
//	stale       entry moved past the event's version
//	duplicate   version already resolved (redelivery)
//	discarded   entry no longer exists
//
// The Sweeper is the safety net for lost events. It periodically lists
// entries that have been PENDING longer than a threshold and republishes an
// event for each one that has no outstanding event in the ledger.
package enrichment
