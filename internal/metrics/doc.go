// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

// Package metrics exposes Prometheus instrumentation for the enrichment
// pipeline. Collectors are registered with the default registry through
// promauto; callers use the Record* helpers rather than touching collectors.
//
// Enrichment outcomes are counted per outcome label so that stale discards,
// duplicate redeliveries and terminal failures stay distinguishable:
//
//	metrics.RecordEnrichmentOutcome("stale")
//	metrics.RecordCacheRequest("get", "hit")
package metrics
