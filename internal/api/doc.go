// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

// Package api serves the operations HTTP surface: liveness and readiness
// probes and the Prometheus scrape endpoint, routed with chi.
//
// Routes:
//
//	GET /api/v1/health/live   process is up
//	GET /api/v1/health/ready  required dependencies answer a ping
//	GET /metrics              Prometheus exposition
//
// Entry reads and writes are served by whatever transport embeds the
// journal package; they are not routed here.
package api
