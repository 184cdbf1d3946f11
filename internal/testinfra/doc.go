// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

// Package testinfra provides shared test doubles and container-backed
// integration fixtures.
//
// # In-memory doubles
//
// EntryStore mirrors the DuckDB store's conditional-write semantics in
// memory, with per-operation fault injection. RecordingPublisher captures
// published events. Both are safe for concurrent use.
//
//	store := testinfra.NewEntryStore()
//	store.FailNext("SetSentiment", errors.New("connection reset"))
//
// # Containers
//
// Files built with the integration tag start real dependencies through
// testcontainers-go:
//
//	go test -tags integration ./internal/testinfra/...
//
// Tests are skipped when Docker is unavailable.
package testinfra
