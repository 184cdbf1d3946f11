// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

// Package services adapts moodlog components to suture.Service.
//
// Components that already implement Serve(ctx) error, such as the partition
// consumers and the reconciliation sweep, are added to the tree directly.
// The wrappers here cover the rest:
//
//   - HTTPServerService: an *http.Server's ListenAndServe/Shutdown pair
//   - EmbeddedNATSService: ownership of the in-process NATS server
//   - LedgerGCService: periodic Badger value log GC for the ledger
//
// Each wrapper implements fmt.Stringer so suture logs a readable name.
package services
