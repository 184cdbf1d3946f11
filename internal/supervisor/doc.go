// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

// Package supervisor runs the service's long-lived components under a
// suture/v4 supervisor tree.
//
// The tree has three layers, each its own supervisor so a crash loop in one
// layer backs off without restarting the others:
//
//	moodlog
//	├── data-layer       embedded NATS server, ledger GC
//	├── messaging-layer  partition consumers, reconciliation sweep
//	└── api-layer        operations HTTP server
//
// Supervisor events are logged through sutureslog into the zerolog-backed
// slog handler from the logging package.
//
// Adapters that turn blocking or Start/Stop components into suture
// services live in the services subpackage.
package supervisor
