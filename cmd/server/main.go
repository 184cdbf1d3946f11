// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

// Command server runs the moodlog journal sentiment enrichment service.
//
// Subcommands:
//
//	serve   run the partition consumers, reconciliation sweep and
//	        operations HTTP server under a supervisor tree (default)
//	sweep   run one reconciliation pass and exit
//	entry   create, update, read or list entries through the write and
//	        read path coordinators
//
// Configuration is layered with Koanf: built-in defaults, then an optional
// YAML file (config.yaml, /etc/moodlog/config.yaml or CONFIG_PATH), then
// environment variables such as CACHE_TTL_SECONDS, MAX_ENRICHMENT_RETRIES
// and SWEEP_INTERVAL_SECONDS.
//
// SIGINT and SIGTERM stop the consumers from pulling new events. An event
// already being handled is finished and acknowledged before its partition
// is released.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
