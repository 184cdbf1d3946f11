// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

// Package config loads Moodlog configuration with Koanf v2.
//
// Sources are layered, later layers overriding earlier ones:
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file: CONFIG_PATH, ./config.yaml, /etc/moodlog/config.yaml
//  3. Environment variables, through an explicit mapping table
//
// Only mapped environment variables are read, so unrelated variables in the
// process environment never leak into configuration. The three tuning knobs
// of the enrichment pipeline are:
//
//	CACHE_TTL_SECONDS       cache.ttl_seconds       freshness bound for cached reads
//	MAX_ENRICHMENT_RETRIES  enrichment.max_retries  classification attempts before FAILED
//	SWEEP_INTERVAL_SECONDS  sweep.interval_seconds  reconciliation cadence
//
// Example:
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    logging.Error().Err(err).Msg("invalid configuration")
//	    os.Exit(1)
//	}
//	db, err := database.New(&cfg.Database)
package config
