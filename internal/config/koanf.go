// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/moodlog/config.yaml",
	"/etc/moodlog/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         "/data/moodlog.duckdb",
			MaxMemory:    "1GB",
			Threads:      0,
			QueryTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			Backend:            "redis",
			TTLSeconds:         300,
			Capacity:           10000,
			RedisAddr:          "127.0.0.1:6379",
			RedisDB:            0,
			OperationTimeout:   250 * time.Millisecond,
			BreakerFailures:    5,
			BreakerOpenTimeout: 30 * time.Second,
		},
		NATS: NATSConfig{
			URL:                 "nats://127.0.0.1:4222",
			EmbeddedServer:      true,
			StoreDir:            "/data/nats/jetstream",
			MaxMemory:           256 << 20,
			MaxStore:            4 << 30,
			StreamName:          "JOURNAL_ENRICHMENT",
			SubjectPrefix:       "journal.enrichment",
			Partitions:          16,
			StreamRetentionDays: 7,
			DuplicateWindow:     2 * time.Minute,
			DurablePrefix:       "enrichment",
			QueueGroup:          "enrichment-workers",
			AckWait:             60 * time.Second,
			MaxDeliver:          -1,
			BreakerFailures:     5,
			BreakerOpenTimeout:  30 * time.Second,
		},
		Enrichment: EnrichmentConfig{
			Enabled:         true,
			Classifier:      "lexicon",
			OpenAIModel:     "gpt-4o-mini",
			MaxRetries:      3,
			RetryBackoff:    500 * time.Millisecond,
			MaxBackoff:      10 * time.Second,
			ClassifyTimeout: 10 * time.Second,
		},
		Sweep: SweepConfig{
			Enabled:            true,
			IntervalSeconds:    300,
			PendingThreshold:   5 * time.Minute,
			BatchSize:          500,
			RepublishPerSecond: 50,
		},
		Ledger: LedgerConfig{
			Path:     "/data/ledger",
			InMemory: false,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8089,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit:       300,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads defaults, then the optional config file, then
// environment variables, and validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths arrive from the environment as comma-separated strings.
var sliceConfigPaths = []string{
	"enrichment.owned_partitions",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Database
	"duckdb_path":         "database.path",
	"duckdb_max_memory":   "database.max_memory",
	"duckdb_threads":      "database.threads",
	"store_query_timeout": "database.query_timeout",

	// Cache
	"cache_backend":           "cache.backend",
	"cache_ttl_seconds":       "cache.ttl_seconds",
	"cache_capacity":          "cache.capacity",
	"redis_addr":              "cache.redis_addr",
	"redis_password":          "cache.redis_password",
	"redis_db":                "cache.redis_db",
	"cache_operation_timeout": "cache.operation_timeout",
	"cache_breaker_failures":  "cache.breaker_failures",
	"cache_breaker_timeout":   "cache.breaker_open_timeout",

	// NATS
	"nats_url":              "nats.url",
	"nats_embedded":         "nats.embedded_server",
	"nats_store_dir":        "nats.store_dir",
	"nats_max_memory":       "nats.max_memory",
	"nats_max_store":        "nats.max_store",
	"nats_stream_name":      "nats.stream_name",
	"nats_subject_prefix":   "nats.subject_prefix",
	"nats_partitions":       "nats.partitions",
	"nats_retention_days":   "nats.stream_retention_days",
	"nats_duplicate_window": "nats.duplicate_window",
	"nats_durable_prefix":   "nats.durable_prefix",
	"nats_queue_group":      "nats.queue_group",
	"nats_ack_wait":         "nats.ack_wait",
	"nats_max_deliver":      "nats.max_deliver",
	"nats_breaker_failures": "nats.breaker_failures",
	"nats_breaker_timeout":  "nats.breaker_open_timeout",

	// Enrichment
	"enrichment_enabled":          "enrichment.enabled",
	"sentiment_classifier":        "enrichment.classifier",
	"openai_api_key":              "enrichment.openai_api_key",
	"openai_model":                "enrichment.openai_model",
	"openai_base_url":             "enrichment.openai_base_url",
	"max_enrichment_retries":      "enrichment.max_retries",
	"enrichment_retry_backoff":    "enrichment.retry_backoff",
	"enrichment_max_backoff":      "enrichment.max_backoff",
	"classify_timeout":            "enrichment.classify_timeout",
	"enrichment_owned_partitions": "enrichment.owned_partitions",

	// Sweep
	"sweep_enabled":              "sweep.enabled",
	"sweep_interval_seconds":     "sweep.interval_seconds",
	"sweep_pending_threshold":    "sweep.pending_threshold",
	"sweep_batch_size":           "sweep.batch_size",
	"sweep_republish_per_second": "sweep.republish_per_second",

	// Ledger
	"ledger_path":            "ledger.path",
	"ledger_in_memory":       "ledger.in_memory",
	"ledger_outstanding_ttl": "ledger.outstanding_ttl",

	// Server
	"http_host":        "server.host",
	"http_port":        "server.port",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"http_rate_limit":  "server.rate_limit",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc returns the koanf path for a mapped variable, or "" so
// that unmapped variables are skipped.
//
// Examples:
//   - CACHE_TTL_SECONDS -> cache.ttl_seconds
//   - MAX_ENRICHMENT_RETRIES -> enrichment.max_retries
//   - SWEEP_INTERVAL_SECONDS -> sweep.interval_seconds
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
