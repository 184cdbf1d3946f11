// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database   DatabaseConfig   `koanf:"database"`
	Cache      CacheConfig      `koanf:"cache"`
	NATS       NATSConfig       `koanf:"nats"`
	Enrichment EnrichmentConfig `koanf:"enrichment"`
	Sweep      SweepConfig      `koanf:"sweep"`
	Ledger     LedgerConfig     `koanf:"ledger"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// DatabaseConfig configures the DuckDB entry store.
type DatabaseConfig struct {
	// Path is the database file. ":memory:" opens a private in-memory database.
	Path string `koanf:"path"`

	// MaxMemory is passed to DuckDB's max_memory setting (e.g. "1GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads limits DuckDB worker threads. 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`

	// QueryTimeout bounds every store call made by the coordinators and worker.
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// CacheConfig configures the read-side cache.
type CacheConfig struct {
	// Backend is "redis" or "memory".
	Backend string `koanf:"backend"`

	// TTLSeconds bounds how long a cached view may be served.
	TTLSeconds int `koanf:"ttl_seconds"`

	// Capacity is the maximum number of keys held by the memory backend.
	Capacity int `koanf:"capacity"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// OperationTimeout bounds each cache call. A slow cache degrades to a miss.
	OperationTimeout time.Duration `koanf:"operation_timeout"`

	// BreakerFailures consecutive failures open the cache circuit breaker.
	BreakerFailures uint32 `koanf:"breaker_failures"`

	// BreakerOpenTimeout is how long the breaker stays open before probing.
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout"`
}

// TTL returns TTLSeconds as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// NATSConfig configures the enrichment event channel on NATS JetStream.
type NATSConfig struct {
	// URL is the NATS server connection URL.
	URL string `koanf:"url"`

	// EmbeddedServer starts an in-process NATS server listening on URL's port.
	EmbeddedServer bool `koanf:"embedded_server"`

	// StoreDir is the JetStream storage directory for the embedded server.
	StoreDir string `koanf:"store_dir"`

	MaxMemory int64 `koanf:"max_memory"`
	MaxStore  int64 `koanf:"max_store"`

	// StreamName is the JetStream stream carrying enrichment events.
	StreamName string `koanf:"stream_name"`

	// SubjectPrefix is prepended to the partition suffix (".p007").
	SubjectPrefix string `koanf:"subject_prefix"`

	// Partitions is the number of partitions events are spread across by
	// entry ID. Changing it re-routes entries, so drain the stream first.
	Partitions int `koanf:"partitions"`

	// StreamRetentionDays bounds how long unconsumed events are kept.
	StreamRetentionDays int `koanf:"stream_retention_days"`

	// DuplicateWindow is the JetStream Nats-Msg-Id deduplication window.
	DuplicateWindow time.Duration `koanf:"duplicate_window"`

	// DurablePrefix names the per-partition durable consumers.
	DurablePrefix string `koanf:"durable_prefix"`

	// QueueGroup is shared by all worker instances.
	QueueGroup string `koanf:"queue_group"`

	// AckWait is how long the broker waits for an ack before redelivering.
	// It must exceed the worst-case time to handle one event.
	AckWait time.Duration `koanf:"ack_wait"`

	// MaxDeliver caps redeliveries of a single event. -1 is unlimited.
	MaxDeliver int `koanf:"max_deliver"`

	// BreakerFailures consecutive publish failures open the publish breaker.
	BreakerFailures uint32 `koanf:"breaker_failures"`

	// BreakerOpenTimeout is how long the publish breaker stays open.
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout"`
}

// PartitionCount returns Partitions, at least 1.
func (c NATSConfig) PartitionCount() int {
	if c.Partitions < 1 {
		return 1
	}
	return c.Partitions
}

// HandleTimeout bounds one handler call inside AckWait, leaving a margin for
// the ack itself.
func (c NATSConfig) HandleTimeout() time.Duration {
	if c.AckWait <= 0 {
		return 30 * time.Second
	}
	margin := c.AckWait / 10
	if margin < time.Second {
		margin = time.Second
	}
	if c.AckWait <= 2*margin {
		return c.AckWait / 2
	}
	return c.AckWait - margin
}

// EnrichmentConfig configures the sentiment enrichment worker.
type EnrichmentConfig struct {
	// Enabled starts partition consumers in this process.
	Enabled bool `koanf:"enabled"`

	// Classifier is "lexicon" or "openai".
	Classifier string `koanf:"classifier"`

	OpenAIAPIKey  string `koanf:"openai_api_key"`
	OpenAIModel   string `koanf:"openai_model"`
	OpenAIBaseURL string `koanf:"openai_base_url"`

	// MaxRetries is the total number of classification attempts for one
	// version before the entry is marked FAILED.
	MaxRetries int `koanf:"max_retries"`

	// RetryBackoff is the delay before the second attempt; it doubles per
	// attempt up to MaxBackoff.
	RetryBackoff time.Duration `koanf:"retry_backoff"`
	MaxBackoff   time.Duration `koanf:"max_backoff"`

	// ClassifyTimeout bounds one classification attempt. A timeout counts
	// as a failed attempt.
	ClassifyTimeout time.Duration `koanf:"classify_timeout"`

	// OwnedPartitions restricts this process to a subset of partitions.
	// Empty means all partitions.
	OwnedPartitions []int `koanf:"owned_partitions"`
}

// RetryBudget is the worst-case time MaxRetries timed-out attempts take,
// backoffs included.
func (c EnrichmentConfig) RetryBudget() time.Duration {
	budget := time.Duration(c.MaxRetries) * c.ClassifyTimeout
	backoff := c.RetryBackoff
	for i := 1; i < c.MaxRetries; i++ {
		budget += backoff
		backoff *= 2
		if backoff > c.MaxBackoff {
			backoff = c.MaxBackoff
		}
	}
	return budget
}

// SweepConfig configures the reconciliation sweep.
type SweepConfig struct {
	Enabled bool `koanf:"enabled"`

	// IntervalSeconds is the time between sweep passes.
	IntervalSeconds int `koanf:"interval_seconds"`

	// PendingThreshold is how long an entry may stay PENDING before the
	// sweep considers its event lost.
	PendingThreshold time.Duration `koanf:"pending_threshold"`

	// BatchSize limits entries inspected per pass.
	BatchSize int `koanf:"batch_size"`

	// RepublishPerSecond paces republishing so a large backlog does not
	// flood the channel after an outage.
	RepublishPerSecond float64 `koanf:"republish_per_second"`
}

// Interval returns IntervalSeconds as a duration.
func (c SweepConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// LedgerConfig configures the BadgerDB outstanding-event ledger.
type LedgerConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`

	// OutstandingTTL is how long a published event counts as outstanding.
	// 0 derives it from nats.ack_wait and nats.max_deliver.
	OutstandingTTL time.Duration `koanf:"outstanding_ttl"`
}

// ServerConfig configures the operations HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is requests per minute allowed from one client IP. 0 disables
	// limiting.
	RateLimit int `koanf:"rate_limit"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
