// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	if err := c.validateSweep(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH must not be empty")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("STORE_QUERY_TIMEOUT must be positive, got %v", c.Database.QueryTimeout)
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	case "memory":
		if c.Cache.Capacity <= 0 {
			return fmt.Errorf("CACHE_CAPACITY must be positive, got %d", c.Cache.Capacity)
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be 'redis' or 'memory', got %q", c.Cache.Backend)
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive, got %d", c.Cache.TTLSeconds)
	}
	if c.Cache.OperationTimeout <= 0 {
		return fmt.Errorf("CACHE_OPERATION_TIMEOUT must be positive, got %v", c.Cache.OperationTimeout)
	}
	return nil
}

func (c *Config) validateNATS() error {
	if c.NATS.URL == "" {
		return fmt.Errorf("NATS_URL must not be empty")
	}
	if !strings.HasPrefix(c.NATS.URL, "nats://") && !strings.HasPrefix(c.NATS.URL, "tls://") {
		return fmt.Errorf("NATS_URL must use nats:// or tls:// scheme, got %q", c.NATS.URL)
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	if c.NATS.StreamName == "" || c.NATS.SubjectPrefix == "" {
		return fmt.Errorf("NATS_STREAM_NAME and NATS_SUBJECT_PREFIX must not be empty")
	}
	if c.NATS.Partitions < 1 || c.NATS.Partitions > 999 {
		return fmt.Errorf("NATS_PARTITIONS must be between 1 and 999, got %d", c.NATS.Partitions)
	}
	if c.NATS.AckWait <= 0 {
		return fmt.Errorf("NATS_ACK_WAIT must be positive, got %v", c.NATS.AckWait)
	}
	if c.NATS.MaxDeliver == 0 || c.NATS.MaxDeliver < -1 {
		return fmt.Errorf("NATS_MAX_DELIVER must be positive or -1, got %d", c.NATS.MaxDeliver)
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	switch c.Enrichment.Classifier {
	case "lexicon":
	case "openai":
		if c.Enrichment.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when SENTIMENT_CLASSIFIER=openai")
		}
	default:
		return fmt.Errorf("SENTIMENT_CLASSIFIER must be 'lexicon' or 'openai', got %q", c.Enrichment.Classifier)
	}
	if c.Enrichment.MaxRetries < 1 {
		return fmt.Errorf("MAX_ENRICHMENT_RETRIES must be at least 1, got %d", c.Enrichment.MaxRetries)
	}
	if c.Enrichment.ClassifyTimeout <= 0 {
		return fmt.Errorf("CLASSIFY_TIMEOUT must be positive, got %v", c.Enrichment.ClassifyTimeout)
	}
	if c.Enrichment.RetryBackoff < 0 || c.Enrichment.MaxBackoff < c.Enrichment.RetryBackoff {
		return fmt.Errorf("ENRICHMENT_MAX_BACKOFF (%v) must be >= ENRICHMENT_RETRY_BACKOFF (%v)",
			c.Enrichment.MaxBackoff, c.Enrichment.RetryBackoff)
	}
	// The entry read and the sentiment write each get a query timeout.
	need := c.Enrichment.RetryBudget() + 2*c.Database.QueryTimeout
	if handle := c.NATS.HandleTimeout(); need > handle {
		return fmt.Errorf("MAX_ENRICHMENT_RETRIES=%d with CLASSIFY_TIMEOUT=%v needs %v per delivery, "+
			"more than the %v NATS_ACK_WAIT=%v allows; raise NATS_ACK_WAIT or lower the retry budget",
			c.Enrichment.MaxRetries, c.Enrichment.ClassifyTimeout, need, handle, c.NATS.AckWait)
	}
	seen := make(map[int]bool, len(c.Enrichment.OwnedPartitions))
	for _, p := range c.Enrichment.OwnedPartitions {
		if p < 0 || p >= c.NATS.Partitions {
			return fmt.Errorf("ENRICHMENT_OWNED_PARTITIONS contains %d, outside [0, %d)", p, c.NATS.Partitions)
		}
		if seen[p] {
			return fmt.Errorf("ENRICHMENT_OWNED_PARTITIONS lists partition %d twice", p)
		}
		seen[p] = true
	}
	return nil
}

func (c *Config) validateSweep() error {
	if c.Sweep.IntervalSeconds <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL_SECONDS must be positive, got %d", c.Sweep.IntervalSeconds)
	}
	if c.Sweep.PendingThreshold <= 0 {
		return fmt.Errorf("SWEEP_PENDING_THRESHOLD must be positive, got %v", c.Sweep.PendingThreshold)
	}
	if c.Sweep.BatchSize <= 0 {
		return fmt.Errorf("SWEEP_BATCH_SIZE must be positive, got %d", c.Sweep.BatchSize)
	}
	if c.Sweep.RepublishPerSecond <= 0 {
		return fmt.Errorf("SWEEP_REPUBLISH_PER_SECOND must be positive, got %v", c.Sweep.RepublishPerSecond)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("HTTP_RATE_LIMIT must be >= 0, got %d", c.Server.RateLimit)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}

// OutstandingTTL returns the ledger TTL, derived from the broker's
// redelivery budget when not set explicitly.
func (c *Config) OutstandingTTL() time.Duration {
	if c.Ledger.OutstandingTTL > 0 {
		return c.Ledger.OutstandingTTL
	}
	deliveries := c.NATS.MaxDeliver
	if deliveries < 1 {
		deliveries = 10
	}
	return c.NATS.AckWait * time.Duration(deliveries)
}
