// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package eventprocessor

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/tomtom215/moodlog/internal/config"
)

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// PublisherConfig holds publisher configuration.
type PublisherConfig struct {
	URL              string
	SubjectPrefix    string
	Partitions       int
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool // nolint:revive // ID is correct per Go conventions
}

// SubscriberConfig holds the configuration of one partition subscriber.
type SubscriberConfig struct {
	URL            string
	StreamName     string
	DurableName    string
	QueueGroup     string
	AckWaitTimeout time.Duration
	MaxDeliver     int
	CloseTimeout   time.Duration
	MaxReconnects  int
	ReconnectWait  time.Duration
}

// StreamConfig defines the enrichment stream settings.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Allowed in half-open state
	Interval         time.Duration // Reset interval for counts
	Timeout          time.Duration // Time to stay open
	FailureThreshold uint32        // Failures before opening
}

// DefaultCircuitBreakerConfig returns production defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// ServerConfigFrom derives the embedded server settings. The listen address
// is taken from the client URL so clients and server agree.
func ServerConfigFrom(cfg config.NATSConfig) (ServerConfig, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("parse NATS URL: %w", err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		host, portStr = u.Host, "4222"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("parse NATS port %q: %w", portStr, err)
	}
	return ServerConfig{
		Host:              host,
		Port:              port,
		StoreDir:          cfg.StoreDir,
		JetStreamMaxMem:   cfg.MaxMemory,
		JetStreamMaxStore: cfg.MaxStore,
	}, nil
}

// PublisherConfigFrom derives the publisher settings.
func PublisherConfigFrom(cfg config.NATSConfig) PublisherConfig {
	return PublisherConfig{
		URL:              cfg.URL,
		SubjectPrefix:    cfg.SubjectPrefix,
		Partitions:       cfg.PartitionCount(),
		MaxReconnects:    -1, // Unlimited
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024, // 8MB
		EnableTrackMsgID: true,
	}
}

// SubscriberConfigFrom derives the subscriber settings of one partition.
func SubscriberConfigFrom(cfg config.NATSConfig, partition int) SubscriberConfig {
	return SubscriberConfig{
		URL:            cfg.URL,
		StreamName:     cfg.StreamName,
		DurableName:    DurableName(cfg.DurablePrefix, partition),
		QueueGroup:     cfg.QueueGroup,
		AckWaitTimeout: cfg.AckWait,
		MaxDeliver:     cfg.MaxDeliver,
		CloseTimeout:   30 * time.Second,
		MaxReconnects:  -1,
		ReconnectWait:  2 * time.Second,
	}
}

// StreamConfigFrom derives the stream settings.
func StreamConfigFrom(cfg config.NATSConfig) StreamConfig {
	days := cfg.StreamRetentionDays
	if days <= 0 {
		days = 7
	}
	return StreamConfig{
		Name:            cfg.StreamName,
		Subjects:        StreamSubjects(cfg.SubjectPrefix),
		MaxAge:          time.Duration(days) * 24 * time.Hour,
		MaxBytes:        -1,
		MaxMsgs:         -1,
		DuplicateWindow: cfg.DuplicateWindow,
		Replicas:        1,
	}
}

// BreakerConfigFrom derives the publish circuit breaker settings.
func BreakerConfigFrom(cfg config.NATSConfig) CircuitBreakerConfig {
	cb := DefaultCircuitBreakerConfig("nats-publish")
	if cfg.BreakerFailures > 0 {
		cb.FailureThreshold = cfg.BreakerFailures
	}
	if cfg.BreakerOpenTimeout > 0 {
		cb.Timeout = cfg.BreakerOpenTimeout
	}
	return cb
}
