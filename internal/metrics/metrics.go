// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Entry store
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodlog_store_query_duration_seconds",
			Help:    "Duration of entry store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodlog_store_query_errors_total",
			Help: "Total entry store query errors",
		},
		[]string{"operation", "error_type"}, // error_type: not_found, version_conflict, other
	)

	// Write path
	EntryWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodlog_entry_writes_total",
			Help: "Total entry writes by kind and result",
		},
		[]string{"kind", "result"}, // kind: create, update; result: ok, permission_denied, concurrent_modification, not_found, invalid, error
	)

	// Enrichment channel
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodlog_enrichment_events_published_total",
			Help: "Total enrichment events published by source and result",
		},
		[]string{"source", "result"}, // source: write, sweep
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodlog_enrichment_events_consumed_total",
			Help: "Total enrichment events received per partition and ack decision",
		},
		[]string{"partition", "decision"}, // decision: ack, nack, poison
	)

	// Worker
	EnrichmentOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodlog_enrichment_outcomes_total",
			Help: "Total enrichment events by outcome",
		},
		[]string{"outcome"}, // applied, stale, duplicate, discarded, failed
	)

	EnrichmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moodlog_enrichment_duration_seconds",
			Help:    "Time from receiving an event to its durable outcome",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ClassificationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodlog_classification_attempts_total",
			Help: "Total classification attempts by classifier and result",
		},
		[]string{"classifier", "result"}, // result: ok, error, timeout
	)

	ClassificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodlog_classification_duration_seconds",
			Help:    "Duration of a single classification attempt",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"classifier"},
	)

	SentimentLabels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodlog_sentiment_labels_total",
			Help: "Total sentiment values written to the store",
		},
		[]string{"sentiment"},
	)

	// Cache
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodlog_cache_requests_total",
			Help: "Total cache operations by operation and result",
		},
		[]string{"op", "result"}, // op: get, set, invalidate; result: hit, miss, ok, error
	)

	// Reconciliation sweep
	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodlog_sweep_runs_total",
			Help: "Total reconciliation sweep passes by result",
		},
		[]string{"result"},
	)

	SweepRepublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moodlog_sweep_republished_total",
			Help: "Total enrichment events republished by the sweep",
		},
	)

	SweepSkippedOutstanding = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moodlog_sweep_skipped_outstanding_total",
			Help: "Total stale PENDING entries skipped because an event is still outstanding",
		},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moodlog_sweep_duration_seconds",
			Help:    "Duration of a reconciliation sweep pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Operations HTTP server
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodlog_http_request_duration_seconds",
			Help:    "Duration of operations HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moodlog_http_active_requests",
			Help: "Operations HTTP requests currently being served",
		},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moodlog_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodlog_circuit_breaker_state_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordStoreQuery records a store query. errorType is "" on success.
func RecordStoreQuery(operation string, duration time.Duration, errorType string) {
	StoreQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if errorType != "" {
		StoreQueryErrors.WithLabelValues(operation, errorType).Inc()
	}
}

// RecordEntryWrite records a write path call.
func RecordEntryWrite(kind, result string) {
	EntryWrites.WithLabelValues(kind, result).Inc()
}

// RecordEventPublished records a publish attempt.
func RecordEventPublished(source string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsPublished.WithLabelValues(source, result).Inc()
}

// RecordEventConsumed records the ack decision for one delivery.
func RecordEventConsumed(partition int, decision string) {
	EventsConsumed.WithLabelValues(strconv.Itoa(partition), decision).Inc()
}

// RecordEnrichmentOutcome records the worker outcome for one event.
func RecordEnrichmentOutcome(outcome string, duration time.Duration) {
	EnrichmentOutcomes.WithLabelValues(outcome).Inc()
	EnrichmentDuration.Observe(duration.Seconds())
}

// RecordClassification records one classification attempt.
func RecordClassification(classifier, result string, duration time.Duration) {
	ClassificationAttempts.WithLabelValues(classifier, result).Inc()
	ClassificationDuration.WithLabelValues(classifier).Observe(duration.Seconds())
}

// RecordSentimentWritten records a sentiment value persisted by the worker.
func RecordSentimentWritten(sentiment string) {
	SentimentLabels.WithLabelValues(sentiment).Inc()
}

// RecordCacheRequest records a cache operation.
func RecordCacheRequest(op, result string) {
	CacheRequests.WithLabelValues(op, result).Inc()
}

// RecordSweep records one sweep pass.
func RecordSweep(duration time.Duration, republished, skipped int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	SweepRuns.WithLabelValues(result).Inc()
	SweepRepublished.Add(float64(republished))
	SweepSkippedOutstanding.Add(float64(skipped))
	SweepDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records one served request. route is the matched route
// pattern, never the raw path.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// TrackActiveRequest moves the active request gauge.
func TrackActiveRequest(start bool) {
	if start {
		HTTPActiveRequests.Inc()
		return
	}
	HTTPActiveRequests.Dec()
}

// RecordCircuitBreakerTransition records a breaker state change. States are
// encoded 0=closed, 1=half-open, 2=open.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
