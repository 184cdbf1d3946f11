// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package eventprocessor

import "errors"

var (
	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("publisher is closed")

	// ErrPublishUnavailable is returned while the publish circuit breaker is open.
	ErrPublishUnavailable = errors.New("event channel unavailable")

	// ErrInvalidPartition is returned for a partition outside [0, partitions).
	ErrInvalidPartition = errors.New("invalid partition")

	// ErrSubscriptionClosed is returned when the broker closes a subscription
	// the consumer did not cancel.
	ErrSubscriptionClosed = errors.New("subscription closed")
)
