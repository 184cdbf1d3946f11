// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package journal

import "errors"

var (
	// ErrPermissionDenied is returned when the entry belongs to another owner.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConcurrentModification is returned when the entry changed since the
	// caller observed it. Callers re-read and retry.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrEntryNotFound is returned when the entry does not exist.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrInvalidInput wraps a *validation.RequestValidationError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPublishFailure marks a failed enrichment publish. It is logged and
	// counted, never returned from a write.
	ErrPublishFailure = errors.New("enrichment publish failed")
)
