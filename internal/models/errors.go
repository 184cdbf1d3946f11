// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package models

import "errors"

// Entry store errors. Every EntryStore implementation returns these so the
// coordinators can branch with errors.Is regardless of backend.
var (
	// ErrEntryNotFound is returned when no entry has the requested ID.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrVersionConflict is returned when a conditional write observed a
	// version other than the expected one.
	ErrVersionConflict = errors.New("entry version conflict")
)
