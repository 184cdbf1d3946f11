// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata and is safe for concurrent use. Validation failures are returned
// as *RequestValidationError, which carries one FieldError per failed rule
// and converts to the INVALID_INPUT error payload with ToAPIError.
//
// Custom tags:
//
//	notblank   string is not empty after trimming whitespace
//	sentiment  value parses as a models.Sentiment
//
// Example:
//
//	type EntryInput struct {
//	    Title   string `validate:"notblank,max=200"`
//	    Content string `validate:"notblank,max=20000"`
//	}
//
//	if verr := validation.ValidateStruct(&in); verr != nil {
//	    return fmt.Errorf("%w: %w", journal.ErrInvalidInput, verr)
//	}
package validation
