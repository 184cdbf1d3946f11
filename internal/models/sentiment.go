// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package models

import (
	"fmt"
	"strings"
)

// Sentiment is the enrichment state of a journal entry.
type Sentiment string

const (
	SentimentPending  Sentiment = "PENDING"
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	// SentimentFailed is set once the retry budget is exhausted. It is only
	// left by a content update, which resets the entry to PENDING.
	SentimentFailed Sentiment = "FAILED"
)

// Valid reports whether s is one of the five known states.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPending, SentimentPositive, SentimentNegative, SentimentNeutral, SentimentFailed:
		return true
	}
	return false
}

// IsLabel reports whether s is a classification result.
func (s Sentiment) IsLabel() bool {
	return s == SentimentPositive || s == SentimentNegative || s == SentimentNeutral
}

// IsTerminal reports whether enrichment for the current version is finished.
func (s Sentiment) IsTerminal() bool {
	return s.IsLabel() || s == SentimentFailed
}

func (s Sentiment) String() string {
	return string(s)
}

// ParseSentiment parses a label case-insensitively.
func ParseSentiment(v string) (Sentiment, error) {
	s := Sentiment(strings.ToUpper(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown sentiment %q", v)
	}
	return s, nil
}
