// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package models

import "time"

// WeatherSnapshot is the point-in-time weather attached when an entry is
// created. The core stores it opaquely and never changes it.
type WeatherSnapshot struct {
	Location     string    `json:"location,omitempty" validate:"max=128"`
	Condition    string    `json:"condition" validate:"max=64"`
	TemperatureC float64   `json:"temperature_c" validate:"gte=-100,lte=70"`
	HumidityPct  float64   `json:"humidity_pct,omitempty" validate:"gte=0,lte=100"`
	WindKph      float64   `json:"wind_kph,omitempty" validate:"gte=0"`
	ObservedAt   time.Time `json:"observed_at"`
}

// JournalEntry is the authoritative record held by the entry store.
type JournalEntry struct {
	ID        string           `json:"id"`
	OwnerID   string           `json:"owner_id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Sentiment Sentiment        `json:"sentiment"`
	Weather   *WeatherSnapshot `json:"weather,omitempty"`
	Version   int64            `json:"version"`
}

// Clone returns a deep copy so callers can hand entries across goroutines
// without sharing the weather pointer.
func (e *JournalEntry) Clone() *JournalEntry {
	if e == nil {
		return nil
	}
	c := *e
	if e.Weather != nil {
		w := *e.Weather
		c.Weather = &w
	}
	return &c
}

// StaleCursor is the position of a stale-pending scan. Rows are ordered by
// (UpdatedAt, ID) and a page starts strictly after the cursor. The zero value
// starts at the oldest row.
type StaleCursor struct {
	UpdatedAt time.Time
	ID        string
}

// After reports whether e sorts after the cursor.
func (c StaleCursor) After(e *JournalEntry) bool {
	if c.ID == "" {
		return true
	}
	if !e.UpdatedAt.Equal(c.UpdatedAt) {
		return e.UpdatedAt.After(c.UpdatedAt)
	}
	return e.ID > c.ID
}

// CursorAt returns the cursor positioned at e.
func CursorAt(e *JournalEntry) StaleCursor {
	return StaleCursor{UpdatedAt: e.UpdatedAt, ID: e.ID}
}
