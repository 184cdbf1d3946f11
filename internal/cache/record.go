// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package cache

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Record is the envelope stored under every key. Version is the entry
// version the value was materialized from (the highest version for list
// views); CachedAt is the freshness marker.
type Record struct {
	Version  int64           `json:"version"`
	CachedAt time.Time       `json:"cached_at"`
	Value    json.RawMessage `json:"value"`
}

// EncodeRecord serializes v inside a Record.
func EncodeRecord(version int64, v any, now time.Time) ([]byte, error) {
	value, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache value: %w", err)
	}
	return json.Marshal(Record{Version: version, CachedAt: now.UTC(), Value: value})
}

// DecodeRecord parses data and unmarshals its value into out.
func DecodeRecord(data []byte, out any) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to decode cache record: %w", err)
	}
	if len(rec.Value) == 0 {
		return Record{}, fmt.Errorf("failed to decode cache record: empty value")
	}
	if err := json.Unmarshal(rec.Value, out); err != nil {
		return Record{}, fmt.Errorf("failed to decode cache value: %w", err)
	}
	return rec, nil
}
