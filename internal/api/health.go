// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package api

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

// Check is one named readiness check. A failing Required check makes the
// service not ready; others only degrade it.
type Check struct {
	Name     string
	Required bool
	Fn       CheckFunc
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name     string  `json:"name"`
	Healthy  bool    `json:"healthy"`
	Required bool    `json:"required"`
	Error    string  `json:"error,omitempty"`
	Seconds  float64 `json:"latency_seconds"`
}

// HealthHandler serves the probe endpoints.
type HealthHandler struct {
	checks    []Check
	timeout   time.Duration
	startTime time.Time
}

// NewHealthHandler creates a handler. timeout bounds each check.
func NewHealthHandler(timeout time.Duration, checks ...Check) *HealthHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthHandler{checks: checks, timeout: timeout, startTime: time.Now()}
}

// Live reports that the process is serving requests.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &Response{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Timestamp: time.Now().UTC(),
	})
}

// Ready runs every check concurrently and answers 503 when a required one
// fails.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	results := h.run(r.Context())

	ready, degraded := true, false
	for _, res := range results {
		if res.Healthy {
			continue
		}
		if res.Required {
			ready = false
		} else {
			degraded = true
		}
	}

	status, code := "ready", http.StatusOK
	switch {
	case !ready:
		status, code = "not_ready", http.StatusServiceUnavailable
	case degraded:
		status = "degraded"
	}

	respondJSON(w, code, &Response{
		Status: status,
		Data: map[string]interface{}{
			"checks": results,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Timestamp: time.Now().UTC(),
	})
}

func (h *HealthHandler) run(ctx context.Context) []CheckResult {
	results := make([]CheckResult, len(h.checks))
	var wg sync.WaitGroup
	for i, c := range h.checks {
		wg.Add(1)
		go func(i int, c Check) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			start := time.Now()
			err := c.Fn(checkCtx)
			results[i] = CheckResult{
				Name:     c.Name,
				Healthy:  err == nil,
				Required: c.Required,
				Seconds:  time.Since(start).Seconds(),
			}
			if err != nil {
				results[i].Error = err.Error()
			}
		}(i, c)
	}
	wg.Wait()
	return results
}
