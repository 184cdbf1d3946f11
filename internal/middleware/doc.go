// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

/*
Package middleware provides the HTTP middleware of the operations server.

Components:

  - PrometheusMetrics: request duration and in-flight gauge, labeled by the
    matched chi route pattern so probe and scrape paths stay low-cardinality
  - CorrelationID: carries the chi request ID into the logging context and
    echoes it as X-Request-ID
  - RateLimit: per-client-IP limiting backed by go-chi/httprate

Typical stack:

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.CorrelationID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RateLimit(300, time.Minute))
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
