// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPServer is the part of *http.Server the service drives.
//
// Satisfied by *http.Server; tests substitute a fake to control when
// ListenAndServe returns.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs the operations HTTP server (health probes and the
// metrics scrape) under the supervisor tree.
//
// It bridges the blocking ListenAndServe call and suture's context-driven
// Serve:
//
//  1. ListenAndServe runs in its own goroutine
//  2. Serve waits for a server error or for ctx to end
//  3. On cancellation Shutdown drains open connections within the timeout
//
// Usage:
//
//	server := &http.Server{Addr: ":8089", Handler: api.NewRouter(health)}
//	tree.AddAPIService(services.NewHTTPServerService(server, 30*time.Second))
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	name            string
}

// NewHTTPServerService wraps server. shutdownTimeout bounds the graceful
// shutdown; a non-positive value means 10s.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "ops-http-server",
	}
}

// Serve implements suture.Service.
//
// A listen failure returns an error so the supervisor restarts the service
// with backoff. After cancellation it returns ctx.Err() once Shutdown has
// completed, or the Shutdown error if connections did not drain in time.
// http.ErrServerClosed is the expected result of Shutdown and is not
// reported.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h *HTTPServerService) String() string {
	return h.name
}
