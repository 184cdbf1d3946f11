// Moodlog - Journal Sentiment Enrichment Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/moodlog

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

type fakeHTTPServer struct {
	listenErr   error
	shutdownErr error
	started     chan struct{}
	stopCh      chan struct{}
	shutdowns   atomic.Int32
	once        sync.Once
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{started: make(chan struct{}), stopCh: make(chan struct{})}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	close(f.started)
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stopCh
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	f.once.Do(func() { close(f.stopCh) })
	return f.shutdownErr
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	srv := newFakeHTTPServer()
	svc := NewHTTPServerService(srv, time.Second)
	var _ suture.Service = svc

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	<-srv.started
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if srv.shutdowns.Load() != 1 {
		t.Errorf("Shutdown called %d times, want 1", srv.shutdowns.Load())
	}
	if svc.String() != "ops-http-server" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestHTTPServerServiceListenError(t *testing.T) {
	srv := newFakeHTTPServer()
	srv.listenErr = errors.New("listen tcp :8080: address already in use")

	err := NewHTTPServerService(srv, 0).Serve(context.Background())
	if err == nil || !errors.Is(err, srv.listenErr) {
		t.Errorf("Serve() = %v, want wrapped listen error", err)
	}
}

func TestHTTPServerServiceShutdownError(t *testing.T) {
	srv := newFakeHTTPServer()
	srv.shutdownErr = errors.New("connections still active")
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	<-srv.started
	cancel()
	if err := <-errCh; !errors.Is(err, srv.shutdownErr) {
		t.Errorf("Serve() = %v, want shutdown error", err)
	}
}

type fakeEmbedded struct {
	running   atomic.Bool
	shutdowns atomic.Int32
}

func (f *fakeEmbedded) IsRunning() bool { return f.running.Load() }

func (f *fakeEmbedded) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	f.running.Store(false)
	return nil
}

func TestEmbeddedNATSServiceShutsDownServer(t *testing.T) {
	srv := &fakeEmbedded{}
	srv.running.Store(true)
	svc := NewEmbeddedNATSService(srv, time.Second)
	svc.checkInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v", err)
	}
	if srv.shutdowns.Load() != 1 {
		t.Errorf("Shutdown called %d times", srv.shutdowns.Load())
	}
}

func TestEmbeddedNATSServiceTerminatesTreeWhenServerDies(t *testing.T) {
	srv := &fakeEmbedded{}
	srv.running.Store(true)
	svc := NewEmbeddedNATSService(srv, time.Second)
	svc.checkInterval = 5 * time.Millisecond

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(context.Background()) }()
	srv.running.Store(false)

	select {
	case err := <-errCh:
		if !errors.Is(err, suture.ErrTerminateSupervisorTree) {
			t.Errorf("Serve() = %v, want ErrTerminateSupervisorTree", err)
		}
	case <-time.After(time.Second):
		t.Fatal("service did not notice the server stopped")
	}
}

type fakeGC struct {
	calls atomic.Int32
	ratio atomic.Value
	err   error
}

func (f *fakeGC) RunGC(discardRatio float64) error {
	f.calls.Add(1)
	f.ratio.Store(discardRatio)
	return f.err
}

func TestLedgerGCServiceRunsPeriodically(t *testing.T) {
	gc := &fakeGC{err: errors.New("gc busy")}
	svc := NewLedgerGCService(gc, 5*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for gc.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-errCh

	if gc.calls.Load() < 2 {
		t.Errorf("RunGC called %d times, want at least 2 despite errors", gc.calls.Load())
	}
	if ratio, _ := gc.ratio.Load().(float64); ratio != 0.5 {
		t.Errorf("discard ratio = %v, want default 0.5", ratio)
	}
	if svc.String() != "ledger-gc" {
		t.Errorf("String() = %q", svc.String())
	}
}
