/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	wserrors "github.com/wisecow/wisecow/pkg/errors"
)

// ContentGenerator produces one rendered response body per request.
type ContentGenerator interface {
	Generate(ctx context.Context) ([]byte, error)
}

// Server owns the bound TCP socket and the accept loop. Each accepted
// connection is handled in its own goroutine; handlers share no mutable
// state, so acceptance never waits on a response in flight.
type Server struct {
	config    *Config
	generator ContentGenerator
	limiter   *rate.Limiter

	mu       sync.RWMutex
	ready    bool
	listener net.Listener

	handlers   sync.WaitGroup
	handlerCtx context.Context
	stopAll    context.CancelFunc
}

// New creates a new server instance. A nil config gets defaults.
func New(cfg *Config, generator ContentGenerator) *Server {
	if cfg == nil {
		cfg = NewConfig()
	}

	s := &Server{
		config:    cfg,
		generator: generator,
	}

	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(cfg.RateLimit, cfg.RateLimitBurst)
	}

	return s
}

// Ready reports whether the server is accepting connections.
func (s *Server) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *Server) setReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// Addr returns the bound listener address, or nil before Start.
// Useful when the configured port is 0.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds the listening socket and serves until ctx is cancelled.
// A bind failure returns a BIND_FAILED error immediately; there is no
// retry, a port conflict is an operator error. All other failures are
// contained at the connection level and never end the loop.
func (s *Server) Start(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return wserrors.WrapWithContext(wserrors.ErrCodeBindFailed,
			"failed to bind listening socket", err,
			map[string]any{"addr": s.config.Addr()})
	}

	// Handlers get their own lifetime so a shutdown signal does not cancel
	// in-flight generators before the grace period runs out.
	s.handlerCtx, s.stopAll = context.WithCancel(context.Background())

	s.mu.Lock()
	s.listener = ln
	s.ready = true
	s.mu.Unlock()

	slog.Info("listening", "addr", ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.acceptLoop(ln)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errChan:
		return err
	}
}

// acceptLoop accepts until the listener is closed.
func (s *Server) acceptLoop(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			// Transient accept errors (EMFILE, aborted handshakes) must not
			// end the loop.
			slog.Warn("accept failed", "error", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		if s.limiter != nil && !s.limiter.Allow() {
			acceptThrottled.Inc()
			connectionsTotal.WithLabelValues(outcomeThrottled).Inc()
			if !s.addHandler() {
				_ = conn.Close()
				continue
			}
			go func() {
				defer s.handlers.Done()
				s.refuseBusy(conn)
			}()
			continue
		}

		if !s.addHandler() {
			_ = conn.Close()
			continue
		}
		go func() {
			defer s.handlers.Done()
			s.handleConnection(s.handlerCtx, conn)
		}()
	}
}

// addHandler registers one connection goroutine with the shutdown
// accounting. It holds the ready lock so the WaitGroup can never gain a
// handler after Shutdown has flipped ready off and started waiting; a
// connection that loses this race is closed instead of served.
func (s *Server) addHandler() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return false
	}
	s.handlers.Add(1)
	return true
}

// Shutdown stops accepting, gives in-flight handlers the configured grace
// period, then cancels whatever is left.
func (s *Server) Shutdown() error {
	s.setReady(false)

	s.mu.RLock()
	ln := s.listener
	s.mu.RUnlock()

	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Warn("listener close failed", "error", err)
		}
	}

	slog.Info("shutting down", "grace", s.config.ShutdownTimeout.String())

	done := make(chan struct{})
	go func() {
		s.handlers.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("all handlers finished")
		return nil
	case <-time.After(s.config.ShutdownTimeout):
	}

	// Grace expired: cancel handler contexts to kill running generators,
	// then give them a moment to unwind. stopAll is nil when Start never
	// bound a listener.
	if s.stopAll != nil {
		s.stopAll()
	}
	select {
	case <-done:
		return nil
	case <-time.After(2 * time.Second):
		slog.Warn("handlers still in flight after grace period")
		return wserrors.New(wserrors.ErrCodeTimeout, "shutdown grace period expired")
	}
}
