/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wisecow/wisecow/pkg/defaults"
	wserrors "github.com/wisecow/wisecow/pkg/errors"
	"github.com/wisecow/wisecow/pkg/serializer"
)

// HealthResponse represents a health or readiness probe response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

// adminServer exposes /healthz, /readyz, and /metrics for the external
// liveness/readiness probes and scrapers. It is the only HTTP surface of
// the daemon; the wisdom port stays protocol-free.
type adminServer struct {
	httpServer *http.Server
	readyFn    func() bool
}

func newAdminServer(port int, readyFn func() bool) *adminServer {
	a := &adminServer{readyFn: readyFn}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/readyz", a.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  defaults.AdminReadTimeout,
		WriteTimeout: defaults.AdminWriteTimeout,
		IdleTimeout:  defaults.AdminIdleTimeout,
	}

	return a
}

// start serves until ctx is cancelled. An admin bind failure is a startup
// failure but deliberately not a BIND_FAILED: exit codes distinguish the
// serving port conflict from everything else.
func (a *adminServer) start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- wserrors.Wrap(wserrors.ErrCodeUnavailable, "admin endpoint failed", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// handleHealth handles GET /healthz
func (a *adminServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// handleReady handles GET /readyz
func (a *adminServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !a.readyFn() {
		serializer.RespondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "not_ready",
			Timestamp: time.Now(),
			Reason:    "listener is not accepting connections",
		})
		return
	}

	serializer.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:    "ready",
		Timestamp: time.Now(),
	})
}
