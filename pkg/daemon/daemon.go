/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	sd "github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"github.com/wisecow/wisecow/pkg/logging"
	"github.com/wisecow/wisecow/pkg/server"
	"github.com/wisecow/wisecow/pkg/wisdom"

	wserrors "github.com/wisecow/wisecow/pkg/errors"
)

const (
	name           = "wisecowd"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Process exit codes. An orchestrating supervisor uses these to tell a port
// conflict apart from other startup failures.
const (
	ExitOK             = 0
	ExitBindFailure    = 2
	ExitStartupFailure = 3
)

// ExitCodeFor maps a serve error to the process exit code contract.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	if wserrors.CodeOf(err) == wserrors.ErrCodeBindFailed {
		return ExitBindFailure
	}
	return ExitStartupFailure
}

// Serve starts the daemon with environment-derived configuration and blocks
// until shutdown. This is the entrypoint used by cmd/wisecowd.
func Serve() error {
	logging.SetDefaultStructuredLogger(name, version)

	slog.Info("starting",
		slog.String("version", version),
		slog.String("commit", commit),
		slog.String("date", date))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return Run(ctx, NewConfig())
}

// Run starts the TCP serving loop and the admin endpoint with the given
// configuration and blocks until ctx is cancelled or a fatal error occurs.
func Run(ctx context.Context, cfg *Config) error {
	if cfg == nil {
		cfg = NewConfig()
	}

	slog.Info("daemon config",
		slog.String("addr", cfg.Server.Addr()),
		slog.Int("adminPort", cfg.AdminPort),
		slog.String("fortune", cfg.FortunePath),
		slog.String("cowsay", cfg.CowsayPath),
		slog.Duration("generatorTimeout", cfg.GeneratorTimeout),
		slog.Duration("idleReadTimeout", cfg.Server.IdleReadTimeout),
		slog.Duration("shutdownTimeout", cfg.Server.ShutdownTimeout),
	)

	gen := wisdom.New(
		wisdom.WithFortune(cfg.FortunePath),
		wisdom.WithCowsay(cfg.CowsayPath),
		wisdom.WithTimeout(cfg.GeneratorTimeout),
	)

	srv := server.New(cfg.Server, gen)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start(gctx)
	})

	if cfg.AdminPort > 0 {
		admin := newAdminServer(cfg.AdminPort, srv.Ready)
		g.Go(func() error {
			return admin.start(gctx)
		})
	}

	g.Go(func() error {
		notifyReady(gctx, srv)
		return nil
	})

	err := g.Wait()
	notifyStopping()

	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("daemon stopped with error", "error", err)
		return err
	}

	slog.Info("daemon stopped gracefully")
	return nil
}

// notifyReady tells systemd the service is up once the listener is bound.
// A no-op off systemd.
func notifyReady(ctx context.Context, srv *server.Server) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if srv.Ready() {
				if _, err := sd.SdNotify(false, sd.SdNotifyReady); err != nil {
					slog.Debug("sd_notify failed", "error", err)
				}
				return
			}
		}
	}
}

func notifyStopping() {
	if _, err := sd.SdNotify(false, sd.SdNotifyStopping); err != nil {
		slog.Debug("sd_notify failed", "error", err)
	}
}
