/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"

	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/wisecow/wisecow/pkg/daemon"
	"github.com/wisecow/wisecow/pkg/server"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:                  "serve",
		EnableShellCompletion: true,
		Usage:                 "Run the wisdom server",
		Description: `Runs the TCP server that answers every connection with a random aphorism
framed by a cow, plus an admin endpoint with liveness, readiness, and
Prometheus metrics probes.

The process exits 0 on graceful shutdown, 2 when the serving port cannot
be bound, and 3 on any other startup failure.

# Examples

Serve on the default port:
  wisecow serve

Serve on a custom port without the admin endpoint:
  wisecow serve --port 9000 --admin-port 0

Throttle accepts to 100 connections per second:
  wisecow serve --rate-limit 100 --rate-burst 200`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   server.DefaultPort,
				Sources: cli.EnvVars("PORT"),
				Usage:   "TCP port to serve wisdom on",
			},
			&cli.StringFlag{
				Name:  "address",
				Usage: "Address to bind (default: all interfaces)",
			},
			&cli.IntFlag{
				Name:    "admin-port",
				Value:   daemon.DefaultAdminPort,
				Sources: cli.EnvVars("ADMIN_PORT"),
				Usage:   "Port for health, readiness, and metrics probes (0 disables)",
			},
			&cli.StringFlag{
				Name:    "fortune",
				Value:   "fortune",
				Sources: cli.EnvVars("WISECOW_FORTUNE"),
				Usage:   "Path to the fortune executable",
			},
			&cli.StringFlag{
				Name:    "cowsay",
				Value:   "cowsay",
				Sources: cli.EnvVars("WISECOW_COWSAY"),
				Usage:   "Path to the cowsay executable",
			},
			&cli.DurationFlag{
				Name:  "generator-timeout",
				Usage: "Timeout for one content generation (default: 5s)",
			},
			&cli.DurationFlag{
				Name:  "idle-timeout",
				Usage: "Idle read timeout for client connections (default: 10s)",
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Usage: "Grace period for in-flight connections on shutdown (default: 15s)",
			},
			&cli.IntFlag{
				Name:  "rate-limit",
				Usage: "Maximum accepted connections per second (0 disables throttling)",
			},
			&cli.IntFlag{
				Name:  "rate-burst",
				Usage: "Burst size for the accept throttle",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := serveConfigFromCmd(cmd)

			if err := daemon.Run(ctx, cfg); err != nil {
				return exitWithCode(daemon.ExitCodeFor(err), err)
			}
			return nil
		},
	}
}

// serveConfigFromCmd layers flag values over environment-derived defaults.
func serveConfigFromCmd(cmd *cli.Command) *daemon.Config {
	cfg := daemon.NewConfig()

	cfg.Server.Port = int(cmd.Int("port"))
	cfg.Server.Address = cmd.String("address")
	cfg.AdminPort = int(cmd.Int("admin-port"))
	cfg.FortunePath = cmd.String("fortune")
	cfg.CowsayPath = cmd.String("cowsay")

	if d := cmd.Duration("generator-timeout"); d > 0 {
		cfg.GeneratorTimeout = d
	}
	if d := cmd.Duration("idle-timeout"); d > 0 {
		cfg.Server.IdleReadTimeout = d
	}
	if d := cmd.Duration("shutdown-timeout"); d > 0 {
		cfg.Server.ShutdownTimeout = d
	}

	if limit := int(cmd.Int("rate-limit")); limit > 0 {
		cfg.Server.RateLimit = rate.Limit(limit)
		cfg.Server.RateLimitBurst = int(cmd.Int("rate-burst"))
		if cfg.Server.RateLimitBurst <= 0 {
			cfg.Server.RateLimitBurst = limit
		}
	}

	return cfg
}
