/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package daemon

import (
	"fmt"
	"os"
	"time"

	"github.com/wisecow/wisecow/pkg/defaults"
	"github.com/wisecow/wisecow/pkg/server"
)

// DefaultAdminPort serves liveness, readiness, and metrics probes, separate
// from the wisdom port so probe traffic never competes with clients.
const DefaultAdminPort = 8483

// Config holds the full daemon configuration: the serving loop plus the
// content pipeline and the admin endpoint.
type Config struct {
	Server *server.Config

	// Admin endpoint (health/ready/metrics). Zero disables it.
	AdminPort int

	// External generator executables.
	FortunePath string
	CowsayPath  string

	// GeneratorTimeout bounds one content pipeline invocation.
	GeneratorTimeout time.Duration
}

// NewConfig returns daemon defaults with environment overrides applied:
// PORT, ADMIN_PORT, WISECOW_FORTUNE, WISECOW_COWSAY,
// GENERATOR_TIMEOUT_SECONDS, SHUTDOWN_TIMEOUT_SECONDS, LOG_LEVEL.
func NewConfig() *Config {
	cfg := &Config{
		Server:           server.NewConfig(),
		AdminPort:        DefaultAdminPort,
		FortunePath:      "fortune",
		CowsayPath:       "cowsay",
		GeneratorTimeout: defaults.GeneratorTimeout,
	}

	if v := os.Getenv("ADMIN_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.AdminPort = port
		}
	}

	if v := os.Getenv("WISECOW_FORTUNE"); v != "" {
		cfg.FortunePath = v
	}

	if v := os.Getenv("WISECOW_COWSAY"); v != "" {
		cfg.CowsayPath = v
	}

	if v := os.Getenv("GENERATOR_TIMEOUT_SECONDS"); v != "" {
		var seconds int
		if _, err := fmt.Sscanf(v, "%d", &seconds); err == nil && seconds > 0 {
			cfg.GeneratorTimeout = time.Duration(seconds) * time.Second
		}
	}

	return cfg
}
