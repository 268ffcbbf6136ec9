/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package server

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/wisecow/wisecow/pkg/defaults"
	wserrors "github.com/wisecow/wisecow/pkg/errors"
	"github.com/wisecow/wisecow/pkg/wisdom"
)

// DefaultPort is the well-known wisecow serving port.
const DefaultPort = 4499

// Config holds the TCP server configuration.
type Config struct {
	// Server configuration
	Address string
	Port    int

	// Accept throttling. Zero disables the limiter.
	RateLimit      rate.Limit // connections per second
	RateLimitBurst int        // burst size

	// FallbackBody is written when content generation fails.
	FallbackBody string

	// Timeouts
	IdleReadTimeout time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// NewConfig returns a new Config with sensible defaults.
// Use this when you want to customize config programmatically.
func NewConfig() *Config {
	return parseConfig()
}

// parseConfig returns defaults with environment overrides applied.
func parseConfig() *Config {
	cfg := &Config{
		Address:         "",
		Port:            DefaultPort,
		RateLimit:       0, // disabled unless configured
		RateLimitBurst:  0,
		FallbackBody:    wisdom.Fallback,
		IdleReadTimeout: defaults.ServerIdleReadTimeout,
		WriteTimeout:    defaults.ServerWriteTimeout,
		ShutdownTimeout: defaults.ServerShutdownTimeout,
	}

	// Override with environment variables if set
	if portStr := os.Getenv("PORT"); portStr != "" {
		var port int
		if _, err := fmt.Sscanf(portStr, "%d", &port); err == nil {
			cfg.Port = port
		}
	}

	// Allow customization of shutdown timeout to match K8s eviction grace period
	if shutdownStr := os.Getenv("SHUTDOWN_TIMEOUT_SECONDS"); shutdownStr != "" {
		var seconds int
		if _, err := fmt.Sscanf(shutdownStr, "%d", &seconds); err == nil && seconds > 0 {
			cfg.ShutdownTimeout = time.Duration(seconds) * time.Second
		}
	}

	return cfg
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}

// Validate checks the configuration for values that cannot serve.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return wserrors.NewWithContext(wserrors.ErrCodeInvalidConfig,
			"port out of range", map[string]any{"port": c.Port})
	}
	if c.IdleReadTimeout <= 0 {
		return wserrors.New(wserrors.ErrCodeInvalidConfig, "idle read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return wserrors.New(wserrors.ErrCodeInvalidConfig, "write timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return wserrors.New(wserrors.ErrCodeInvalidConfig, "shutdown timeout must be positive")
	}
	return nil
}
