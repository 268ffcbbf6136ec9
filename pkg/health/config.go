/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package health

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wisecow/wisecow/pkg/defaults"
	wserrors "github.com/wisecow/wisecow/pkg/errors"
)

// Endpoint is one probe target. ExpectedStatus defaults to 200.
type Endpoint struct {
	URL            string `json:"url" yaml:"url"`
	ExpectedStatus int    `json:"expected_status,omitempty" yaml:"expected_status,omitempty"`
}

// Config holds health checker configuration.
type Config struct {
	Endpoints     []Endpoint    `json:"endpoints" yaml:"endpoints"`
	Timeout       time.Duration `json:"timeout" yaml:"timeout"`
	RetryAttempts int           `json:"retry_attempts" yaml:"retry_attempts"`
	RetryDelay    time.Duration `json:"retry_delay" yaml:"retry_delay"`
}

// NewConfig returns checker defaults: 5s timeout, 3 attempts, 2s delay.
func NewConfig() *Config {
	return &Config{
		Timeout:       defaults.CheckTimeout,
		RetryAttempts: defaults.CheckRetryAttempts,
		RetryDelay:    defaults.CheckRetryDelay,
	}
}

// LoadConfig reads a YAML endpoint list from path, layered over defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wserrors.Wrap(wserrors.ErrCodeInvalidConfig,
			fmt.Sprintf("failed to read config %s", path), err)
	}

	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, wserrors.Wrap(wserrors.ErrCodeInvalidConfig,
			fmt.Sprintf("failed to parse config %s", path), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot probe.
func (c *Config) Validate() error {
	if len(c.Endpoints) == 0 {
		return wserrors.New(wserrors.ErrCodeInvalidConfig, "no endpoints configured")
	}
	for _, ep := range c.Endpoints {
		if ep.URL == "" {
			return wserrors.New(wserrors.ErrCodeInvalidConfig, "endpoint with empty URL")
		}
	}
	if c.RetryAttempts < 1 {
		return wserrors.New(wserrors.ErrCodeInvalidConfig, "retry attempts must be at least 1")
	}
	if c.Timeout <= 0 {
		return wserrors.New(wserrors.ErrCodeInvalidConfig, "timeout must be positive")
	}
	return nil
}
