/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/wisecow/wisecow/pkg/health"
)

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:                  "check",
		EnableShellCompletion: true,
		Usage:                 "Probe application endpoints and report their health",
		Description: `Probes one or more HTTP endpoints and reports whether each responds with
the expected status code. Transport errors and status mismatches are
retried before an endpoint is declared down.

Exits 0 when every endpoint is healthy and 1 otherwise, so the command
can gate deployment pipelines directly.

# Examples

Probe a single endpoint:
  wisecow check --url http://localhost:4499/

Probe endpoints from a config file as JSON:
  wisecow check --config endpoints.yaml --format json

Expect a non-200 status:
  wisecow check --url http://localhost:8483/readyz --expect 200`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Usage:   "Endpoint URL to probe (can be repeated)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"f"},
				Usage:   "Path to a YAML file listing endpoints to probe",
			},
			&cli.IntFlag{
				Name:  "expect",
				Value: 200,
				Usage: "Expected HTTP status code for --url endpoints",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout (default: 5s)",
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "Attempts per endpoint before declaring it down (default: 3)",
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Delay between attempts (default: 2s)",
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := checkConfigFromCmd(cmd)
			if err != nil {
				return err
			}

			report := health.NewChecker(cfg).Check(ctx)

			if err := writeReport(cmd, report); err != nil {
				return err
			}

			if code := report.ExitCode(); code != 0 {
				return exitWithCode(code, fmt.Errorf("unhealthy endpoints detected (status: %s)", report.Status))
			}
			return nil
		},
	}
}

func checkConfigFromCmd(cmd *cli.Command) (*health.Config, error) {
	urls := cmd.StringSlice("url")
	configPath := cmd.String("config")

	if configPath != "" && len(urls) > 0 {
		return nil, fmt.Errorf("--config and --url are mutually exclusive")
	}

	var cfg *health.Config
	if configPath != "" {
		loaded, err := health.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = health.NewConfig()
		for _, u := range urls {
			cfg.Endpoints = append(cfg.Endpoints, health.Endpoint{
				URL:            u,
				ExpectedStatus: int(cmd.Int("expect")),
			})
		}
	}

	if d := cmd.Duration("timeout"); d > 0 {
		cfg.Timeout = d
	}
	if n := int(cmd.Int("retries")); n > 0 {
		cfg.RetryAttempts = n
	}
	if d := cmd.Duration("retry-delay"); d > 0 {
		cfg.RetryDelay = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
