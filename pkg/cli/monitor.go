/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/wisecow/wisecow/pkg/monitor"
)

func monitorCmd() *cli.Command {
	return &cli.Command{
		Name:                  "monitor",
		EnableShellCompletion: true,
		Usage:                 "Snapshot system health and flag threshold violations",
		Description: `Samples CPU, memory, disk, and process count from the local system,
compares each against its threshold, and reports the offenders along
with the top consumers by CPU and memory.

Exits 0 when everything is under threshold and 1 when issues are
detected, so the command can drive cron-based alerting.

# Examples

One snapshot with defaults (80%% CPU/memory/disk, 100 processes):
  wisecow monitor

Tighter limits, JSON output:
  wisecow monitor --cpu-threshold 50 --proc-threshold 400 --format json

Watch a different filesystem:
  wisecow monitor --disk-path /var/lib/docker`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "cpu-threshold",
				Value: 80,
				Usage: "CPU usage alert threshold in percent",
			},
			&cli.IntFlag{
				Name:  "mem-threshold",
				Value: 80,
				Usage: "Memory usage alert threshold in percent",
			},
			&cli.IntFlag{
				Name:  "disk-threshold",
				Value: 80,
				Usage: "Disk usage alert threshold in percent",
			},
			&cli.IntFlag{
				Name:  "proc-threshold",
				Value: 100,
				Usage: "Process count alert threshold",
			},
			&cli.StringFlag{
				Name:  "disk-path",
				Value: "/",
				Usage: "Filesystem path whose usage is measured",
			},
			&cli.StringFlag{
				Name:  "proc-mount",
				Value: "/proc",
				Usage: "Procfs mount point (e.g. /host/proc when containerized)",
			},
			&cli.IntFlag{
				Name:  "top",
				Value: 5,
				Usage: "Number of processes to list per ranking",
			},
			&cli.DurationFlag{
				Name:  "sample-interval",
				Usage: "Interval between the two CPU samples (default: 1s)",
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m, err := monitor.New(monitorConfigFromCmd(cmd))
			if err != nil {
				return fmt.Errorf("failed to create monitor: %w", err)
			}

			report, err := m.Snapshot(ctx)
			if err != nil {
				return fmt.Errorf("failed to snapshot system health: %w", err)
			}

			if err := writeReport(cmd, report); err != nil {
				return err
			}

			if code := report.ExitCode(); code != 0 {
				return exitWithCode(code, fmt.Errorf("system health issues detected: %v", report.Alerts))
			}
			return nil
		},
	}
}

func monitorConfigFromCmd(cmd *cli.Command) *monitor.Config {
	cfg := monitor.NewConfig()

	cfg.Thresholds.CPUPercent = float64(cmd.Int("cpu-threshold"))
	cfg.Thresholds.MemoryPercent = float64(cmd.Int("mem-threshold"))
	cfg.Thresholds.DiskPercent = float64(cmd.Int("disk-threshold"))
	cfg.Thresholds.ProcessCount = int(cmd.Int("proc-threshold"))
	cfg.DiskPath = cmd.String("disk-path")
	cfg.ProcMount = cmd.String("proc-mount")
	cfg.TopN = int(cmd.Int("top"))

	if d := cmd.Duration("sample-interval"); d > 0 {
		cfg.CPUSampleInterval = d
	}

	return cfg
}
