/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/prometheus/procfs"

	wserrors "github.com/wisecow/wisecow/pkg/errors"
)

// Report status values.
const (
	StatusHealthy        = "healthy"
	StatusIssuesDetected = "issues_detected"
)

// Thresholds are the alerting limits for system metrics.
type Thresholds struct {
	CPUPercent    float64 `json:"cpu_percent" yaml:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent" yaml:"memory_percent"`
	DiskPercent   float64 `json:"disk_percent" yaml:"disk_percent"`
	ProcessCount  int     `json:"process_count" yaml:"process_count"`
}

// Config holds system monitor configuration.
type Config struct {
	Thresholds Thresholds

	// DiskPath is the filesystem path whose usage is measured.
	DiskPath string

	// ProcMount overrides the procfs mount point, mainly for tests.
	ProcMount string

	// TopN is how many processes to report per ranking.
	TopN int

	// CPUSampleInterval separates the two CPU usage samples.
	CPUSampleInterval time.Duration
}

// NewConfig returns monitor defaults: 80/80/80 percent thresholds,
// 100 process limit, root filesystem, 1s CPU sampling.
func NewConfig() *Config {
	return &Config{
		Thresholds: Thresholds{
			CPUPercent:    80,
			MemoryPercent: 80,
			DiskPercent:   80,
			ProcessCount:  100,
		},
		DiskPath:          "/",
		ProcMount:         procfs.DefaultMountPoint,
		TopN:              5,
		CPUSampleInterval: time.Second,
	}
}

// ProcessInfo describes one process in the top-N rankings.
type ProcessInfo struct {
	PID           int     `json:"pid" yaml:"pid"`
	Command       string  `json:"command" yaml:"command"`
	CPUSeconds    float64 `json:"cpu_seconds" yaml:"cpu_seconds"`
	ResidentBytes int     `json:"resident_bytes" yaml:"resident_bytes"`
}

// Report is one system health snapshot with threshold evaluation applied.
type Report struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Status    string    `json:"status" yaml:"status"`

	CPUPercent       float64 `json:"cpu_percent" yaml:"cpu_percent"`
	MemoryPercent    float64 `json:"memory_percent" yaml:"memory_percent"`
	MemoryUsedBytes  uint64  `json:"memory_used_bytes" yaml:"memory_used_bytes"`
	MemoryTotalBytes uint64  `json:"memory_total_bytes" yaml:"memory_total_bytes"`
	DiskPercent      float64 `json:"disk_percent" yaml:"disk_percent"`
	DiskUsedBytes    uint64  `json:"disk_used_bytes" yaml:"disk_used_bytes"`
	DiskTotalBytes   uint64  `json:"disk_total_bytes" yaml:"disk_total_bytes"`
	ProcessCount     int     `json:"process_count" yaml:"process_count"`

	TopCPU    []ProcessInfo `json:"top_cpu,omitempty" yaml:"top_cpu,omitempty"`
	TopMemory []ProcessInfo `json:"top_memory,omitempty" yaml:"top_memory,omitempty"`

	Alerts []string `json:"alerts,omitempty" yaml:"alerts,omitempty"`
}

// ExitCode implements the automation contract: 0 healthy, 1 issues detected.
func (r *Report) ExitCode() int {
	if r.Status == StatusHealthy {
		return 0
	}
	return 1
}

// Monitor samples system metrics from procfs and the filesystem.
type Monitor struct {
	config *Config
	fs     procfs.FS
}

// New creates a Monitor. A nil config gets defaults.
func New(cfg *Config) (*Monitor, error) {
	if cfg == nil {
		cfg = NewConfig()
	}

	fs, err := procfs.NewFS(cfg.ProcMount)
	if err != nil {
		return nil, wserrors.Wrap(wserrors.ErrCodeUnavailable,
			fmt.Sprintf("cannot open procfs at %s", cfg.ProcMount), err)
	}

	return &Monitor{config: cfg, fs: fs}, nil
}

// Snapshot collects one system health report. Per-process read races are
// tolerated; CPU, memory, and disk read failures are not.
func (m *Monitor) Snapshot(ctx context.Context) (*Report, error) {
	report := &Report{Timestamp: time.Now().UTC()}

	cpu, err := m.sampleCPU(ctx)
	if err != nil {
		return nil, err
	}
	report.CPUPercent = cpu

	if err := m.collectMemory(report); err != nil {
		return nil, err
	}

	if err := collectDisk(m.config.DiskPath, report); err != nil {
		return nil, err
	}

	if err := m.collectProcesses(report); err != nil {
		return nil, err
	}

	applyThresholds(report, m.config.Thresholds)

	slog.Info("system snapshot",
		"cpuPercent", fmt.Sprintf("%.1f", report.CPUPercent),
		"memoryPercent", fmt.Sprintf("%.1f", report.MemoryPercent),
		"diskPercent", fmt.Sprintf("%.1f", report.DiskPercent),
		"processes", report.ProcessCount,
		"alerts", len(report.Alerts),
	)

	return report, nil
}

// sampleCPU computes aggregate CPU utilization from two /proc/stat samples.
func (m *Monitor) sampleCPU(ctx context.Context) (float64, error) {
	first, err := m.fs.Stat()
	if err != nil {
		return 0, wserrors.Wrap(wserrors.ErrCodeUnavailable, "failed to read cpu stats", err)
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(m.config.CPUSampleInterval):
	}

	second, err := m.fs.Stat()
	if err != nil {
		return 0, wserrors.Wrap(wserrors.ErrCodeUnavailable, "failed to read cpu stats", err)
	}

	return cpuPercentBetween(first.CPUTotal, second.CPUTotal), nil
}

func cpuPercentBetween(a, b procfs.CPUStat) float64 {
	busyA := a.User + a.Nice + a.System + a.IRQ + a.SoftIRQ + a.Steal
	busyB := b.User + b.Nice + b.System + b.IRQ + b.SoftIRQ + b.Steal
	idleA := a.Idle + a.Iowait
	idleB := b.Idle + b.Iowait

	totalDelta := (busyB + idleB) - (busyA + idleA)
	if totalDelta <= 0 {
		return 0
	}
	return 100 * (busyB - busyA) / totalDelta
}

func (m *Monitor) collectMemory(report *Report) error {
	mi, err := m.fs.Meminfo()
	if err != nil {
		return wserrors.Wrap(wserrors.ErrCodeUnavailable, "failed to read meminfo", err)
	}
	if mi.MemTotal == nil || mi.MemAvailable == nil || *mi.MemTotal == 0 {
		return wserrors.New(wserrors.ErrCodeUnavailable, "meminfo missing MemTotal/MemAvailable")
	}

	total := *mi.MemTotal * 1024
	available := *mi.MemAvailable * 1024
	used := total - available

	report.MemoryTotalBytes = total
	report.MemoryUsedBytes = used
	report.MemoryPercent = 100 * float64(used) / float64(total)
	return nil
}

func (m *Monitor) collectProcesses(report *Report) error {
	procs, err := m.fs.AllProcs()
	if err != nil {
		return wserrors.Wrap(wserrors.ErrCodeUnavailable, "failed to list processes", err)
	}

	report.ProcessCount = len(procs)

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		stat, err := p.Stat()
		if err != nil {
			// Process exited between listing and reading. Not an error.
			continue
		}
		infos = append(infos, ProcessInfo{
			PID:           p.PID,
			Command:       stat.Comm,
			CPUSeconds:    stat.CPUTime(),
			ResidentBytes: stat.ResidentMemory(),
		})
	}

	report.TopCPU = topBy(infos, m.config.TopN, func(a, b ProcessInfo) bool {
		return a.CPUSeconds > b.CPUSeconds
	})
	report.TopMemory = topBy(infos, m.config.TopN, func(a, b ProcessInfo) bool {
		return a.ResidentBytes > b.ResidentBytes
	})
	return nil
}

// topBy returns the first n entries of infos under the given ordering.
func topBy(infos []ProcessInfo, n int, less func(a, b ProcessInfo) bool) []ProcessInfo {
	sorted := make([]ProcessInfo, len(infos))
	copy(sorted, infos)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// applyThresholds fills Alerts and Status from the collected metrics.
func applyThresholds(r *Report, th Thresholds) {
	if r.CPUPercent > th.CPUPercent {
		r.Alerts = append(r.Alerts, fmt.Sprintf(
			"CPU usage is %.1f%% (threshold: %.0f%%)", r.CPUPercent, th.CPUPercent))
	}
	if r.MemoryPercent > th.MemoryPercent {
		r.Alerts = append(r.Alerts, fmt.Sprintf(
			"memory usage is %.1f%% (threshold: %.0f%%)", r.MemoryPercent, th.MemoryPercent))
	}
	if r.DiskPercent > th.DiskPercent {
		r.Alerts = append(r.Alerts, fmt.Sprintf(
			"disk usage is %.1f%% (threshold: %.0f%%)", r.DiskPercent, th.DiskPercent))
	}
	if r.ProcessCount > th.ProcessCount {
		r.Alerts = append(r.Alerts, fmt.Sprintf(
			"%d processes running (threshold: %d)", r.ProcessCount, th.ProcessCount))
	}

	if len(r.Alerts) == 0 {
		r.Status = StatusHealthy
	} else {
		r.Status = StatusIssuesDetected
	}
}
