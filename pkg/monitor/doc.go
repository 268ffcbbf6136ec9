/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package monitor samples host health (CPU, memory, disk, process count)
// from procfs and the filesystem, evaluates the results against alert
// thresholds, and produces a report with an exit-code contract for
// automation (0 healthy, 1 issues detected).
package monitor
