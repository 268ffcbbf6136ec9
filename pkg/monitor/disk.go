/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package monitor

import (
	"fmt"

	"golang.org/x/sys/unix"

	wserrors "github.com/wisecow/wisecow/pkg/errors"
)

// collectDisk fills the disk usage fields from a statfs on path.
// Percent follows the used/(used+available) convention, matching what an
// unprivileged caller can actually allocate.
func collectDisk(path string, report *Report) error {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return wserrors.Wrap(wserrors.ErrCodeUnavailable,
			fmt.Sprintf("statfs failed for %s", path), err)
	}

	bsize := uint64(st.Bsize)
	total := st.Blocks * bsize
	used := (st.Blocks - st.Bfree) * bsize
	available := st.Bavail * bsize

	report.DiskTotalBytes = total
	report.DiskUsedBytes = used
	if used+available > 0 {
		report.DiskPercent = 100 * float64(used) / float64(used+available)
	}
	return nil
}
