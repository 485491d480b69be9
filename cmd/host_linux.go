//go:build linux

package cmd

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func hostPageSize() int64 {
	return int64(unix.Getpagesize())
}

// hostBlockSize returns the block size of the filesystem holding dir.
func hostBlockSize(dir string) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", dir, err)
	}
	return int64(st.Bsize), nil
}
