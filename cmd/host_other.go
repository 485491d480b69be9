//go:build !linux

package cmd

import (
	"fmt"
	"os"
	"runtime"
)

func hostPageSize() int64 {
	return int64(os.Getpagesize())
}

func hostBlockSize(dir string) (int64, error) {
	return 0, fmt.Errorf("cannot read the block size of %s on %s", dir, runtime.GOOS)
}
