package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iocost-sim/iocost-sim/sim"
)

// testCalibrationYAML matches sim/internal/testutil.Calibration: a free-run
// rate of 10 B/s, scW = 1 s and a 100-byte background threshold.
const testCalibrationYAML = `version: "1"
hosts:
  default:
    write_syscall_cost: 1
    sync_write_syscall_cost: 2
    seek_syscall_cost: 0.5
    logical_block_size: 8
    page_size: 16
    device_read_bandwidth: 4
    device_write_bandwidth: 2
    os_sync_bandwidth: 4
    ramdisk_write_bandwidth: 10
    memory_write_bandwidth: 100
    dirty_background_bytes: 100
    dirty_bytes: 300
    dirty_expire_seconds: 30
    os_background_sync_coefficient: 0.5
    c_library_buffer_size: 4096
    c_library_latency: 0.01
  nopage:
    write_syscall_cost: 1
    sync_write_syscall_cost: 2
    seek_syscall_cost: 0.5
    logical_block_size: 8
    device_read_bandwidth: 4
    device_write_bandwidth: 2
    os_sync_bandwidth: 4
    ramdisk_write_bandwidth: 10
    memory_write_bandwidth: 100
    dirty_background_bytes: 100
    dirty_bytes: 300
    dirty_expire_seconds: 30
    os_background_sync_coefficient: 0.5
    c_library_buffer_size: 4096
    c_library_latency: 0.01
  noblock:
    write_syscall_cost: 1
    sync_write_syscall_cost: 2
    seek_syscall_cost: 0.5
    page_size: 16
    device_read_bandwidth: 4
    device_write_bandwidth: 2
    os_sync_bandwidth: 4
    ramdisk_write_bandwidth: 10
    memory_write_bandwidth: 100
    dirty_background_bytes: 100
    dirty_bytes: 300
    dirty_expire_seconds: 30
    os_background_sync_coefficient: 0.5
    c_library_buffer_size: 4096
    c_library_latency: 0.01
  broken:
    logical_block_size: 8
`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testCalibration(t *testing.T) *sim.Calibration {
	t.Helper()
	cal, err := loadCalibration(writeTempFile(t, "calibration.yaml", testCalibrationYAML), "default", "")
	require.NoError(t, err)
	return cal
}
