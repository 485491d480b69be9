package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Calibration holds the measured host constants the cost model is built on.
// Values come from an external calibration run and are never mutated by the
// simulator. Times are in seconds, sizes in bytes, bandwidths in bytes/second.
type Calibration struct {
	WriteSyscallCost     float64 `yaml:"write_syscall_cost"`      // scW: buffered write() overhead
	SyncWriteSyscallCost float64 `yaml:"sync_write_syscall_cost"` // scSw: O_SYNC/O_DIRECT write() overhead
	SeekSyscallCost      float64 `yaml:"seek_syscall_cost"`       // scSk: lseek() overhead
	LogicalBlockSize     int64   `yaml:"logical_block_size"`      // bs: device logical block
	PageSize             int64   `yaml:"page_size"`

	DeviceReadBandwidth  float64 `yaml:"device_read_bandwidth"`
	DeviceWriteBandwidth float64 `yaml:"device_write_bandwidth"`
	SyncBandwidth        float64 `yaml:"os_sync_bandwidth"`       // rate at which the kernel writes back a sequential stream
	RamdiskBandwidth     float64 `yaml:"ramdisk_write_bandwidth"` // rate at which write() fills the page cache
	MemoryBandwidth      float64 `yaml:"memory_write_bandwidth"`  // user-space memcpy rate

	LimitBackground int64   `yaml:"dirty_background_bytes"`
	LimitHard       int64   `yaml:"dirty_bytes"`
	DirtyExpire     float64 `yaml:"dirty_expire_seconds"`

	// BackgroundCoeff scales RamdiskBandwidth while the kernel flusher runs
	// concurrently with the writer. Must be in (0, 1].
	BackgroundCoeff float64 `yaml:"os_background_sync_coefficient"`

	LibraryBufferSize int64   `yaml:"c_library_buffer_size"`
	LibraryCallCost   float64 `yaml:"c_library_latency"`
}

// Setpoint is the dirty level at which writers start being throttled:
// the midpoint of the background and hard thresholds.
func (c *Calibration) Setpoint() int64 {
	return (c.LimitBackground + c.LimitHard) / 2
}

// Validate checks the calibration invariants the simulator relies on.
func (c *Calibration) Validate() error {
	bandwidths := []struct {
		name string
		val  float64
	}{
		{"device_read_bandwidth", c.DeviceReadBandwidth},
		{"device_write_bandwidth", c.DeviceWriteBandwidth},
		{"os_sync_bandwidth", c.SyncBandwidth},
		{"ramdisk_write_bandwidth", c.RamdiskBandwidth},
		{"memory_write_bandwidth", c.MemoryBandwidth},
	}
	for _, bw := range bandwidths {
		if !(bw.val > 0) || math.IsInf(bw.val, 0) {
			return fmt.Errorf("calibration: %s must be a finite value > 0, got %v", bw.name, bw.val)
		}
	}
	costs := []struct {
		name string
		val  float64
	}{
		{"write_syscall_cost", c.WriteSyscallCost},
		{"sync_write_syscall_cost", c.SyncWriteSyscallCost},
		{"seek_syscall_cost", c.SeekSyscallCost},
		{"c_library_latency", c.LibraryCallCost},
		{"dirty_expire_seconds", c.DirtyExpire},
	}
	for _, cost := range costs {
		if math.IsNaN(cost.val) || math.IsInf(cost.val, 0) || cost.val < 0 {
			return fmt.Errorf("calibration: %s must be a finite value >= 0, got %v", cost.name, cost.val)
		}
	}
	if c.LogicalBlockSize <= 0 {
		return fmt.Errorf("calibration: logical_block_size must be > 0, got %d", c.LogicalBlockSize)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("calibration: page_size must be > 0, got %d", c.PageSize)
	}
	if c.LibraryBufferSize <= 0 {
		return fmt.Errorf("calibration: c_library_buffer_size must be > 0, got %d", c.LibraryBufferSize)
	}
	if c.LimitBackground <= 0 {
		return fmt.Errorf("calibration: dirty_background_bytes must be > 0, got %d", c.LimitBackground)
	}
	if c.LimitBackground >= c.LimitHard {
		return fmt.Errorf("calibration: dirty_background_bytes (%d) must be < dirty_bytes (%d)",
			c.LimitBackground, c.LimitHard)
	}
	if !(c.BackgroundCoeff > 0) || c.BackgroundCoeff > 1 {
		return fmt.Errorf("calibration: os_background_sync_coefficient must be in (0, 1], got %v", c.BackgroundCoeff)
	}
	return nil
}

// CalibrationFile is the on-disk layout of a calibration store: one section
// per measured host.
type CalibrationFile struct {
	Version string                 `yaml:"version"`
	Hosts   map[string]Calibration `yaml:"hosts"`
}

// LoadCalibrationFile reads and strictly parses a calibration YAML file.
// Unknown keys are rejected so a typo cannot silently zero a constant.
func LoadCalibrationFile(path string) (*CalibrationFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading calibration file: %w", err)
	}
	var file CalibrationFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing calibration file %q: %w", path, err)
	}
	return &file, nil
}

// Host returns the calibration section for the named host.
// The returned value is a copy; validation is left to the caller so that
// missing fields can be filled in first.
func (f *CalibrationFile) Host(name string) (Calibration, error) {
	cal, ok := f.Hosts[name]
	if !ok {
		available := make([]string, 0, len(f.Hosts))
		for k := range f.Hosts {
			available = append(available, k)
		}
		sort.Strings(available)
		return Calibration{}, fmt.Errorf("host %q not found in calibration file (available: %v)", name, available)
	}
	return cal, nil
}
