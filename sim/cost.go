package sim

import "fmt"

// SyncIOCost estimates a write issued with O_SYNC semantics: the data is
// copied into the page cache and then written through to the device before
// the call returns. A trailing partial page must be read from the device
// before it can be rewritten, which adds one block read and one block write.
func SyncIOCost(cal *Calibration, size int64, isRandom bool) float64 {
	if size < 0 {
		panic(fmt.Sprintf("SyncIOCost: size must be >= 0, got %d", size))
	}
	rem := size % cal.PageSize
	fit := size - rem

	cost := cal.SyncWriteSyscallCost
	if isRandom {
		cost += cal.SeekSyscallCost
	}
	cost += float64(size) / cal.RamdiskBandwidth
	cost += float64(fit) / cal.DeviceWriteBandwidth
	if rem > 0 {
		bs := float64(cal.LogicalBlockSize)
		cost += bs/cal.DeviceReadBandwidth + bs/cal.DeviceWriteBandwidth
	}
	return cost
}

// DirectIOCost estimates a write that bypasses the page cache entirely.
func DirectIOCost(cal *Calibration, size int64, isRandom bool) float64 {
	if size < 0 {
		panic(fmt.Sprintf("DirectIOCost: size must be >= 0, got %d", size))
	}
	cost := cal.SyncWriteSyscallCost
	if isRandom {
		cost += cal.SeekSyscallCost
	}
	return cost + float64(size)/cal.DeviceWriteBandwidth
}
