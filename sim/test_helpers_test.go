package sim

import "testing"

// testCalibration mirrors sim/internal/testutil.Calibration, which package
// sim tests cannot import:
//
//	setpoint = (100 + 300) / 2 = 200 bytes
//	free-run rate = 10 B/s, async rate = 5 B/s
func testCalibration() *Calibration {
	return &Calibration{
		WriteSyscallCost:     1,
		SyncWriteSyscallCost: 2,
		SeekSyscallCost:      0.5,
		LogicalBlockSize:     8,
		PageSize:             16,
		DeviceReadBandwidth:  4,
		DeviceWriteBandwidth: 2,
		SyncBandwidth:        4,
		RamdiskBandwidth:     10,
		MemoryBandwidth:      100,
		LimitBackground:      100,
		LimitHard:            300,
		DirtyExpire:          30,
		BackgroundCoeff:      0.5,
		LibraryBufferSize:    4096,
		LibraryCallCost:      0.01,
	}
}

// slowDrainCalibration writes back so slowly that nothing leaves the cache
// within a test, which pins the dirty level.
func slowDrainCalibration() *Calibration {
	cal := testCalibration()
	cal.SyncBandwidth = 0.001
	cal.DeviceWriteBandwidth = 0.001
	return cal
}

func newTestSim(t *testing.T, kind StoreKind) *Simulator {
	t.Helper()
	return NewSimulator(testCalibration(), NewDirtyStore(kind))
}
