// Package testutil provides shared test infrastructure for the iocost
// simulator: a small calibration with round numbers and assertion helpers
// for the dirty-range invariants. Used by sim_test and sim/pagecache tests.
package testutil

import (
	"math"
	"testing"

	"github.com/iocost-sim/iocost-sim/sim"
)

// Calibration returns a valid calibration with round numbers so that
// expected costs can be computed by hand:
//
//	setpoint = (100 + 300) / 2 = 200 bytes
//	free-run rate = 10 B/s, async rate = 5 B/s
func Calibration() *sim.Calibration {
	return &sim.Calibration{
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

// RangeSource is the read-only view of a page-cache index the range
// assertions need.
type RangeSource interface {
	Handles() []int
	Ranges(handle int) []sim.DirtyRange
	Dirty() int64
}

// AssertRangesConsistent checks that every handle's ranges are sorted,
// non-empty and pairwise non-overlapping, and that their lengths sum to Dirty().
func AssertRangesConsistent(t *testing.T, src RangeSource) {
	t.Helper()
	var sum int64
	for _, h := range src.Handles() {
		ranges := src.Ranges(h)
		for i, r := range ranges {
			if r.Length <= 0 {
				t.Errorf("handle %d range %d: non-positive length %d", h, i, r.Length)
			}
			if i > 0 && ranges[i-1].End() > r.Offset {
				t.Errorf("handle %d: ranges [%d,%d) and [%d,%d) overlap",
					h, ranges[i-1].Offset, ranges[i-1].End(), r.Offset, r.End())
			}
			sum += r.Length
		}
	}
	if sum != src.Dirty() {
		t.Errorf("dirty counter %d does not match sum of range lengths %d", src.Dirty(), sum)
	}
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
