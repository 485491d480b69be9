package sim

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iocost-sim/iocost-sim/sim/trace"
)

func TestSimulator_SyscallIOCost_FreeRunWorkedExample(t *testing.T) {
	for _, kind := range []StoreKind{StoreFIFO, StorePageCache} {
		t.Run(string(kind), func(t *testing.T) {
			// GIVEN an empty cache
			s := newTestSim(t, kind)

			// WHEN 50 bytes are written
			cost := s.SyscallIOCost(50, 0)

			// THEN the write runs at memory speed: 50/10 + 1
			assert.Equal(t, 6.0, cost)
			assert.Equal(t, int64(50), s.Dirty())
			assert.Equal(t, RegimeFreeRun, s.LastRegime())
			assert.Equal(t, 6.0, s.Clock())
			assert.Equal(t, 6.0, s.IOTime())
			assert.InDelta(t, 50.0/6.0, s.AvgBandwidth(), 1e-12)
		})
	}
}

func TestSimulator_AsyncRegime_FromExpiredRange(t *testing.T) {
	// GIVEN a small write that outlives the expiry interval
	s := NewSimulator(slowDrainCalibration(), NewDirtyStore(StoreFIFO))
	s.SyscallIOCost(10, 0)

	// WHEN the next write arrives long after
	cost := s.SyscallIOCost(10, 40)

	// THEN it is admitted at the async rate (10*0.5) despite the low dirty level
	assert.Equal(t, RegimeAsync, s.LastRegime())
	assert.InDelta(t, 10.0/5.0+1, cost, 1e-12)
}

func TestSimulator_ThrottledRegime_CappedAtAsyncRate(t *testing.T) {
	// GIVEN the cache filled past the setpoint
	s := NewSimulator(slowDrainCalibration(), NewDirtyStore(StoreFIFO))
	s.SyscallIOCost(250, 0)
	require.Equal(t, int64(250), s.Dirty())

	// WHEN another write arrives
	cost := s.SyscallIOCost(10, 0)

	// THEN the throttled rate min(bwAvg*0.875, 5) = 5 applies
	assert.Equal(t, RegimeThrottled, s.LastRegime())
	assert.InDelta(t, 10.0/5.0+1, cost, 1e-12)
}

func TestSimulator_AtHardLimit_PacedByDrainBandwidth(t *testing.T) {
	// GIVEN the cache at the hard limit, where the position ratio is zero
	cal := slowDrainCalibration()
	s := NewSimulator(cal, NewDirtyStore(StoreFIFO))
	s.SyscallIOCost(300, 0)

	// WHEN another write arrives
	cost := s.SyscallIOCost(10, 0)

	// THEN it still completes, at the write-back rate
	assert.Equal(t, RegimeThrottled, s.LastRegime())
	assert.False(t, math.IsInf(cost, 0))
	assert.InDelta(t, 10/cal.SyncBandwidth+cal.WriteSyscallCost, cost, 1e-6)
}

func TestSimulator_BackgroundFlush_DrainsDuringDelay(t *testing.T) {
	// GIVEN 100 dirty bytes at the background threshold
	s := newTestSim(t, StoreFIFO)
	s.SyscallIOCost(100, 0) // cost 11; 11s at 4 B/s drains 44 bytes
	require.Equal(t, int64(56), s.Dirty())

	// WHEN the writer idles long enough for a full write-back
	s.SyscallIOCost(0, 100)

	// THEN the remaining bytes were flushed because the range expired
	assert.Equal(t, int64(0), s.Dirty())
	assert.Equal(t, int64(100), s.Metrics().BytesFlushed)
}

func TestSimulator_Rewrites_CoalesceOnlyInPageCache(t *testing.T) {
	pc := newTestSim(t, StorePageCache)
	fifo := newTestSim(t, StoreFIFO)

	for _, s := range []*Simulator{pc, fifo} {
		s.SyscallIOCostComplete(0, 1, 0, 40)
		s.SyscallIOCostComplete(0, 1, 0, 40)
	}

	assert.Equal(t, int64(40), pc.Dirty())
	assert.Equal(t, int64(80), fifo.Dirty())
}

func TestSimulator_FIFO_DirtyConservation(t *testing.T) {
	// GIVEN a mixed random workload
	s := newTestSim(t, StoreFIFO)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 300; i++ {
		s.SyscallIOCost(int64(rng.Intn(80)), rng.Float64()*5)

		// THEN admitted bytes are either dirty or flushed
		m := s.Metrics()
		require.Equal(t, m.BytesWritten-m.BytesFlushed, s.Dirty(), "call %d", i)
	}
}

func TestSimulator_ClockAndIOTime_Monotonic(t *testing.T) {
	s := newTestSim(t, StorePageCache)
	rng := rand.New(rand.NewSource(11))
	cal := s.Calibration()

	prevClock, prevIO := s.Clock(), s.IOTime()
	for i := 0; i < 200; i++ {
		cost := s.SyscallIOCostComplete(rng.Float64(), 0, int64(rng.Intn(1000)), int64(rng.Intn(100)))
		assert.GreaterOrEqual(t, cost, cal.WriteSyscallCost)
		assert.GreaterOrEqual(t, s.Clock(), prevClock)
		assert.GreaterOrEqual(t, s.IOTime(), prevIO)
		assert.GreaterOrEqual(t, s.Clock(), s.IOTime())
		prevClock, prevIO = s.Clock(), s.IOTime()
	}
}

func TestSimulator_Deterministic(t *testing.T) {
	run := func() []float64 {
		s := newTestSim(t, StorePageCache)
		costs := make([]float64, 0, 100)
		for i := 0; i < 100; i++ {
			costs = append(costs, s.SyscallIOCostComplete(0.5, i%3, int64(i*7%200), 25))
		}
		return costs
	}
	assert.Equal(t, run(), run())
}

func TestSimulator_InvalidArguments_Panic(t *testing.T) {
	s := newTestSim(t, StorePageCache)
	assert.PanicsWithValue(t, "SyscallIOCost: size must be >= 0, got -1", func() { s.SyscallIOCost(-1, 0) })
	assert.PanicsWithValue(t, "syscall: delay must be >= 0, got -1", func() { s.SyscallIOCost(1, -1) })
	assert.Panics(t, func() { s.SyscallIOCost(1, math.NaN()) })
	assert.PanicsWithValue(t, "SyscallIOCostComplete: offset must be >= 0, got -3", func() {
		s.SyscallIOCostComplete(0, 0, -3, 1)
	})
	assert.PanicsWithValue(t, "SyscallIOCostComplete: size must be >= 0, got -2", func() {
		s.SyscallIOCostComplete(0, 0, 0, -2)
	})
}

func TestNewSimulator_Preconditions(t *testing.T) {
	store := NewDirtyStore(StoreFIFO)
	assert.PanicsWithValue(t, "NewSimulator: calibration must not be nil", func() {
		NewSimulator(nil, store)
	})
	assert.PanicsWithValue(t, "NewSimulator: store must not be nil", func() {
		NewSimulator(testCalibration(), nil)
	})

	bad := testCalibration()
	bad.PageSize = 0
	assert.PanicsWithValue(t, "NewSimulator: calibration: page_size must be > 0, got 0", func() {
		NewSimulator(bad, store)
	})
}

func TestSimulator_Trace_RecordsEveryCall(t *testing.T) {
	s := newTestSim(t, StoreFIFO)
	s.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelCalls})

	s.SyscallIOCost(50, 0)
	s.SyscallIOCostComplete(1, 0, 0, 10)

	require.Len(t, s.Trace.Calls, 2)
	first := s.Trace.Calls[0]
	assert.Equal(t, "syscall", first.Op)
	assert.Equal(t, 6.0, first.Cost)
	assert.Equal(t, int64(50), first.Dirty)
	assert.Equal(t, "free-run", first.Regime)
	assert.Equal(t, "complete", s.Trace.Calls[1].Op)
}

func TestSimulator_Trace_LevelNoneRecordsNothing(t *testing.T) {
	s := newTestSim(t, StoreFIFO)
	s.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelNone})
	s.SyscallIOCost(50, 0)
	assert.Empty(t, s.Trace.Calls)
}

func TestSimulator_MetricsTrackRegimes(t *testing.T) {
	s := NewSimulator(slowDrainCalibration(), NewDirtyStore(StoreFIFO))
	s.SyscallIOCost(100, 0) // free-run
	s.SyscallIOCost(100, 0) // async
	s.SyscallIOCost(10, 0)  // throttled

	m := s.Metrics()
	assert.Equal(t, 3, m.Writes)
	assert.Equal(t, int64(210), m.BytesWritten)
	assert.Equal(t, 1, m.RegimeWrites[RegimeFreeRun])
	assert.Equal(t, 1, m.RegimeWrites[RegimeAsync])
	assert.Equal(t, 1, m.RegimeWrites[RegimeThrottled])
	assert.Equal(t, int64(210), m.PeakDirty)
}

func TestSimulator_OffsetOverflow_Panics(t *testing.T) {
	// GIVEN a stream that has almost exhausted the offset space
	s := newTestSim(t, StorePageCache)
	s.streamOffset = math.MaxInt64 - 10

	// THEN appending past it fails fast
	assert.PanicsWithValue(t, fmt.Sprintf("SyscallIOCost: stream offset %d + size 11 overflows int64", int64(math.MaxInt64-10)), func() {
		s.SyscallIOCost(11, 0)
	})
	assert.NotPanics(t, func() { s.SyscallIOCost(10, 0) })

	assert.PanicsWithValue(t, fmt.Sprintf("SyscallIOCostComplete: offset %d + size 100 overflows int64", int64(math.MaxInt64-50)), func() {
		s.SyscallIOCostComplete(0, 0, math.MaxInt64-50, 100)
	})
}

// monotonicPrefix drives a simulator into a state with dirty data, an active
// flusher and a partly filled library buffer.
func monotonicPrefix(t *testing.T, kind StoreKind) *Simulator {
	s := newTestSim(t, kind)
	s.SyscallIOCostComplete(0, 1, 0, 60)
	s.SyscallIOCost(70, 0.5)
	s.LibraryIOCost(1000, 0.25)
	return s
}

func TestSimulator_Cost_NonDecreasingInSize(t *testing.T) {
	bf := testCalibration().LibraryBufferSize
	var syscallSizes []int64
	for size := int64(0); size <= 400; size += 7 {
		syscallSizes = append(syscallSizes, size)
	}
	// pending is 1000 after the prefix, so the buffer overflows past 3096
	var librarySizes []int64
	for _, edge := range []int64{0, bf - 1000, bf, 2*bf - 1000, 2 * bf, 3 * bf} {
		for d := int64(-2); d <= 2; d++ {
			if edge+d >= 0 {
				librarySizes = append(librarySizes, edge+d)
			}
		}
	}

	ops := []struct {
		name  string
		sizes []int64
		call  func(s *Simulator, size int64) float64
	}{
		{"syscall", syscallSizes, func(s *Simulator, size int64) float64 { return s.SyscallIOCost(size, 0.1) }},
		{"complete", syscallSizes, func(s *Simulator, size int64) float64 { return s.SyscallIOCostComplete(0.1, 1, 30, size) }},
		{"library", librarySizes, func(s *Simulator, size int64) float64 { return s.LibraryIOCost(size, 0.1) }},
	}
	for _, kind := range []StoreKind{StoreFIFO, StorePageCache} {
		for _, op := range ops {
			t.Run(string(kind)+"/"+op.name, func(t *testing.T) {
				// GIVEN identical simulator states for every size
				prev := math.Inf(-1)
				for _, size := range op.sizes {
					s := monotonicPrefix(t, kind)

					// WHEN the same call is made with a larger size
					cost := op.call(s, size)

					// THEN the cost never decreases
					assert.GreaterOrEqual(t, cost, prev, "size %d", size)
					prev = cost
				}
			})
		}
	}
}
