// sim/simulator.go
package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/iocost-sim/iocost-sim/sim/trace"
)

// StreamHandle is the file handle offset-less writes are recorded under
// when the store tracks addresses. Such writes form one append-only stream.
const StreamHandle = -1

// Simulator predicts the elapsed time of I/O calls against one device.
// It holds the simulated clock, the write-back controller state and the
// library buffer. Calls must be issued in the order the modeled operations
// happen; the simulator is not safe for concurrent use.
type Simulator struct {
	cal   *Calibration
	store DirtyStore

	clock  float64 // simulated wall time
	ioTime float64 // time spent inside write calls
	bwAvg  float64 // running average admitted throughput

	pending      int64   // bytes staged in the library buffer
	pendingDelay float64 // time accumulated since the buffer was last flushed

	streamOffset int64 // next offset of the offset-less stream
	lastRegime   Regime

	metrics *Metrics

	// Trace, if set, receives one record per cost call.
	Trace *trace.SimulationTrace
}

// NewSimulator binds a simulator to a calibration and a dirty store.
// The calibration is borrowed and must outlive the simulator.
// Panics if the calibration is invalid or store is nil.
func NewSimulator(cal *Calibration, store DirtyStore) *Simulator {
	if cal == nil {
		panic("NewSimulator: calibration must not be nil")
	}
	if err := cal.Validate(); err != nil {
		panic(fmt.Sprintf("NewSimulator: %v", err))
	}
	if store == nil {
		panic("NewSimulator: store must not be nil")
	}
	return &Simulator{
		cal:        cal,
		store:      store,
		lastRegime: RegimeFreeRun,
		metrics:    NewMetrics(),
	}
}

// SyscallIOCost returns the cost of a buffered write() of size bytes issued
// delay seconds after the previous call, with no address information.
func (s *Simulator) SyscallIOCost(size int64, delay float64) float64 {
	if size < 0 {
		panic(fmt.Sprintf("SyscallIOCost: size must be >= 0, got %d", size))
	}
	if size > math.MaxInt64-s.streamOffset {
		panic(fmt.Sprintf("SyscallIOCost: stream offset %d + size %d overflows int64", s.streamOffset, size))
	}
	offset := s.streamOffset
	s.streamOffset += size
	return s.write("syscall", delay, StreamHandle, offset, size)
}

// SyscallIOCostComplete returns the cost of a buffered write() of size bytes
// at offset in the file identified by handle, issued delay seconds after the
// previous call. Rewrites of still-dirty bytes replace them in the cache.
func (s *Simulator) SyscallIOCostComplete(delay float64, handle int, offset, size int64) float64 {
	if size < 0 {
		panic(fmt.Sprintf("SyscallIOCostComplete: size must be >= 0, got %d", size))
	}
	if offset < 0 {
		panic(fmt.Sprintf("SyscallIOCostComplete: offset must be >= 0, got %d", offset))
	}
	if size > math.MaxInt64-offset {
		panic(fmt.Sprintf("SyscallIOCostComplete: offset %d + size %d overflows int64", offset, size))
	}
	return s.write("complete", delay, handle, offset, size)
}

func (s *Simulator) write(op string, delay float64, handle int, offset, size int64) float64 {
	if !(delay >= 0) {
		panic(fmt.Sprintf("%s: delay must be >= 0, got %v", op, delay))
	}
	s.clock += delay
	s.backgroundFlush(delay)

	regime := ClassifyRegime(s.cal, s.store.Dirty(), s.expired())
	if regime != s.lastRegime {
		logrus.Debugf("[t=%.6f] write-back regime %s -> %s (dirty=%d)", s.clock, s.lastRegime, regime, s.store.Dirty())
		s.lastRegime = regime
	}
	rate := s.admittedRate(regime)
	cost := float64(size)/rate + s.cal.WriteSyscallCost

	s.store.Insert(handle, offset, size, s.clock+cost)
	if s.ioTime+cost > 0 {
		s.bwAvg = (s.bwAvg*s.ioTime + float64(size)) / (s.ioTime + cost)
	}
	s.clock += cost
	s.ioTime += cost

	s.backgroundFlush(cost)

	s.metrics.record(regime, size, cost, s.store.Dirty())
	s.recordTrace(op, size, cost, regime)
	return cost
}

func (s *Simulator) recordTrace(op string, size int64, cost float64, regime Regime) {
	if s.Trace == nil || s.Trace.Config.Level == trace.TraceLevelNone {
		return
	}
	s.Trace.RecordCall(trace.CallRecord{
		Op:     op,
		Clock:  s.clock,
		Size:   size,
		Cost:   cost,
		Regime: regime.String(),
		Dirty:  s.store.Dirty(),
	})
}

// SyncIOCost is the stateless O_SYNC write estimate for this simulator's calibration.
func (s *Simulator) SyncIOCost(size int64, isRandom bool) float64 {
	return SyncIOCost(s.cal, size, isRandom)
}

// DirectIOCost is the stateless O_DIRECT write estimate for this simulator's calibration.
func (s *Simulator) DirectIOCost(size int64, isRandom bool) float64 {
	return DirectIOCost(s.cal, size, isRandom)
}

// Dirty returns the number of bytes written but not yet flushed.
func (s *Simulator) Dirty() int64 { return s.store.Dirty() }

// Clock returns the simulated time in seconds.
func (s *Simulator) Clock() float64 { return s.clock }

// IOTime returns the cumulative time spent inside write calls.
func (s *Simulator) IOTime() float64 { return s.ioTime }

// AvgBandwidth returns the running average admitted write throughput.
func (s *Simulator) AvgBandwidth() float64 { return s.bwAvg }

// Pending returns the bytes currently staged in the library buffer.
func (s *Simulator) Pending() int64 { return s.pending }

// LastRegime returns the regime the most recent write was admitted under.
func (s *Simulator) LastRegime() Regime { return s.lastRegime }

// Store returns the dirty store backing this simulator.
func (s *Simulator) Store() DirtyStore { return s.store }

// Calibration returns the calibration the simulator is bound to.
func (s *Simulator) Calibration() *Calibration { return s.cal }

// Metrics returns the aggregate statistics collected so far.
func (s *Simulator) Metrics() *Metrics { return s.metrics }
