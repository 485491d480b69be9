package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Regime is the write-back state a write is admitted under. It is derived
// from the live dirty level on every call and never stored as controller state.
type Regime int

const (
	RegimeFreeRun   Regime = iota // below the background threshold, writes go at memory speed
	RegimeAsync                   // kernel flusher running alongside the writer
	RegimeThrottled               // at or above the setpoint, writer paced by the position ratio
)

func (r Regime) String() string {
	switch r {
	case RegimeFreeRun:
		return "free-run"
	case RegimeAsync:
		return "async"
	case RegimeThrottled:
		return "throttled"
	default:
		return "unknown"
	}
}

// ClassifyRegime maps a dirty level to its write-back regime.
// expired reports whether some dirty range has outlived the expiry interval.
func ClassifyRegime(cal *Calibration, dirty int64, expired bool) Regime {
	switch {
	case dirty >= cal.Setpoint():
		return RegimeThrottled
	case dirty >= cal.LimitBackground || expired:
		return RegimeAsync
	default:
		return RegimeFreeRun
	}
}

// PositionRatio is the cubic throttling multiplier: 1 at the setpoint,
// falling to 0 at the hard limit. Never negative.
func PositionRatio(cal *Calibration, dirty int64) float64 {
	setpoint := cal.Setpoint()
	x := float64(setpoint-dirty) / float64(cal.LimitHard-setpoint)
	return math.Max(0, 1+x*x*x)
}

// admittedRate returns the bandwidth at which the page cache accepts a write.
func (s *Simulator) admittedRate(regime Regime) float64 {
	async := s.cal.RamdiskBandwidth * s.cal.BackgroundCoeff
	switch regime {
	case RegimeFreeRun:
		return s.cal.RamdiskBandwidth
	case RegimeAsync:
		return async
	}
	rate := math.Min(s.bwAvg*PositionRatio(s.cal, s.store.Dirty()), async)
	if rate <= 0 {
		// At the hard limit the writer can only proceed as fast as pages are written back.
		rate = s.store.DrainBandwidth(s.cal)
	}
	return rate
}

// expired reports whether any dirty range is past its write-back deadline.
func (s *Simulator) expired() bool {
	return s.store.Expired(s.clock - s.cal.DirtyExpire)
}

func (s *Simulator) flushDue() bool {
	return s.expired() || s.store.Dirty() >= s.cal.LimitBackground
}

// backgroundFlush lets the kernel flusher write back dirty data for interval
// simulated seconds. It stops early once neither an expired range nor the
// background threshold demands write-back.
func (s *Simulator) backgroundFlush(interval float64) {
	bw := s.store.DrainBandwidth(s.cal)
	for s.flushDue() {
		size, ok := s.store.Next()
		if !ok {
			break
		}
		syncTime := float64(size) / bw
		if interval >= syncTime {
			interval -= syncTime
			s.store.Drain(size)
			s.metrics.BytesFlushed += size
			logrus.Tracef("[t=%.6f] flushed %d bytes, dirty=%d", s.clock, size, s.store.Dirty())
			continue
		}
		n := min(int64(interval*bw), size)
		s.store.Drain(n)
		s.metrics.BytesFlushed += n
		logrus.Tracef("[t=%.6f] partially flushed %d/%d bytes, dirty=%d", s.clock, n, size, s.store.Dirty())
		break
	}
}
