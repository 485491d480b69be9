package sim

import "fmt"

// LibraryIOCost returns the cost of a buffered stdio-style write (fwrite)
// of size bytes issued delay seconds after the previous call. Writes that fit
// the user-space buffer cost one memory copy; an overflowing write fills the
// buffer, hands it to the kernel, pushes any further whole buffers straight
// through and keeps the remainder staged.
func (s *Simulator) LibraryIOCost(size int64, delay float64) float64 {
	if size < 0 {
		panic(fmt.Sprintf("LibraryIOCost: size must be >= 0, got %d", size))
	}
	if !(delay >= 0) {
		panic(fmt.Sprintf("LibraryIOCost: delay must be >= 0, got %v", delay))
	}
	bf := s.cal.LibraryBufferSize
	bwMem := s.cal.MemoryBandwidth
	s.metrics.LibraryCalls++

	cost := s.cal.LibraryCallCost
	free := bf - s.pending
	if size <= free {
		cost += float64(size) / bwMem
		s.pending += size
		s.pendingDelay += delay + cost
		s.recordTrace("library", size, cost, s.lastRegime)
		return cost
	}

	cost += float64(free) / bwMem
	s.pendingDelay += delay + cost
	cost += s.SyscallIOCost(bf, s.pendingDelay)
	s.metrics.LibraryFlushes++

	rest := size - free
	for rest >= bf {
		cost += s.SyscallIOCost(bf, 0)
		s.metrics.LibraryFlushes++
		rest -= bf
	}

	copyTime := float64(rest) / bwMem
	cost += copyTime
	s.pending = rest
	s.pendingDelay = copyTime
	s.recordTrace("library", size, cost, s.lastRegime)
	return cost
}
