// Tracks simulator-wide write-back statistics such as bytes admitted,
// bytes flushed and how many writes ran under each regime.

package sim

import "fmt"

// Metrics aggregates statistics about a simulator's lifetime
// for final reporting.
type Metrics struct {
	Writes         int     // write() calls reaching the page cache
	BytesWritten   int64   // bytes admitted into the page cache
	BytesFlushed   int64   // bytes written back by the background flusher
	TotalCost      float64 // sum of write() costs (seconds)
	PeakDirty      int64   // max dirty bytes observed after a write
	LibraryCalls   int     // LibraryIOCost calls
	LibraryFlushes int     // full library buffers handed to the kernel

	RegimeWrites map[Regime]int // regime -> writes admitted under it
}

// NewMetrics returns a zeroed Metrics ready for recording.
func NewMetrics() *Metrics {
	return &Metrics{RegimeWrites: make(map[Regime]int)}
}

func (m *Metrics) record(regime Regime, size int64, cost float64, dirty int64) {
	m.Writes++
	m.BytesWritten += size
	m.TotalCost += cost
	m.RegimeWrites[regime]++
	if dirty > m.PeakDirty {
		m.PeakDirty = dirty
	}
}

// Print displays aggregated metrics at the end of a run.
func (m *Metrics) Print(clock float64) {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Simulated Time       : %.6f s\n", clock)
	fmt.Printf("Write Calls          : %d\n", m.Writes)
	fmt.Printf("Bytes Written        : %d\n", m.BytesWritten)
	fmt.Printf("Bytes Flushed        : %d\n", m.BytesFlushed)
	fmt.Printf("Peak Dirty           : %d bytes\n", m.PeakDirty)
	if m.Writes > 0 {
		fmt.Printf("Average Write Cost   : %.9f s\n", m.TotalCost/float64(m.Writes))
		for _, r := range []Regime{RegimeFreeRun, RegimeAsync, RegimeThrottled} {
			fmt.Printf("  %-10s writes   : %d\n", r, m.RegimeWrites[r])
		}
	}
	if m.LibraryCalls > 0 {
		fmt.Printf("Library Calls        : %d (%d buffer flushes)\n", m.LibraryCalls, m.LibraryFlushes)
	}
}
