// Package trace provides per-call cost recording for write-back analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// CallRecord captures a single cost call and the simulator state right after it.
type CallRecord struct {
	Op     string  // syscall, complete or library
	Clock  float64 // simulated time after the call (seconds)
	Size   int64   // bytes requested
	Cost   float64 // predicted elapsed time (seconds)
	Regime string  // write-back regime the call was admitted under
	Dirty  int64   // dirty bytes after the call
}
