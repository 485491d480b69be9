// Package sim predicts the elapsed time of file writes on a Linux host whose
// page cache defers write-back.
//
// # Reading Guide
//
// Start with these files:
//   - simulator.go: the simulated clock and the buffered write() cost path
//   - writeback.go: regime classification and the background flusher
//   - library.go: the user-space (stdio) buffer layered on top of write()
//   - cost.go: stateless O_SYNC and O_DIRECT estimates
//
// # Architecture
//
// The sim package defines the DirtyStore interface; implementations live in
// sim/pagecache (an offset-aware page-cache index and an address-agnostic
// FIFO queue). sim/pagecache registers itself through NewDirtyStoreFunc in
// its init() function. sim/trace records per-call costs.
//
// All measured host constants come from a Calibration, loaded from YAML via
// LoadCalibrationFile. Workloads (LoadWorkload, Replay) drive a Simulator
// with a recorded sequence of calls.
package sim
