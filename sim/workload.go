package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Op names a cost call in a workload file.
type Op string

const (
	OpSyscall  Op = "syscall"  // SyscallIOCost
	OpComplete Op = "complete" // SyscallIOCostComplete
	OpLibrary  Op = "library"  // LibraryIOCost
	OpSync     Op = "sync"     // SyncIOCost
	OpDirect   Op = "direct"   // DirectIOCost
)

var validOps = map[Op]bool{OpSyscall: true, OpComplete: true, OpLibrary: true, OpSync: true, OpDirect: true}

// Operation is one workload step. It expands to Repeat consecutive calls;
// each repetition after the first advances Offset by Stride.
type Operation struct {
	Op     Op      `yaml:"op"`
	Handle int     `yaml:"handle,omitempty"`
	Offset int64   `yaml:"offset,omitempty"`
	Size   int64   `yaml:"size"`
	Delay  float64 `yaml:"delay,omitempty"`
	Repeat int     `yaml:"repeat,omitempty"` // 0 = once
	Stride int64   `yaml:"stride,omitempty"`
	Random bool    `yaml:"random,omitempty"` // sync and direct only
}

// Workload is an ordered trace of I/O calls replayed against one simulator.
type Workload struct {
	Version    string      `yaml:"version"`
	Store      StoreKind   `yaml:"store,omitempty"`
	Operations []Operation `yaml:"operations"`
}

// LoadWorkload reads and strictly parses a workload YAML file.
func LoadWorkload(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload: %w", err)
	}
	return ParseWorkload(data)
}

// ParseWorkload strictly parses a workload document.
func ParseWorkload(data []byte) (*Workload, error) {
	var w Workload
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&w); err != nil {
		return nil, fmt.Errorf("parsing workload: %w", err)
	}
	return &w, nil
}

// Validate checks the store name and the arguments of every operation.
func (w *Workload) Validate() error {
	if !IsValidStoreKind(string(w.Store)) {
		return fmt.Errorf("unknown store %q; valid: page-cache, fifo", w.Store)
	}
	if len(w.Operations) == 0 {
		return fmt.Errorf("workload has no operations")
	}
	var stream int64 // bytes appended by syscall ops so far
	for i, op := range w.Operations {
		prefix := fmt.Sprintf("operations[%d]", i)
		if !validOps[op.Op] {
			return fmt.Errorf("%s: unknown op %q; valid: syscall, complete, library, sync, direct", prefix, op.Op)
		}
		if op.Size < 0 {
			return fmt.Errorf("%s: size must be >= 0, got %d", prefix, op.Size)
		}
		if op.Offset < 0 {
			return fmt.Errorf("%s: offset must be >= 0, got %d", prefix, op.Offset)
		}
		if op.Stride < 0 {
			return fmt.Errorf("%s: stride must be >= 0, got %d", prefix, op.Stride)
		}
		if op.Repeat < 0 {
			return fmt.Errorf("%s: repeat must be >= 0, got %d", prefix, op.Repeat)
		}
		if math.IsNaN(op.Delay) || math.IsInf(op.Delay, 0) || op.Delay < 0 {
			return fmt.Errorf("%s: delay must be a finite value >= 0, got %v", prefix, op.Delay)
		}
		reps := int64(max(op.Repeat, 1))
		switch op.Op {
		case OpComplete:
			if op.Stride > 0 && reps-1 > (math.MaxInt64-op.Offset)/op.Stride {
				return fmt.Errorf("%s: offset %d + %d strides of %d overflows int64", prefix, op.Offset, reps-1, op.Stride)
			}
			last := op.Offset + (reps-1)*op.Stride
			if op.Size > math.MaxInt64-last {
				return fmt.Errorf("%s: last write at offset %d + size %d overflows int64", prefix, last, op.Size)
			}
		case OpSyscall:
			if op.Size > 0 && reps > (math.MaxInt64-stream)/op.Size {
				return fmt.Errorf("%s: appended stream exceeds int64 bytes", prefix)
			}
			stream += reps * op.Size
		}
	}
	return nil
}

// Calls returns the number of cost calls the workload expands to.
func (w *Workload) Calls() int {
	n := 0
	for _, op := range w.Operations {
		n += max(op.Repeat, 1)
	}
	return n
}

// Sample is the outcome of one replayed call.
type Sample struct {
	Index  int     `json:"index"`
	Op     Op      `json:"op"`
	Size   int64   `json:"size"`
	Clock  float64 `json:"clock"`
	Cost   float64 `json:"cost"`
	Dirty  int64   `json:"dirty"`
	Regime string  `json:"regime"`
}

// Replay runs every call of w against s in order and returns one sample per call.
// w must have passed Validate.
func Replay(s *Simulator, w *Workload) []Sample {
	samples := make([]Sample, 0, w.Calls())
	ReplayFunc(s, w, func(sample Sample) { samples = append(samples, sample) })
	return samples
}

// ReplayFunc is Replay with a callback invoked after every call, for
// consumers that stream samples instead of collecting them.
func ReplayFunc(s *Simulator, w *Workload, fn func(Sample)) {
	idx := 0
	for _, op := range w.Operations {
		offset := op.Offset
		for r := 0; r < max(op.Repeat, 1); r++ {
			cost := s.apply(op, offset)
			fn(Sample{
				Index:  idx,
				Op:     op.Op,
				Size:   op.Size,
				Clock:  s.clock,
				Cost:   cost,
				Dirty:  s.store.Dirty(),
				Regime: s.lastRegime.String(),
			})
			idx++
			offset += op.Stride
		}
	}
}

func (s *Simulator) apply(op Operation, offset int64) float64 {
	switch op.Op {
	case OpSyscall:
		return s.SyscallIOCost(op.Size, op.Delay)
	case OpComplete:
		return s.SyscallIOCostComplete(op.Delay, op.Handle, offset, op.Size)
	case OpLibrary:
		return s.LibraryIOCost(op.Size, op.Delay)
	case OpSync:
		return s.SyncIOCost(op.Size, op.Random)
	case OpDirect:
		return s.DirectIOCost(op.Size, op.Random)
	default:
		panic(fmt.Sprintf("Replay: unknown op %q", op.Op))
	}
}
