package pagecache

import (
	"fmt"

	"github.com/iocost-sim/iocost-sim/sim"
)

// compactThreshold is the number of drained entries tolerated at the head
// of the queue before they are discarded.
const compactThreshold = 1024

type queueEntry struct {
	length   int64
	deadline float64
}

// Queue models dirty data as one append-only stream: writes are queued in
// arrival order and written back strictly from the oldest one. Addresses are
// ignored, so rewrites of the same bytes count twice.
type Queue struct {
	entries []queueEntry
	cursor  int // oldest undrained entry
	dirty   int64
}

// NewQueue returns an empty FIFO queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Insert appends a write of length bytes; handle and offset are ignored.
func (q *Queue) Insert(_ int, _ int64, length int64, deadline float64) {
	if length < 0 {
		panic(fmt.Sprintf("Queue.Insert: length must be >= 0, got %d", length))
	}
	if length == 0 {
		return
	}
	q.entries = append(q.entries, queueEntry{length: length, deadline: deadline})
	q.dirty += length
}

// Dirty returns the total number of queued dirty bytes.
func (q *Queue) Dirty() int64 { return q.dirty }

// Expired reports whether the oldest undrained write is older than cutoff.
// Later entries are never inspected.
func (q *Queue) Expired(cutoff float64) bool {
	return q.cursor < len(q.entries) && q.entries[q.cursor].deadline < cutoff
}

// Next returns the length of the entry at the cursor.
func (q *Queue) Next() (int64, bool) {
	if q.cursor >= len(q.entries) {
		return 0, false
	}
	return q.entries[q.cursor].length, true
}

// Drain writes back n bytes of the entry at the cursor, advancing
// the cursor once it is empty.
func (q *Queue) Drain(n int64) {
	if q.cursor >= len(q.entries) {
		panic("Queue.Drain: queue is empty")
	}
	if n <= 0 {
		return
	}
	head := &q.entries[q.cursor]
	if n < head.length {
		head.length -= n
		q.dirty -= n
		return
	}
	q.dirty -= head.length
	q.cursor++
	q.compact()
}

func (q *Queue) compact() {
	if q.cursor < compactThreshold || q.cursor*2 < len(q.entries) {
		return
	}
	n := copy(q.entries, q.entries[q.cursor:])
	q.entries = q.entries[:n]
	q.cursor = 0
}

// DrainBandwidth returns the OS sync bandwidth of a sequential stream.
func (q *Queue) DrainBandwidth(cal *sim.Calibration) float64 {
	return cal.SyncBandwidth
}

// Len returns the number of undrained entries.
func (q *Queue) Len() int { return len(q.entries) - q.cursor }
