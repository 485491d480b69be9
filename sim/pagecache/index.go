// Package pagecache provides the DirtyStore implementations for the sim
// package: an offset-aware page-cache index and an address-agnostic FIFO queue.
package pagecache

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/iocost-sim/iocost-sim/sim"
)

// entry is a dirty range plus its insertion sequence number.
// Pieces split off an existing range keep that range's sequence number.
type entry struct {
	sim.DirtyRange
	seq uint64
}

// compareAge orders entries oldest first: by deadline, then insertion
// order, then address. The order is total so selection never depends on
// map iteration.
func compareAge(a, b *entry) int {
	if c := cmp.Compare(a.Deadline, b.Deadline); c != 0 {
		return c
	}
	if c := cmp.Compare(a.seq, b.seq); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Handle, b.Handle); c != 0 {
		return c
	}
	return cmp.Compare(a.Offset, b.Offset)
}

// Index tracks dirty byte ranges per file handle.
// For every handle the ranges are kept sorted by offset and pairwise
// non-overlapping, so their union is exactly the unflushed bytes.
type Index struct {
	files map[int][]*entry

	dirty       int64 // sum of all range lengths
	total       int   // number of ranges
	active      int   // number of active-tier ranges
	activeBytes int64 // bytes held by active-tier ranges
	seq         uint64

	next *entry // range selected by Next, valid until the following mutation
}

// NewIndex returns an empty page-cache index.
func NewIndex() *Index {
	return &Index{files: make(map[int][]*entry)}
}

func (ix *Index) account(e *entry, sign int) {
	ix.dirty += int64(sign) * e.Length
	ix.total += sign
	if e.Tier == sim.TierActive {
		ix.active += sign
		ix.activeBytes += int64(sign) * e.Length
	}
}

// Insert records a write of length bytes at offset in handle.
// Overlapped bytes of older ranges are replaced: the uncovered prefix of the
// leftmost overlapped range and the uncovered suffix of the rightmost one are
// kept with their original deadline and tier, and the whole written interval
// becomes a single active range with the new deadline.
func (ix *Index) Insert(handle int, offset, length int64, deadline float64) {
	if offset < 0 {
		panic(fmt.Sprintf("Index.Insert: offset must be >= 0, got %d", offset))
	}
	if length < 0 {
		panic(fmt.Sprintf("Index.Insert: length must be >= 0, got %d", length))
	}
	if length > math.MaxInt64-offset {
		panic(fmt.Sprintf("Index.Insert: offset %d + length %d overflows int64", offset, length))
	}
	ix.next = nil
	if length == 0 {
		return
	}
	end := offset + length
	ranges := ix.files[handle]

	// Ends grow with offsets, so [lo, hi) is exactly the overlapped run.
	lo := sort.Search(len(ranges), func(i int) bool { return ranges[i].End() > offset })
	hi := lo
	for hi < len(ranges) && ranges[hi].Offset < end {
		hi++
	}

	replacement := make([]*entry, 0, 3)
	if lo < hi {
		for _, e := range ranges[lo:hi] {
			ix.account(e, -1)
		}
		if first := ranges[lo]; first.Offset < offset {
			prefix := *first
			prefix.Length = offset - first.Offset
			replacement = append(replacement, &prefix)
		}
	}
	ix.seq++
	replacement = append(replacement, &entry{
		DirtyRange: sim.DirtyRange{
			Handle:   handle,
			Offset:   offset,
			Length:   length,
			Deadline: deadline,
			Tier:     sim.TierActive,
		},
		seq: ix.seq,
	})
	if lo < hi {
		if last := ranges[hi-1]; last.End() > end {
			suffix := *last
			suffix.Offset = end
			suffix.Length = last.End() - end
			replacement = append(replacement, &suffix)
		}
	}
	for _, e := range replacement {
		ix.account(e, +1)
	}
	ix.files[handle] = slices.Replace(ranges, lo, hi, replacement...)
}

// Dirty returns the total number of dirty bytes across all handles.
func (ix *Index) Dirty() int64 { return ix.dirty }

// Expired reports whether any range has a deadline before cutoff.
func (ix *Index) Expired(cutoff float64) bool {
	for _, ranges := range ix.files {
		for _, e := range ranges {
			if e.Deadline < cutoff {
				return true
			}
		}
	}
	return false
}

// rebalance demotes the oldest active ranges until at most half of all
// ranges are active. A no-op while active ranges are a minority.
func (ix *Index) rebalance() {
	half := ix.total / 2
	if ix.active < half {
		return
	}
	demote := max(ix.active-half, 0)
	if demote == 0 {
		return
	}
	actives := make([]*entry, 0, ix.active)
	for _, ranges := range ix.files {
		for _, e := range ranges {
			if e.Tier == sim.TierActive {
				actives = append(actives, e)
			}
		}
	}
	slices.SortFunc(actives, compareAge)
	for _, e := range actives[:demote] {
		e.Tier = sim.TierInactive
		ix.active--
		ix.activeBytes -= e.Length
	}
}

// Next rebalances the tiers and selects the inactive range with the
// earliest deadline.
func (ix *Index) Next() (int64, bool) {
	ix.rebalance()
	var best *entry
	for _, ranges := range ix.files {
		for _, e := range ranges {
			if e.Tier != sim.TierInactive {
				continue
			}
			if best == nil || compareAge(e, best) < 0 {
				best = e
			}
		}
	}
	ix.next = best
	if best == nil {
		return 0, false
	}
	return best.Length, true
}

// Drain writes back n bytes from the front of the range chosen by Next.
// Panics if no range is selected.
func (ix *Index) Drain(n int64) {
	e := ix.next
	if e == nil {
		panic("Index.Drain: no range selected, call Next first")
	}
	if n <= 0 {
		return
	}
	if n < e.Length {
		e.Offset += n
		e.Length -= n
		ix.dirty -= n
		if e.Tier == sim.TierActive {
			ix.activeBytes -= n
		}
		return
	}
	ix.account(e, -1)
	ranges := ix.files[e.Handle]
	i := sort.Search(len(ranges), func(i int) bool { return ranges[i].Offset >= e.Offset })
	ranges = slices.Delete(ranges, i, i+1)
	if len(ranges) == 0 {
		delete(ix.files, e.Handle)
	} else {
		ix.files[e.Handle] = ranges
	}
	ix.next = nil
}

// DrainBandwidth returns the device write bandwidth: ranges are written
// back individually at their own addresses.
func (ix *Index) DrainBandwidth(cal *sim.Calibration) float64 {
	return cal.DeviceWriteBandwidth
}

// Len returns the number of tracked ranges.
func (ix *Index) Len() int { return ix.total }

// ActiveRanges returns the number of ranges in the active tier.
func (ix *Index) ActiveRanges() int { return ix.active }

// ActiveBytes returns the number of bytes held by active-tier ranges.
func (ix *Index) ActiveBytes() int64 { return ix.activeBytes }

// Handles returns the handles with dirty data, ascending.
func (ix *Index) Handles() []int {
	handles := make([]int, 0, len(ix.files))
	for h := range ix.files {
		handles = append(handles, h)
	}
	slices.Sort(handles)
	return handles
}

// Ranges returns a copy of the dirty ranges of handle, sorted by offset.
func (ix *Index) Ranges(handle int) []sim.DirtyRange {
	ranges := ix.files[handle]
	out := make([]sim.DirtyRange, len(ranges))
	for i, e := range ranges {
		out[i] = e.DirtyRange
	}
	return out
}
