package sim

import "fmt"

// Tier is the two-list recency approximation used to order write-back.
type Tier int

const (
	TierActive   Tier = iota // recently written, protected from write-back
	TierInactive             // eligible for write-back
)

func (t Tier) String() string {
	if t == TierActive {
		return "active"
	}
	return "inactive"
}

// DirtyRange is one outstanding run of dirty bytes in a file.
// Offset and Length describe the half-open interval [Offset, Offset+Length).
type DirtyRange struct {
	Handle   int
	Offset   int64
	Length   int64
	Deadline float64 // simulated time the write completed; expiry counts from here
	Tier     Tier
}

// End returns the first byte past the range.
func (r DirtyRange) End() int64 { return r.Offset + r.Length }

// DirtyStore tracks dirty data awaiting write-back.
// The page-cache index (offset-aware) and the FIFO queue (address-agnostic)
// both implement this; the write-back scheduler only talks to the interface.
type DirtyStore interface {
	// Insert records a completed write. Stores that do not model addresses
	// ignore handle and offset.
	Insert(handle int, offset, length int64, deadline float64)

	// Dirty returns the total number of outstanding dirty bytes.
	Dirty() int64

	// Expired reports whether a range written before cutoff is still dirty.
	Expired(cutoff float64) bool

	// Next selects the range to write back next and returns its length.
	// Returns false if nothing is eligible. The selection stays current
	// until the following Drain.
	Next() (int64, bool)

	// Drain writes back n bytes of the range chosen by Next; the range is
	// removed once fully drained.
	Drain(n int64)

	// DrainBandwidth is the rate at which the kernel writes this store back.
	DrainBandwidth(cal *Calibration) float64

	// Len returns the number of tracked ranges.
	Len() int
}

// StoreKind names a DirtyStore implementation.
type StoreKind string

const (
	StorePageCache StoreKind = "page-cache"
	StoreFIFO      StoreKind = "fifo"
)

// ValidStoreKinds is the set of recognized store names. Empty selects the page cache.
var ValidStoreKinds = map[StoreKind]bool{"": true, StorePageCache: true, StoreFIFO: true}

// IsValidStoreKind returns true if the given name is a recognized store kind.
func IsValidStoreKind(kind string) bool {
	return ValidStoreKinds[StoreKind(kind)]
}

// NewDirtyStoreFunc is set by sim/pagecache's init(). Production code gets it
// by importing sim/pagecache; package sim tests get it through the blank
// import in pagecache_import_test.go.
var NewDirtyStoreFunc func(kind StoreKind) DirtyStore

// NewDirtyStore creates the store implementation registered for kind.
// Panics if kind is unknown or sim/pagecache has not been imported.
func NewDirtyStore(kind StoreKind) DirtyStore {
	if !ValidStoreKinds[kind] {
		panic(fmt.Sprintf("NewDirtyStore: unknown store kind %q", kind))
	}
	if NewDirtyStoreFunc == nil {
		panic("NewDirtyStoreFunc not registered: import sim/pagecache to register it " +
			"(production: add import _ \"github.com/iocost-sim/iocost-sim/sim/pagecache\"; " +
			"tests: add sim/pagecache_import_test.go with the same blank import)")
	}
	if kind == "" {
		kind = StorePageCache
	}
	return NewDirtyStoreFunc(kind)
}
