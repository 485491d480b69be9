// register.go wires sim/pagecache constructors into the sim package's
// registration variable (NewDirtyStoreFunc). This init() runs when any package
// imports sim/pagecache, breaking the import cycle between sim/ (interface
// owner) and sim/pagecache/ (implementation). Production code imports
// sim/pagecache directly; test code in package sim uses
// pagecache_import_test.go for the blank import.
package pagecache

import "github.com/iocost-sim/iocost-sim/sim"

func init() {
	sim.NewDirtyStoreFunc = NewStore
}

// NewStore creates the DirtyStore for kind.
// Returns *Queue for sim.StoreFIFO and *Index for everything else.
func NewStore(kind sim.StoreKind) sim.DirtyStore {
	if kind == sim.StoreFIFO {
		return NewQueue()
	}
	return NewIndex()
}
