package sim_test

// Blank import registers the DirtyStore implementations so tests can
// construct simulators through sim.NewDirtyStore.
import _ "github.com/iocost-sim/iocost-sim/sim/pagecache"
