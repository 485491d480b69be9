package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iocost-sim/iocost-sim/sim"
)

var (
	sweepOp         string  // cost call to sweep
	sweepMin        int64   // smallest write size
	sweepMax        int64   // largest write size
	sweepStep       int64   // size increment
	sweepDelay      float64 // delay before every call
	sweepRandom     bool    // sync/direct: include a seek
	sweepCumulative bool    // reuse one simulator across sizes
	sweepOut        string  // TSV output, stdout if empty
)

// maxSweepPoints bounds the number of sizes a single sweep evaluates.
const maxSweepPoints = 1 << 20

// sweepPoint is one row of a cost-vs-size curve.
type sweepPoint struct {
	Size  int64
	Cost  float64
	Dirty int64
}

// sweep evaluates op for every size in [minSize, maxSize] by step. Unless cumulative,
// each size runs against a fresh simulator from newSim so that points are
// independent; cumulative curves carry dirty state from one size to the next.
func sweep(newSim func() *sim.Simulator, op sim.Op, minSize, maxSize, step int64, delay float64, random, cumulative bool) ([]sweepPoint, error) {
	if step <= 0 {
		return nil, fmt.Errorf("step must be > 0, got %d", step)
	}
	if minSize < 0 || maxSize < minSize {
		return nil, fmt.Errorf("size range [%d, %d] is invalid", minSize, maxSize)
	}
	// span cannot overflow since both bounds are >= 0; span+1 can
	span := (maxSize - minSize) / step
	if span >= maxSweepPoints {
		return nil, fmt.Errorf("sweep of %d sizes exceeds the limit of %d points", uint64(span)+1, maxSweepPoints)
	}
	n := span + 1
	var s *sim.Simulator
	var offset int64
	points := make([]sweepPoint, 0, n)
	for size := minSize; ; size += step {
		if s == nil || !cumulative {
			s = newSim()
			offset = 0
		}
		w := &sim.Workload{Operations: []sim.Operation{{
			Op: op, Offset: offset, Size: size, Delay: delay, Random: random,
		}}}
		if err := w.Validate(); err != nil {
			return nil, err
		}
		sample := sim.Replay(s, w)[0]
		points = append(points, sweepPoint{Size: size, Cost: sample.Cost, Dirty: sample.Dirty})
		offset += size
		if size > maxSize-step {
			break
		}
	}
	return points, nil
}

func writeCurve(w io.Writer, points []sweepPoint) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "size\tcost\tdirty")
	for _, p := range points {
		fmt.Fprintf(bw, "%d\t%.9f\t%d\n", p.Size, p.Cost, p.Dirty)
	}
	return bw.Flush()
}

// sweepCmd prints a cost-vs-size curve for one call type
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Print predicted cost as a function of write size",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		points, err := sweep(func() *sim.Simulator { return newSimulator("") },
			sim.Op(sweepOp), sweepMin, sweepMax, sweepStep, sweepDelay, sweepRandom, sweepCumulative)
		if err != nil {
			logrus.Fatalf("Invalid sweep: %v", err)
		}

		out := io.Writer(os.Stdout)
		if sweepOut != "" {
			f, err := os.Create(sweepOut)
			if err != nil {
				logrus.Fatalf("Failed to create %s: %v", sweepOut, err)
			}
			defer f.Close()
			out = f
		}
		if err := writeCurve(out, points); err != nil {
			logrus.Fatalf("Failed to write curve: %v", err)
		}
		logrus.Infof("Swept %d sizes for op=%s", len(points), sweepOp)
	},
}

func init() {
	sweepCmd.Flags().StringVar(&sweepOp, "op", string(sim.OpSyscall), "Call to sweep (syscall, complete, library, sync, direct)")
	sweepCmd.Flags().Int64Var(&sweepMin, "min", 4096, "Smallest write size in bytes")
	sweepCmd.Flags().Int64Var(&sweepMax, "max", 1<<20, "Largest write size in bytes")
	sweepCmd.Flags().Int64Var(&sweepStep, "step", 4096, "Write size increment in bytes")
	sweepCmd.Flags().Float64Var(&sweepDelay, "delay", 0, "Delay before each call in seconds")
	sweepCmd.Flags().BoolVar(&sweepRandom, "random", false, "Include a seek (sync and direct only)")
	sweepCmd.Flags().BoolVar(&sweepCumulative, "cumulative", false, "Carry simulator state across sizes")
	sweepCmd.Flags().StringVar(&sweepOut, "out", "", "Write the curve to this file instead of stdout")

	rootCmd.AddCommand(sweepCmd)
}
