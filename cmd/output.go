package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/iocost-sim/iocost-sim/sim"
	"github.com/iocost-sim/iocost-sim/sim/trace"
)

// writeSamples writes one TSV row per replayed call.
func writeSamples(w io.Writer, samples []sim.Sample) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "index\top\tsize\tclock\tcost\tdirty\tregime")
	for _, s := range samples {
		fmt.Fprintf(bw, "%d\t%s\t%d\t%.9f\t%.9f\t%d\t%s\n",
			s.Index, s.Op, s.Size, s.Clock, s.Cost, s.Dirty, s.Regime)
	}
	return bw.Flush()
}

func writeSamplesFile(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := writeSamples(f, samples); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// printTraceSummary renders the per-call trace aggregates.
func printTraceSummary(w io.Writer, ts *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Trace Summary ===")
	fmt.Fprintf(w, "Calls                : %d\n", ts.TotalCalls)
	fmt.Fprintf(w, "Bytes                : %d\n", ts.TotalBytes)
	fmt.Fprintf(w, "Mean Cost            : %.9f s\n", ts.MeanCost)
	fmt.Fprintf(w, "Max Cost             : %.9f s\n", ts.MaxCost)
	fmt.Fprintf(w, "Peak Dirty           : %d bytes\n", ts.PeakDirty)
	for _, op := range sortedKeys(ts.OpDistribution) {
		fmt.Fprintf(w, "  op %-10s       : %d\n", op, ts.OpDistribution[op])
	}
	for _, regime := range sortedKeys(ts.RegimeDistribution) {
		fmt.Fprintf(w, "  regime %-10s   : %d\n", regime, ts.RegimeDistribution[regime])
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
