package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalCalls         int
	TotalBytes         int64
	TotalCost          float64
	MeanCost           float64
	MaxCost            float64
	PeakDirty          int64
	RegimeDistribution map[string]int // regime -> count of calls
	OpDistribution     map[string]int // op -> count of calls
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		RegimeDistribution: make(map[string]int),
		OpDistribution:     make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalCalls = len(st.Calls)
	for _, c := range st.Calls {
		summary.TotalBytes += c.Size
		summary.TotalCost += c.Cost
		summary.RegimeDistribution[c.Regime]++
		summary.OpDistribution[c.Op]++
		if c.Cost > summary.MaxCost {
			summary.MaxCost = c.Cost
		}
		if c.Dirty > summary.PeakDirty {
			summary.PeakDirty = c.Dirty
		}
	}
	if summary.TotalCalls > 0 {
		summary.MeanCost = summary.TotalCost / float64(summary.TotalCalls)
	}
	return summary
}
