package trace

// TraceLevel controls the verbosity of cost tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelCalls captures one record per cost call.
	TraceLevelCalls TraceLevel = "calls"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:  true,
	TraceLevelCalls: true,
	"":              true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects cost records during a simulation.
type SimulationTrace struct {
	Config TraceConfig
	Calls  []CallRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config: config,
		Calls:  make([]CallRecord, 0),
	}
}

// RecordCall appends a cost call record.
func (st *SimulationTrace) RecordCall(record CallRecord) {
	st.Calls = append(st.Calls, record)
}
