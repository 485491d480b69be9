package trace

import (
	"testing"
)

func TestSimulationTrace_RecordCall_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for calls
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelCalls})

	// WHEN a call record is recorded
	st.RecordCall(CallRecord{
		Op:     "complete",
		Clock:  6,
		Size:   50,
		Cost:   6,
		Regime: "free-run",
		Dirty:  50,
	})

	// THEN the trace contains one call record with correct data
	if len(st.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(st.Calls))
	}
	if st.Calls[0].Op != "complete" {
		t.Errorf("expected op complete, got %s", st.Calls[0].Op)
	}
	if st.Calls[0].Dirty != 50 {
		t.Errorf("expected dirty 50, got %d", st.Calls[0].Dirty)
	}
}

func TestSimulationTrace_ConfigPreserved(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelCalls})
	if st.Config.Level != TraceLevelCalls {
		t.Errorf("expected level calls, got %s", st.Config.Level)
	}
	if st.Calls == nil {
		t.Error("expected non-nil Calls slice")
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"", true},
		{"none", true},
		{"calls", true},
		{"decisions", false},
		{"verbose", false},
	}
	for _, tc := range tests {
		if got := IsValidTraceLevel(tc.level); got != tc.want {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tc.level, got, tc.want)
		}
	}
}
