package trace

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulationTrace_RecordPlacement_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN a placement record is recorded
	st.RecordPlacement(PlacementRecord{
		RequestID: 7,
		Clock:     1.5,
		Kind:      "navigation",
		ServerID:  2,
		LatencyMs: 3.25,
	})

	// THEN the trace contains one placement record with correct data
	require.Len(t, st.Placements, 1)
	assert.Equal(t, 7, st.Placements[0].RequestID)
	assert.Equal(t, 2, st.Placements[0].ServerID)
	assert.False(t, st.Placements[0].Retry)
}

func TestSimulationTrace_MultipleRecords_PreservesOrder(t *testing.T) {
	// GIVEN a trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN multiple records are added
	st.RecordRejection(RejectionRecord{RequestID: 1, Clock: 0.1})
	st.RecordRejection(RejectionRecord{RequestID: 2, Clock: 0.2})
	st.RecordPlacement(PlacementRecord{RequestID: 1, Clock: 1.0, Retry: true})
	st.RecordCancellation(CancellationRecord{RequestID: 2, Clock: 1.1, Removed: 1})

	// THEN insertion order is preserved per record type
	require.Len(t, st.Rejections, 2)
	assert.Equal(t, 1, st.Rejections[0].RequestID)
	assert.Equal(t, 2, st.Rejections[1].RequestID)
	require.Len(t, st.Placements, 1)
	require.Len(t, st.Cancellations, 1)
}

func TestSimulationTrace_RecordTick_OnlyAtTickLevel(t *testing.T) {
	tests := []struct {
		level TraceLevel
		want  int
	}{
		{TraceLevelDecisions, 0},
		{TraceLevelTicks, 1},
	}
	for _, tc := range tests {
		t.Run(string(tc.level), func(t *testing.T) {
			st := NewSimulationTrace(TraceConfig{Level: tc.level})
			st.RecordTick(TickRecord{Clock: 1})
			assert.Len(t, st.Ticks, tc.want)
		})
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	assert.True(t, IsValidTraceLevel(""))
	assert.True(t, IsValidTraceLevel("none"))
	assert.True(t, IsValidTraceLevel("decisions"))
	assert.True(t, IsValidTraceLevel("ticks"))
	assert.False(t, IsValidTraceLevel("verbose"))
}

func TestTraceLevel_Enabled(t *testing.T) {
	assert.False(t, TraceLevel("").Enabled())
	assert.False(t, TraceLevelNone.Enabled())
	assert.True(t, TraceLevelDecisions.Enabled())
}

func TestSimulationTrace_WriteJSON_RoundTrips(t *testing.T) {
	// GIVEN a trace with one placement
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordPlacement(PlacementRecord{RequestID: 3, ServerID: 1, LatencyMs: 2})

	// WHEN written as JSON
	var buf bytes.Buffer
	require.NoError(t, st.WriteJSON(&buf))

	// THEN the placement is present and empty tick records are omitted
	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "placements")
	assert.NotContains(t, decoded, "ticks")
}
