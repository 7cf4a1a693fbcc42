package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, 0, summary.TotalPlacements)
	assert.NotNil(t, summary.ServerDistribution)
}

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	assert.Equal(t, 0, summary.TotalPlacements)
	assert.Equal(t, 0, summary.Rejections)
	assert.Equal(t, 0, summary.UniqueServers)
	assert.Zero(t, summary.MeanLatencyMs)
	assert.Empty(t, summary.ServerDistribution)
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with placements, rejections, cancellations and ticks
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelTicks})
	st.RecordPlacement(PlacementRecord{RequestID: 1, ServerID: 0, LatencyMs: 2})
	st.RecordPlacement(PlacementRecord{RequestID: 2, ServerID: 1, LatencyMs: 4, Retry: true})
	st.RecordPlacement(PlacementRecord{RequestID: 3, ServerID: 0, LatencyMs: 6})
	st.RecordRejection(RejectionRecord{RequestID: 2})
	st.RecordCancellation(CancellationRecord{RequestID: 3, Removed: 2})
	st.RecordTick(TickRecord{Clock: 1, StillPending: 3})
	st.RecordTick(TickRecord{Clock: 2, StillPending: 1})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts and latency statistics are aggregated
	assert.Equal(t, 3, summary.TotalPlacements)
	assert.Equal(t, 1, summary.RetryPlacements)
	assert.Equal(t, 1, summary.Rejections)
	assert.Equal(t, 2, summary.Cancellations)
	assert.InDelta(t, 4.0, summary.MeanLatencyMs, 1e-9)
	assert.InDelta(t, 6.0, summary.MaxLatencyMs, 1e-9)
	assert.Equal(t, 2, summary.UniqueServers)
	assert.Equal(t, map[int]int{0: 2, 1: 1}, summary.ServerDistribution)
	assert.Equal(t, 3, summary.PeakPending)
}
