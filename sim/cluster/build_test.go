package cluster

import (
	"testing"

	"github.com/edge-sim/edge-sim/sim"
	"github.com/edge-sim/edge-sim/sim/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallScenario(t *testing.T, extra string) *sim.Scenario {
	t.Helper()
	s, err := sim.ParseScenario([]byte(`
strategy:
  name: greedy-latency-aware
layout:
  kind: road-grid
  count: 4
  compute_capacity: 20
workload:
  seed: 11
  rate: 3
  horizon: 30
  cancel_probability: 0.2
` + extra))
	require.NoError(t, err)
	return s
}

func TestBuild_ExecuteAccountsForEveryRequest(t *testing.T) {
	// GIVEN a built run
	run, err := Build(smallScenario(t, ""), trace.TraceConfig{Level: trace.TraceLevelNone})
	require.NoError(t, err)
	require.NotEmpty(t, run.Workload.Requests)
	assert.Nil(t, run.Trace)

	// WHEN executed
	m := run.Execute()

	// THEN every arrival was received and ticks ran at each interval up to the horizon
	assert.Equal(t, len(run.Workload.Requests), m.Received)
	assert.Equal(t, 30, m.Ticks)
	assert.Equal(t, 30.0, m.EndClock)
	assert.LessOrEqual(t, m.ServedInitial+m.ServedRetry+m.FinalPending, m.Received)
	assert.LessOrEqual(t, m.ServedRetry+m.FinalPending, m.Rejected, "only rejected requests are retried or left pending")
}

func TestBuild_IsDeterministic(t *testing.T) {
	first, err := Build(smallScenario(t, ""), trace.TraceConfig{})
	require.NoError(t, err)
	second, err := Build(smallScenario(t, ""), trace.TraceConfig{})
	require.NoError(t, err)

	a := first.Execute().Summarize("a")
	b := second.Execute().Summarize("a")

	assert.Equal(t, a, b)
	assert.Equal(t, first.Engine.ActivePlacements(), second.Engine.ActivePlacements())
}

func TestBuild_TraceMatchesMetrics(t *testing.T) {
	run, err := Build(smallScenario(t, ""), trace.TraceConfig{Level: trace.TraceLevelTicks})
	require.NoError(t, err)
	require.NotNil(t, run.Trace)

	m := run.Execute()

	assert.Len(t, run.Trace.Placements, m.ServedInitial+m.ServedRetry)
	assert.Len(t, run.Trace.Rejections, m.Rejected)
	assert.Len(t, run.Trace.Ticks, m.Ticks)
	removed := 0
	for _, c := range run.Trace.Cancellations {
		removed += c.Removed
	}
	assert.Equal(t, m.Cancelled, removed)
}

func TestBuild_ExtraObserversReceiveEvents(t *testing.T) {
	rec := &lifecycleRecorder{}
	run, err := Build(smallScenario(t, ""), trace.TraceConfig{}, rec)
	require.NoError(t, err)

	m := run.Execute()

	assert.Len(t, rec.received, m.Received)
	assert.Len(t, rec.ticks, m.Ticks)
}

func TestBuild_InvalidScenario(t *testing.T) {
	s, err := sim.ParseScenario([]byte("strategy:\n  name: nearest\n"))
	require.NoError(t, err)

	_, err = Build(s, trace.TraceConfig{})
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
}

func TestBuild_DuplicateServerIDs(t *testing.T) {
	s, err := sim.ParseScenario([]byte("servers:\n  - {id: 1, compute_capacity: 5}\n  - {id: 1, compute_capacity: 5}\n"))
	require.NoError(t, err)

	_, err = Build(s, trace.TraceConfig{})
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
}
