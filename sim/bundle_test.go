package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario_FullDocument(t *testing.T) {
	yaml := `
strategy:
  name: threshold-latency-aware
  load_threshold: 0.7
  latency_weight: 0.8
  max_latency_ms: 50
engine:
  evaluation_interval: 2
  decay_factor: 0.9
  expiry_horizon: 15
  drop_expired_pending: true
servers:
  - id: 3
    latitude: 37.7
    longitude: -122.1
    compute_capacity: 80
    storage_capacity: 200
    services: [navigation, traffic-info]
  - id: 1
    latitude: 37.8
    longitude: -122.2
    compute_capacity: 120
    initial_load: 10
    active: false
workload:
  seed: 7
  rate: 4
  horizon: 30
  arrival:
    process: gamma
    cv: 2
`
	s, err := ParseScenario([]byte(yaml))
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	cfg := s.StrategyConfig()
	assert.Equal(t, StrategyThresholdLatencyAware, cfg.Name)
	assert.Equal(t, 0.7, cfg.LoadThreshold)
	assert.Equal(t, 0.5, cfg.LoadWeight, "unset weights keep defaults")
	assert.Equal(t, 0.8, cfg.LatencyWeight)
	require.NotNil(t, cfg.MaxLatencyMs)
	assert.Equal(t, 50.0, *cfg.MaxLatencyMs)
	assert.Nil(t, cfg.ChargeFactor)

	assert.Equal(t, EngineConfig{EvaluationInterval: 2, DecayFactor: 0.9, ExpiryHorizon: 15, DropExpiredPending: true},
		s.EngineConfig())

	servers, err := s.BuildServers(NewPartitionedRNG(NewSimulationKey(1)))
	require.NoError(t, err)
	require.Len(t, servers, 2)
	assert.Equal(t, NewServiceSet(Navigation, TrafficInfo), servers[0].Services)
	assert.True(t, servers[0].Active)
	assert.Equal(t, AllServices(), servers[1].Services)
	assert.False(t, servers[1].Active)
	assert.Equal(t, 10.0, servers[1].CurrentLoad)

	w := s.Workload.WithDefaults()
	assert.Equal(t, int64(7), *w.Seed)
	assert.Equal(t, 30.0, w.Horizon)
	assert.Equal(t, "gamma", w.Arrival.Process)
}

func TestParseScenario_EmptyDocumentUsesDefaults(t *testing.T) {
	s, err := ParseScenario(nil)
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	assert.Equal(t, DefaultStrategyConfig(DefaultStrategyName), s.StrategyConfig())
	assert.Equal(t, DefaultEngineConfig(), s.EngineConfig())

	servers, err := s.BuildServers(NewPartitionedRNG(NewSimulationKey(1)))
	require.NoError(t, err)
	assert.Len(t, servers, DefaultLayoutCount)
}

func TestParseScenario_RejectsUnknownKeys(t *testing.T) {
	_, err := ParseScenario([]byte("strategy:\n  nmae: greedy\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestScenario_Validate_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown strategy", "strategy:\n  name: fastest\n"},
		{"bad decay", "engine:\n  decay_factor: 2\n"},
		{"servers and layout", "servers:\n  - {id: 0, compute_capacity: 1}\nlayout:\n  kind: random\n"},
		{"zero capacity server", "servers:\n  - {id: 0, compute_capacity: 0}\n"},
		{"unknown service", "servers:\n  - {id: 0, compute_capacity: 1, services: [weather]}\n"},
		{"unknown layout", "layout:\n  kind: hexagonal\n"},
		{"bad workload", "workload:\n  rate: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseScenario([]byte(tt.yaml))
			require.NoError(t, err)
			assert.ErrorIs(t, s.Validate(), ErrInvalidConfig)
		})
	}
}

func TestScenario_BuildServers_DuplicateIDsCaughtByRegistry(t *testing.T) {
	s, err := ParseScenario([]byte("servers:\n  - {id: 2, compute_capacity: 1}\n  - {id: 2, compute_capacity: 5}\n"))
	require.NoError(t, err)
	servers, err := s.BuildServers(nil)
	require.NoError(t, err)

	_, err = NewRegistry(servers)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy:\n  name: greedy\n"), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, StrategyGreedy, s.Strategy.Name)

	_, err = LoadScenario(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
