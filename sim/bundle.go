package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario holds a complete run configuration, loadable from a YAML file.
// Nil pointer fields mean "not set in YAML" and fall back to defaults.
// String fields use empty string for "not set".
type Scenario struct {
	Strategy StrategySection `yaml:"strategy"`
	Engine   EngineSection   `yaml:"engine"`
	Servers  []ServerSpec    `yaml:"servers"`
	Layout   LayoutConfig    `yaml:"layout"`
	Workload WorkloadConfig  `yaml:"workload"`
}

// StrategySection holds placement strategy configuration.
type StrategySection struct {
	Name            string   `yaml:"name"`
	LoadThreshold   *float64 `yaml:"load_threshold"`
	LoadWeight      *float64 `yaml:"load_weight"`
	LatencyWeight   *float64 `yaml:"latency_weight"`
	CapacityCeiling *float64 `yaml:"capacity_ceiling"`
	ChargeFactor    *float64 `yaml:"charge_factor"`
	QueueMultiplier *float64 `yaml:"queue_multiplier"`
	MaxLatencyMs    *float64 `yaml:"max_latency_ms"`
}

// EngineSection holds periodic-maintenance configuration.
type EngineSection struct {
	EvaluationInterval *float64 `yaml:"evaluation_interval"`
	DecayFactor        *float64 `yaml:"decay_factor"`
	ExpiryHorizon      *float64 `yaml:"expiry_horizon"`
	DropExpiredPending *bool    `yaml:"drop_expired_pending"`
}

// ServerSpec is one explicitly configured edge server.
type ServerSpec struct {
	ID              int      `yaml:"id"`
	Latitude        float64  `yaml:"latitude"`
	Longitude       float64  `yaml:"longitude"`
	ComputeCapacity float64  `yaml:"compute_capacity"`
	StorageCapacity float64  `yaml:"storage_capacity"`
	InitialLoad     float64  `yaml:"initial_load"`
	Active          *bool    `yaml:"active"`   // Defaults to true
	Services        []string `yaml:"services"` // Defaults to every service kind
}

// DefaultStrategyName is used when neither the scenario nor the CLI names a strategy.
const DefaultStrategyName = StrategyGreedy

// LoadScenario reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses YAML scenario bytes with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parsing scenario: %v", ErrInvalidConfig, err)
	}
	return &s, nil
}

// Validate checks names and parameter ranges across every section.
func (s *Scenario) Validate() error {
	if err := s.StrategyConfig().Validate(); err != nil {
		return err
	}
	if err := s.EngineConfig().Validate(); err != nil {
		return err
	}
	if len(s.Servers) > 0 && s.Layout.Kind != "" {
		return fmt.Errorf("%w: servers and layout are mutually exclusive", ErrInvalidConfig)
	}
	for i, spec := range s.Servers {
		if _, err := spec.toServer(); err != nil {
			return fmt.Errorf("servers[%d]: %w", i, err)
		}
	}
	if err := s.Layout.Validate(); err != nil {
		return err
	}
	return s.Workload.WithDefaults().Validate()
}

// StrategyConfig resolves the strategy section against defaults.
func (s *Scenario) StrategyConfig() StrategyConfig {
	name := s.Strategy.Name
	if name == "" {
		name = DefaultStrategyName
	}
	cfg := DefaultStrategyConfig(name)
	if s.Strategy.LoadThreshold != nil {
		cfg.LoadThreshold = *s.Strategy.LoadThreshold
	}
	if s.Strategy.LoadWeight != nil {
		cfg.LoadWeight = *s.Strategy.LoadWeight
	}
	if s.Strategy.LatencyWeight != nil {
		cfg.LatencyWeight = *s.Strategy.LatencyWeight
	}
	cfg.CapacityCeiling = s.Strategy.CapacityCeiling
	cfg.ChargeFactor = s.Strategy.ChargeFactor
	cfg.QueueMultiplier = s.Strategy.QueueMultiplier
	cfg.MaxLatencyMs = s.Strategy.MaxLatencyMs
	return cfg
}

// EngineConfig resolves the engine section against defaults.
func (s *Scenario) EngineConfig() EngineConfig {
	cfg := DefaultEngineConfig()
	if s.Engine.EvaluationInterval != nil {
		cfg.EvaluationInterval = *s.Engine.EvaluationInterval
	}
	if s.Engine.DecayFactor != nil {
		cfg.DecayFactor = *s.Engine.DecayFactor
	}
	if s.Engine.ExpiryHorizon != nil {
		cfg.ExpiryHorizon = *s.Engine.ExpiryHorizon
	}
	if s.Engine.DropExpiredPending != nil {
		cfg.DropExpiredPending = *s.Engine.DropExpiredPending
	}
	return cfg
}

// BuildServers returns the explicit servers if any were configured,
// otherwise the generated layout.
func (s *Scenario) BuildServers(rng *PartitionedRNG) ([]EdgeServer, error) {
	if len(s.Servers) == 0 {
		return s.Layout.Build(rng), nil
	}
	servers := make([]EdgeServer, 0, len(s.Servers))
	for i, spec := range s.Servers {
		server, err := spec.toServer()
		if err != nil {
			return nil, fmt.Errorf("servers[%d]: %w", i, err)
		}
		servers = append(servers, server)
	}
	return servers, nil
}

func (spec ServerSpec) toServer() (EdgeServer, error) {
	if math.IsNaN(spec.Latitude) || math.IsNaN(spec.Longitude) {
		return EdgeServer{}, fmt.Errorf("%w: server %d coordinates must be numbers", ErrInvalidConfig, spec.ID)
	}
	services := AllServices()
	if len(spec.Services) > 0 {
		services = 0
		for _, name := range spec.Services {
			kind, err := ParseServiceKind(name)
			if err != nil {
				return EdgeServer{}, err
			}
			services = services.With(kind)
		}
	}
	active := true
	if spec.Active != nil {
		active = *spec.Active
	}
	server := EdgeServer{
		ID:              spec.ID,
		Latitude:        spec.Latitude,
		Longitude:       spec.Longitude,
		ComputeCapacity: spec.ComputeCapacity,
		StorageCapacity: spec.StorageCapacity,
		CurrentLoad:     spec.InitialLoad,
		Active:          active,
		Services:        services,
	}
	if err := server.validate(); err != nil {
		return EdgeServer{}, err
	}
	return server, nil
}
