package sim

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Strategy names accepted by NewStrategy.
const (
	StrategyGreedy                = "greedy"
	StrategyThreshold             = "threshold"
	StrategyGreedyLatencyAware    = "greedy-latency-aware"
	StrategyThresholdLatencyAware = "threshold-latency-aware"
)

// validStrategyNames maps strategy names to validity. Unexported to prevent mutation.
var validStrategyNames = map[string]bool{
	StrategyGreedy:                true,
	StrategyThreshold:             true,
	StrategyGreedyLatencyAware:    true,
	StrategyThresholdLatencyAware: true,
}

// IsValidStrategy returns true if name is a recognized placement strategy.
func IsValidStrategy(name string) bool { return validStrategyNames[name] }

// ValidStrategyNames returns sorted valid strategy names.
func ValidStrategyNames() []string {
	names := make([]string, 0, len(validStrategyNames))
	for name := range validStrategyNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Strategy selects an edge server for a request.
// Implementations only read the snapshot; the engine applies the resulting load.
// Select returns false when no server is eligible, which is the normal
// "no capacity" outcome rather than an error.
type Strategy interface {
	Name() string
	Select(req ServiceRequest, snap Snapshot, now float64) (ServicePlacement, bool)
}

// StrategyConfig carries the tunables of a placement strategy.
// Nil overrides fall back to the variant's defaults (see variantDefaults).
type StrategyConfig struct {
	Name          string
	LoadThreshold float64 // Utilization above which threshold variants skip a server
	LoadWeight    float64 // Latency-aware variants: weight of normalized load
	LatencyWeight float64 // Latency-aware variants: weight of normalized latency

	CapacityCeiling *float64 // Multiple of capacity a server may reach after placement
	ChargeFactor    *float64 // Fraction of payload charged as load
	QueueMultiplier *float64 // Queueing-delay multiplier of the latency model
	MaxLatencyMs    *float64 // Latency ceiling; nil disables the check
}

// DefaultStrategyConfig returns the default tunables for name.
func DefaultStrategyConfig(name string) StrategyConfig {
	return StrategyConfig{
		Name:          name,
		LoadThreshold: 0.8,
		LoadWeight:    0.5,
		LatencyWeight: 0.5,
	}
}

// variantDefaults are the per-variant eligibility parameters.
// The greedy family tolerates 20% soft overload and charges a tenth of the payload;
// the threshold family is strict and charges the full payload.
var variantDefaults = map[string]struct {
	ceiling, charge, queue float64
}{
	StrategyGreedy:                {ceiling: 1.2, charge: 0.1, queue: 5.0},
	StrategyThreshold:             {ceiling: 1.0, charge: 1.0, queue: 20.0},
	StrategyGreedyLatencyAware:    {ceiling: 1.2, charge: 0.1, queue: 5.0},
	StrategyThresholdLatencyAware: {ceiling: 1.0, charge: 1.0, queue: 20.0},
}

// Validate checks the name and parameter ranges.
func (c StrategyConfig) Validate() error {
	if !IsValidStrategy(c.Name) {
		return fmt.Errorf("%w: unknown placement strategy %q; valid: %s",
			ErrInvalidConfig, c.Name, strings.Join(ValidStrategyNames(), ", "))
	}
	checks := []struct {
		name  string
		value float64
	}{
		{"load_threshold", c.LoadThreshold},
		{"load_weight", c.LoadWeight},
		{"latency_weight", c.LatencyWeight},
	}
	for _, ck := range checks {
		if ck.value < 0 || math.IsNaN(ck.value) || math.IsInf(ck.value, 0) {
			return fmt.Errorf("%w: %s must be a finite non-negative number, got %v", ErrInvalidConfig, ck.name, ck.value)
		}
	}
	if c.CapacityCeiling != nil && (*c.CapacityCeiling <= 0 || math.IsNaN(*c.CapacityCeiling)) {
		return fmt.Errorf("%w: capacity_ceiling must be positive, got %v", ErrInvalidConfig, *c.CapacityCeiling)
	}
	if c.ChargeFactor != nil && (*c.ChargeFactor < 0 || math.IsNaN(*c.ChargeFactor)) {
		return fmt.Errorf("%w: charge_factor must be non-negative, got %v", ErrInvalidConfig, *c.ChargeFactor)
	}
	if c.QueueMultiplier != nil && (*c.QueueMultiplier < 0 || math.IsNaN(*c.QueueMultiplier)) {
		return fmt.Errorf("%w: queue_multiplier must be non-negative, got %v", ErrInvalidConfig, *c.QueueMultiplier)
	}
	if c.MaxLatencyMs != nil && (*c.MaxLatencyMs < 0 || math.IsNaN(*c.MaxLatencyMs)) {
		return fmt.Errorf("%w: max_latency_ms must be non-negative, got %v", ErrInvalidConfig, *c.MaxLatencyMs)
	}
	return nil
}

// NewStrategy creates a placement strategy from its configuration.
// Unknown names are configuration errors; there is no fallback strategy.
func NewStrategy(cfg StrategyConfig) (Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	params := newEligibility(cfg)
	switch cfg.Name {
	case StrategyGreedy:
		return &Greedy{eligibility: params}, nil
	case StrategyThreshold:
		return &Threshold{eligibility: params, loadThreshold: cfg.LoadThreshold}, nil
	case StrategyGreedyLatencyAware:
		return &GreedyLatencyAware{
			eligibility: params,
			weights:     scoreWeights{load: cfg.LoadWeight, latency: cfg.LatencyWeight},
		}, nil
	case StrategyThresholdLatencyAware:
		return &ThresholdLatencyAware{
			eligibility:   params,
			loadThreshold: cfg.LoadThreshold,
			weights:       scoreWeights{load: cfg.LoadWeight, latency: cfg.LatencyWeight},
		}, nil
	default:
		panic(fmt.Sprintf("unhandled placement strategy %q", cfg.Name))
	}
}

// eligibility holds the shared pre-scoring filter and the charge convention
// of one strategy variant.
type eligibility struct {
	capacityCeiling float64
	chargeFactor    float64
	maxLatencyMs    float64 // +Inf when disabled
	latency         GeoLatencyModel
}

func newEligibility(cfg StrategyConfig) eligibility {
	d := variantDefaults[cfg.Name]
	e := eligibility{
		capacityCeiling: d.ceiling,
		chargeFactor:    d.charge,
		maxLatencyMs:    math.Inf(1),
		latency:         NewGeoLatencyModel(d.queue),
	}
	if cfg.CapacityCeiling != nil {
		e.capacityCeiling = *cfg.CapacityCeiling
	}
	if cfg.ChargeFactor != nil {
		e.chargeFactor = *cfg.ChargeFactor
	}
	if cfg.QueueMultiplier != nil {
		e.latency = NewGeoLatencyModel(*cfg.QueueMultiplier)
	}
	if cfg.MaxLatencyMs != nil {
		e.maxLatencyMs = *cfg.MaxLatencyMs
	}
	return e
}

// charge returns the load a placement of req adds to its server.
func (e eligibility) charge(req ServiceRequest) float64 {
	return req.PayloadMB * e.chargeFactor
}

// evaluate applies the shared eligibility filter to one server and, if it passes,
// returns the estimated latency. Order: active, supports kind, capacity ceiling, latency ceiling.
func (e eligibility) evaluate(req ServiceRequest, server EdgeServer) (float64, bool) {
	if !server.Active || !server.Supports(req.Kind) {
		return 0, false
	}
	if server.CurrentLoad+e.charge(req) > e.capacityCeiling*server.ComputeCapacity {
		return 0, false
	}
	latency := e.latency.Estimate(req, server)
	if latency > e.maxLatencyMs {
		return 0, false
	}
	return latency, true
}

func (e eligibility) placement(req ServiceRequest, server EdgeServer, latency, now float64) ServicePlacement {
	return ServicePlacement{
		RequestID:          req.ID,
		ServerID:           server.ID,
		Kind:               req.Kind,
		PlacedAt:           now,
		EstimatedLatencyMs: latency,
		ResourceUsage:      e.charge(req),
	}
}

// CapacityCeiling returns the multiple of capacity a server may reach.
func (e eligibility) CapacityCeiling() float64 { return e.capacityCeiling }

// ChargeFactor returns the fraction of payload charged as load.
func (e eligibility) ChargeFactor() float64 { return e.chargeFactor }

// QueueMultiplier returns the latency model's queueing multiplier.
func (e eligibility) QueueMultiplier() float64 { return e.latency.QueueMultiplier }

// candidate is an eligible server with its estimated latency.
type candidate struct {
	server  EdgeServer
	latency float64
}
