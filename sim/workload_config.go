package sim

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Arrival processes supported by the workload generator.
var validArrivalProcesses = map[string]bool{
	"":         true, // poisson
	"poisson":  true,
	"constant": true,
	"gamma":    true,
	"weibull":  true,
}

// ValidArrivalProcessNames returns sorted arrival process names.
func ValidArrivalProcessNames() []string {
	names := make([]string, 0, len(validArrivalProcesses))
	for n := range validArrivalProcesses {
		if n != "" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// Range is a closed interval sampled uniformly.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (r Range) validate(name string) error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("%w: %s must satisfy 0 <= min <= max, got [%v, %v]", ErrInvalidConfig, name, r.Min, r.Max)
	}
	return nil
}

// DistSpec shapes the payload size distribution. Samples are clamped to payload_mb.
// Empirical distributions list "size": probability pairs in Params.
type DistSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params"`
}

// distributionParams lists the parameters each payload distribution requires.
var distributionParams = map[string][]string{
	"uniform":          nil,
	"constant":         {"value"},
	"gaussian":         {"mean", "std_dev"},
	"exponential":      {"mean"},
	"lognormal":        {"mu", "sigma"},
	"pareto_lognormal": {"alpha", "xm", "mu", "sigma", "mix_weight"},
	"empirical":        nil,
}

// ValidDistributionNames returns sorted payload distribution names.
func ValidDistributionNames() []string {
	names := make([]string, 0, len(distributionParams))
	for n := range distributionParams {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks the type and its required parameters.
func (d DistSpec) Validate() error {
	required, ok := distributionParams[d.Type]
	if !ok {
		return fmt.Errorf("%w: unknown payload distribution %q; valid: %s",
			ErrInvalidConfig, d.Type, strings.Join(ValidDistributionNames(), ", "))
	}
	for _, k := range required {
		v, ok := d.Params[k]
		if !ok {
			return fmt.Errorf("%w: %s distribution requires parameter %q", ErrInvalidConfig, d.Type, k)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s parameter %q must be finite", ErrInvalidConfig, d.Type, k)
		}
	}
	if d.Type == "empirical" {
		bins := 0
		for k, p := range d.Params {
			size, err := strconv.ParseFloat(k, 64)
			if err != nil || size < 0 {
				return fmt.Errorf("%w: empirical bin %q is not a non-negative size", ErrInvalidConfig, k)
			}
			if p < 0 || math.IsNaN(p) {
				return fmt.Errorf("%w: empirical bin %q has invalid probability %v", ErrInvalidConfig, k, p)
			}
			if p > 0 {
				bins++
			}
		}
		if bins == 0 {
			return fmt.Errorf("%w: empirical distribution has no bins with positive probability", ErrInvalidConfig)
		}
	}
	return nil
}

// ArrivalConfig describes the inter-arrival process.
type ArrivalConfig struct {
	Process string   `yaml:"process"`
	CV      *float64 `yaml:"cv"` // Coefficient of variation for gamma/weibull
}

// WorkloadConfig describes the synthetic request stream of a simulation run.
// Zero-valued fields take the defaults of DefaultWorkloadConfig via WithDefaults.
type WorkloadConfig struct {
	Seed               *int64             `yaml:"seed"`
	Rate               float64            `yaml:"rate"`         // Requests per second
	MaxRequests        int                `yaml:"max_requests"` // 0 means bounded by horizon only
	Horizon            float64            `yaml:"horizon"`      // Seconds of simulated time
	Vehicles           int                `yaml:"vehicles"`     // Distinct requester IDs
	Center             *Point             `yaml:"center"`
	SpreadDegrees      float64            `yaml:"spread_degrees"`
	PayloadMB          *Range             `yaml:"payload_mb"`
	PayloadDist        *DistSpec          `yaml:"payload_distribution"` // Defaults to uniform over PayloadMB
	DeadlineSeconds    *Range             `yaml:"deadline_seconds"`
	ServiceMix         map[string]float64 `yaml:"service_mix"`
	Arrival            ArrivalConfig      `yaml:"arrival"`
	CancelProbability  float64            `yaml:"cancel_probability"`
	CancelAfterSeconds float64            `yaml:"cancel_after_seconds"`
}

// DefaultWorkloadConfig mirrors the reference request generator: kinds uniform over
// the four services, priority U{1..5}, deadline now+U(1,10), payload U(0.1,5) MB.
func DefaultWorkloadConfig() WorkloadConfig {
	seed := int64(42)
	center := DefaultOrigin
	return WorkloadConfig{
		Seed:            &seed,
		Rate:            2.0,
		Horizon:         100.0,
		Vehicles:        50,
		Center:          &center,
		SpreadDegrees:   0.5,
		PayloadMB:       &Range{Min: 0.1, Max: 5.0},
		DeadlineSeconds: &Range{Min: 1, Max: 10},
		ServiceMix: map[string]float64{
			TrafficInfo.String():    1,
			EmergencyAlert.String(): 1,
			Infotainment.String():   1,
			Navigation.String():     1,
		},
		Arrival:            ArrivalConfig{Process: "poisson"},
		CancelAfterSeconds: 5,
	}
}

// WithDefaults returns c with unset fields filled from DefaultWorkloadConfig.
func (c WorkloadConfig) WithDefaults() WorkloadConfig {
	d := DefaultWorkloadConfig()
	if c.Seed == nil {
		c.Seed = d.Seed
	}
	if c.Rate == 0 {
		c.Rate = d.Rate
	}
	if c.Horizon == 0 {
		c.Horizon = d.Horizon
	}
	if c.Vehicles == 0 {
		c.Vehicles = d.Vehicles
	}
	if c.Center == nil {
		c.Center = d.Center
	}
	if c.SpreadDegrees == 0 {
		c.SpreadDegrees = d.SpreadDegrees
	}
	if c.PayloadMB == nil {
		c.PayloadMB = d.PayloadMB
	}
	if c.DeadlineSeconds == nil {
		c.DeadlineSeconds = d.DeadlineSeconds
	}
	if len(c.ServiceMix) == 0 {
		c.ServiceMix = d.ServiceMix
	}
	if c.Arrival.Process == "" {
		c.Arrival.Process = d.Arrival.Process
	}
	if c.CancelAfterSeconds == 0 {
		c.CancelAfterSeconds = d.CancelAfterSeconds
	}
	return c
}

// Validate checks ranges and names. Call after WithDefaults.
func (c WorkloadConfig) Validate() error {
	if c.Rate <= 0 || math.IsNaN(c.Rate) || math.IsInf(c.Rate, 0) {
		return fmt.Errorf("%w: workload rate must be a finite positive number, got %v", ErrInvalidConfig, c.Rate)
	}
	if c.Horizon <= 0 || math.IsNaN(c.Horizon) {
		return fmt.Errorf("%w: workload horizon must be positive, got %v", ErrInvalidConfig, c.Horizon)
	}
	if c.MaxRequests < 0 {
		return fmt.Errorf("%w: max_requests must be non-negative, got %d", ErrInvalidConfig, c.MaxRequests)
	}
	if c.Vehicles <= 0 {
		return fmt.Errorf("%w: vehicles must be positive, got %d", ErrInvalidConfig, c.Vehicles)
	}
	if c.SpreadDegrees < 0 {
		return fmt.Errorf("%w: spread_degrees must be non-negative, got %v", ErrInvalidConfig, c.SpreadDegrees)
	}
	if c.PayloadMB != nil {
		if err := c.PayloadMB.validate("payload_mb"); err != nil {
			return err
		}
	}
	if c.DeadlineSeconds != nil {
		if err := c.DeadlineSeconds.validate("deadline_seconds"); err != nil {
			return err
		}
	}
	if c.PayloadDist != nil {
		if err := c.PayloadDist.Validate(); err != nil {
			return err
		}
	}
	total := 0.0
	for name, weight := range c.ServiceMix {
		if _, err := ParseServiceKind(name); err != nil {
			return err
		}
		if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			return fmt.Errorf("%w: service_mix weight for %q must be finite and non-negative, got %v", ErrInvalidConfig, name, weight)
		}
		total += weight
	}
	if len(c.ServiceMix) > 0 && total == 0 {
		return fmt.Errorf("%w: service_mix weights sum to zero", ErrInvalidConfig)
	}
	if !validArrivalProcesses[c.Arrival.Process] {
		return fmt.Errorf("%w: unknown arrival process %q; valid: %s",
			ErrInvalidConfig, c.Arrival.Process, strings.Join(ValidArrivalProcessNames(), ", "))
	}
	if c.Arrival.CV != nil && (*c.Arrival.CV <= 0 || math.IsNaN(*c.Arrival.CV)) {
		return fmt.Errorf("%w: arrival cv must be positive, got %v", ErrInvalidConfig, *c.Arrival.CV)
	}
	if c.CancelProbability < 0 || c.CancelProbability > 1 || math.IsNaN(c.CancelProbability) {
		return fmt.Errorf("%w: cancel_probability must be in [0, 1], got %v", ErrInvalidConfig, c.CancelProbability)
	}
	if c.CancelAfterSeconds < 0 {
		return fmt.Errorf("%w: cancel_after_seconds must be non-negative, got %v", ErrInvalidConfig, c.CancelAfterSeconds)
	}
	return nil
}
