package workload

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"

	"github.com/edge-sim/edge-sim/sim"
)

// PayloadSampler generates payload sizes in MB.
type PayloadSampler interface {
	// Sample returns a non-negative payload size.
	Sample(rng *rand.Rand) float64
}

// UniformSampler draws uniformly from [min, max).
type UniformSampler struct {
	min, max float64
}

func (s *UniformSampler) Sample(rng *rand.Rand) float64 {
	return s.min + rng.Float64()*(s.max-s.min)
}

// GaussianSampler produces normally distributed payloads.
type GaussianSampler struct {
	mean, stdDev float64
}

func (s *GaussianSampler) Sample(rng *rand.Rand) float64 {
	return rng.NormFloat64()*s.stdDev + s.mean
}

// ExponentialSampler produces exponentially distributed payloads.
type ExponentialSampler struct {
	mean float64
}

func (s *ExponentialSampler) Sample(rng *rand.Rand) float64 {
	return rng.ExpFloat64() * s.mean
}

// LogNormalSampler produces exp(mu + sigma·Z) payloads.
type LogNormalSampler struct {
	mu, sigma float64
}

func (s *LogNormalSampler) Sample(rng *rand.Rand) float64 {
	return math.Exp(s.mu + s.sigma*rng.NormFloat64())
}

// ParetoLogNormalSampler is a mixture of Pareto and LogNormal distributions.
// With probability mixWeight, draw from Pareto(alpha, xm); otherwise LogNormal(mu, sigma).
// Models a mostly small stream with a heavy tail of bulk transfers.
type ParetoLogNormalSampler struct {
	alpha     float64 // Pareto shape
	xm        float64 // Pareto scale (minimum)
	mu        float64 // LogNormal mean of ln(X)
	sigma     float64 // LogNormal std dev of ln(X)
	mixWeight float64 // Probability of drawing from Pareto
}

func (s *ParetoLogNormalSampler) Sample(rng *rand.Rand) float64 {
	if rng.Float64() < s.mixWeight {
		// Pareto: X = xm / U^(1/alpha)
		u := rng.Float64()
		if u == 0 {
			u = math.SmallestNonzeroFloat64
		}
		return s.xm / math.Pow(u, 1.0/s.alpha)
	}
	return math.Exp(s.mu + s.sigma*rng.NormFloat64())
}

// EmpiricalPDFSampler samples from an empirical probability distribution
// using inverse CDF via binary search.
type EmpiricalPDFSampler struct {
	values []float64 // Sorted payload sizes
	cdf    []float64 // Cumulative probabilities (same length as values)
}

// NewEmpiricalPDFSampler creates a sampler from a PDF map (size → probability).
// Probabilities are normalized; non-positive entries are dropped.
func NewEmpiricalPDFSampler(pdf map[float64]float64) *EmpiricalPDFSampler {
	keys := make([]float64, 0, len(pdf))
	for k := range pdf {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	totalProb := 0.0
	for _, k := range keys {
		if pdf[k] > 0 {
			totalProb += pdf[k]
		}
	}

	values := make([]float64, 0, len(keys))
	cdf := make([]float64, 0, len(keys))
	cumulative := 0.0
	for _, k := range keys {
		p := pdf[k]
		if p <= 0 {
			continue
		}
		cumulative += p / totalProb
		values = append(values, k)
		cdf = append(cdf, cumulative)
	}
	if len(cdf) > 0 {
		cdf[len(cdf)-1] = 1.0
	}
	return &EmpiricalPDFSampler{values: values, cdf: cdf}
}

func (s *EmpiricalPDFSampler) Sample(rng *rand.Rand) float64 {
	if len(s.values) == 0 {
		return 0
	}
	if len(s.values) == 1 {
		return s.values[0]
	}
	idx := sort.SearchFloat64s(s.cdf, rng.Float64())
	if idx >= len(s.values) {
		idx = len(s.values) - 1
	}
	return s.values[idx]
}

// ConstantPayloadSampler always returns the same payload.
type ConstantPayloadSampler struct {
	value float64
}

func (s *ConstantPayloadSampler) Sample(_ *rand.Rand) float64 {
	return s.value
}

// clampedSampler bounds another sampler to a closed range.
type clampedSampler struct {
	inner  PayloadSampler
	bounds sim.Range
}

func (s *clampedSampler) Sample(rng *rand.Rand) float64 {
	v := s.inner.Sample(rng)
	if math.IsNaN(v) {
		return s.bounds.Min
	}
	return math.Min(s.bounds.Max, math.Max(s.bounds.Min, v))
}

// NewPayloadSampler creates a PayloadSampler from spec, clamped to bounds.
// A nil spec or type "uniform" draws uniformly over bounds.
func NewPayloadSampler(spec *sim.DistSpec, bounds sim.Range) (PayloadSampler, error) {
	if spec == nil || spec.Type == "uniform" {
		return &UniformSampler{min: bounds.Min, max: bounds.Max}, nil
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	p := spec.Params
	var inner PayloadSampler
	switch spec.Type {
	case "constant":
		inner = &ConstantPayloadSampler{value: p["value"]}
	case "gaussian":
		inner = &GaussianSampler{mean: p["mean"], stdDev: p["std_dev"]}
	case "exponential":
		inner = &ExponentialSampler{mean: p["mean"]}
	case "lognormal":
		inner = &LogNormalSampler{mu: p["mu"], sigma: p["sigma"]}
	case "pareto_lognormal":
		inner = &ParetoLogNormalSampler{
			alpha:     p["alpha"],
			xm:        p["xm"],
			mu:        p["mu"],
			sigma:     p["sigma"],
			mixWeight: p["mix_weight"],
		}
	case "empirical":
		pdf := make(map[float64]float64, len(p))
		for k, v := range p {
			size, err := strconv.ParseFloat(k, 64)
			if err != nil {
				return nil, fmt.Errorf("empirical bin %q: %w", k, err)
			}
			pdf[size] = v
		}
		inner = NewEmpiricalPDFSampler(pdf)
	default:
		return nil, fmt.Errorf("%w: unhandled payload distribution %q", sim.ErrInvalidConfig, spec.Type)
	}
	return &clampedSampler{inner: inner, bounds: bounds}, nil
}
