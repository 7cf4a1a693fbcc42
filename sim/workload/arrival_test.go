package workload

import (
	"math"
	"math/rand"
	"testing"

	"github.com/edge-sim/edge-sim/sim"
	"github.com/stretchr/testify/assert"
)

func TestPoissonSampler_MeanIAT_MatchesRate(t *testing.T) {
	// GIVEN a Poisson sampler at 10 req/sec
	rng := rand.New(rand.NewSource(42))
	sampler := NewArrivalSampler(sim.ArrivalConfig{Process: "poisson"}, 10.0)

	// WHEN 10000 IATs are sampled
	n := 10000
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += sampler.SampleIAT(rng)
	}
	meanIAT := sum / float64(n)

	// THEN mean IAT ≈ 1/rate = 0.1 s (within 5%)
	assert.InEpsilon(t, 0.1, meanIAT, 0.05)
}

func TestConstantSampler_FixedPeriod(t *testing.T) {
	sampler := NewArrivalSampler(sim.ArrivalConfig{Process: "constant"}, 4.0)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5; i++ {
		assert.Equal(t, 0.25, sampler.SampleIAT(rng))
	}
}

func TestGammaSampler_HighCV_ProducesBurstierArrivals(t *testing.T) {
	// GIVEN a Gamma sampler with CV=3.5 and a Poisson sampler at same rate
	rng1 := rand.New(rand.NewSource(42))
	rng2 := rand.New(rand.NewSource(42))
	cv := 3.5
	gamma := NewArrivalSampler(sim.ArrivalConfig{Process: "gamma", CV: &cv}, 10.0)
	poisson := NewArrivalSampler(sim.ArrivalConfig{Process: "poisson"}, 10.0)

	// WHEN 10000 IATs sampled from each
	n := 10000
	gammaIATs := make([]float64, n)
	poissonIATs := make([]float64, n)
	for i := 0; i < n; i++ {
		gammaIATs[i] = gamma.SampleIAT(rng1)
		poissonIATs[i] = poisson.SampleIAT(rng2)
	}

	// THEN Gamma CV > 2.0 and Poisson CV ≈ 1.0
	assert.Greater(t, coefficientOfVariation(gammaIATs), 2.0)
	poissonCV := coefficientOfVariation(poissonIATs)
	assert.True(t, poissonCV > 0.8 && poissonCV < 1.2, "poisson CV = %.2f, want ≈ 1.0", poissonCV)
}

func TestWeibullSampler_MeanMatchesRate(t *testing.T) {
	// GIVEN a Weibull sampler with CV=2 at 5 req/sec
	cv := 2.0
	sampler := NewArrivalSampler(sim.ArrivalConfig{Process: "weibull", CV: &cv}, 5.0)
	rng := rand.New(rand.NewSource(7))

	// WHEN many IATs are sampled
	n := 50000
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += sampler.SampleIAT(rng)
	}

	// THEN the mean IAT tracks 1/rate within 10%
	assert.InEpsilon(t, 0.2, sum/float64(n), 0.1)
}

func TestArrivalSamplers_AlwaysPositive(t *testing.T) {
	cv := 0.5
	rng := rand.New(rand.NewSource(3))
	for _, cfg := range []sim.ArrivalConfig{
		{Process: "poisson"}, {Process: "constant"}, {Process: "gamma", CV: &cv}, {Process: "weibull", CV: &cv},
	} {
		t.Run(cfg.Process, func(t *testing.T) {
			sampler := NewArrivalSampler(cfg, 1e9)
			for i := 0; i < 1000; i++ {
				assert.Greater(t, sampler.SampleIAT(rng), 0.0)
			}
		})
	}
}

func TestNewArrivalSampler_UnknownProcess_Panics(t *testing.T) {
	assert.Panics(t, func() {
		NewArrivalSampler(sim.ArrivalConfig{Process: "bursty"}, 1)
	})
}

func coefficientOfVariation(values []float64) float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance) / mean
}
