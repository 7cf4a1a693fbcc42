package workload

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/edge-sim/edge-sim/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wideBounds = sim.Range{Min: 0, Max: 1000}

func sampleMean(t *testing.T, s PayloadSampler, n int) float64 {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += s.Sample(rng)
	}
	return sum / float64(n)
}

func TestNewPayloadSampler_NilSpec_MatchesUniformDraw(t *testing.T) {
	// GIVEN no distribution spec
	bounds := sim.Range{Min: 0.1, Max: 5}
	s, err := NewPayloadSampler(nil, bounds)
	require.NoError(t, err)

	// WHEN sampling alongside a raw uniform draw on identically seeded streams
	a := rand.New(rand.NewSource(7))
	b := rand.New(rand.NewSource(7))

	// THEN the sampler consumes exactly one draw per sample and matches the formula
	for i := 0; i < 100; i++ {
		assert.Equal(t, uniform(b, bounds), s.Sample(a))
	}
}

func TestPayloadSamplers_MeanMatchesParams(t *testing.T) {
	tests := []struct {
		name string
		spec sim.DistSpec
		want float64
	}{
		{"gaussian", sim.DistSpec{Type: "gaussian", Params: map[string]float64{"mean": 2, "std_dev": 0.5}}, 2},
		{"exponential", sim.DistSpec{Type: "exponential", Params: map[string]float64{"mean": 1.5}}, 1.5},
		{"lognormal", sim.DistSpec{Type: "lognormal", Params: map[string]float64{"mu": 0, "sigma": 0.5}}, math.Exp(0.125)},
		{"constant", sim.DistSpec{Type: "constant", Params: map[string]float64{"value": 3}}, 3},
		{"empirical", sim.DistSpec{Type: "empirical", Params: map[string]float64{"1": 0.25, "4": 0.75}}, 3.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewPayloadSampler(&tt.spec, wideBounds)
			require.NoError(t, err)
			mean := sampleMean(t, s, 20000)
			assert.InEpsilon(t, tt.want, mean, 0.05)
		})
	}
}

func TestPayloadSampler_ClampedToBounds(t *testing.T) {
	// GIVEN a wide gaussian and a narrow payload range
	bounds := sim.Range{Min: 1, Max: 2}
	s, err := NewPayloadSampler(&sim.DistSpec{
		Type:   "gaussian",
		Params: map[string]float64{"mean": 1.5, "std_dev": 10},
	}, bounds)
	require.NoError(t, err)

	// WHEN sampling many times
	rng := rand.New(rand.NewSource(42))
	sawMin, sawMax := false, false
	for i := 0; i < 5000; i++ {
		v := s.Sample(rng)
		// THEN every sample stays within the range and both bounds are hit
		require.GreaterOrEqual(t, v, bounds.Min)
		require.LessOrEqual(t, v, bounds.Max)
		sawMin = sawMin || v == bounds.Min
		sawMax = sawMax || v == bounds.Max
	}
	assert.True(t, sawMin)
	assert.True(t, sawMax)
}

func TestParetoLogNormalSampler_HeavyTail(t *testing.T) {
	// GIVEN a mixture with and without the Pareto component
	params := func(mix float64) *sim.DistSpec {
		return &sim.DistSpec{Type: "pareto_lognormal", Params: map[string]float64{
			"alpha": 1.5, "xm": 2, "mu": 0, "sigma": 0.3, "mix_weight": mix,
		}}
	}
	light, err := NewPayloadSampler(params(0), wideBounds)
	require.NoError(t, err)
	heavy, err := NewPayloadSampler(params(0.5), wideBounds)
	require.NoError(t, err)

	// THEN the Pareto share raises the mean and samples stay positive
	assert.Greater(t, sampleMean(t, heavy, 10000), sampleMean(t, light, 10000))
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		assert.Greater(t, heavy.Sample(rng), 0.0)
	}
}

func TestEmpiricalPDFSampler_OnlyReturnsConfiguredSizes(t *testing.T) {
	s := NewEmpiricalPDFSampler(map[float64]float64{0.5: 2, 2.5: 6, 9: 0})
	rng := rand.New(rand.NewSource(42))
	counts := map[float64]int{}
	for i := 0; i < 8000; i++ {
		counts[s.Sample(rng)]++
	}
	assert.Len(t, counts, 2, "zero-probability bins are never drawn")
	assert.InDelta(t, 0.25, float64(counts[0.5])/8000, 0.03, "weights are normalized")
}

func TestEmpiricalPDFSampler_SingleBin_AlwaysReturnsThatValue(t *testing.T) {
	s := NewEmpiricalPDFSampler(map[float64]float64{1.25: 1})
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 10; i++ {
		assert.Equal(t, 1.25, s.Sample(rng))
	}
}

func TestNewPayloadSampler_InvalidSpecs_ReturnError(t *testing.T) {
	tests := []struct {
		name string
		spec sim.DistSpec
	}{
		{"unknown type", sim.DistSpec{Type: "zipf"}},
		{"missing param", sim.DistSpec{Type: "gaussian", Params: map[string]float64{"mean": 1}}},
		{"empty empirical", sim.DistSpec{Type: "empirical"}},
		{"non-numeric bin", sim.DistSpec{Type: "empirical", Params: map[string]float64{"big": 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPayloadSampler(&tt.spec, wideBounds)
			require.Error(t, err)
			assert.True(t, errors.Is(err, sim.ErrInvalidConfig))
		})
	}
}

func TestGenerate_PayloadDistribution_Applied(t *testing.T) {
	// GIVEN a constant payload distribution
	cfg := testConfig(5)
	cfg.PayloadDist = &sim.DistSpec{Type: "constant", Params: map[string]float64{"value": 2.5}}

	// WHEN generating
	w, err := Generate(cfg)
	require.NoError(t, err)
	require.NotEmpty(t, w.Requests)

	// THEN every request carries the constant payload
	for _, r := range w.Requests {
		assert.Equal(t, 2.5, r.PayloadMB)
	}
}

func TestConstantPayloadSampler_ClampedAndIndependentOfArrivals(t *testing.T) {
	// GIVEN a constant payload above the configured range
	s, err := NewPayloadSampler(&sim.DistSpec{Type: "constant", Params: map[string]float64{"value": 50}}, sim.Range{Min: 0.1, Max: 5})
	require.NoError(t, err)

	// WHEN sampled
	rng := rand.New(rand.NewSource(1))
	got := s.Sample(rng)

	// THEN it is clamped to the range maximum and consumes no draws
	assert.Equal(t, 5.0, got)
	assert.Equal(t, rand.New(rand.NewSource(1)).Float64(), rng.Float64())

	// AND the constant arrival process still paces arrivals at 1/rate
	arrivals := NewArrivalSampler(sim.ArrivalConfig{Process: "constant"}, 4)
	assert.Equal(t, 0.25, arrivals.SampleIAT(rng))
}
