package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDistribution_Empty(t *testing.T) {
	assert.Equal(t, Distribution{}, NewDistribution(nil))
}

func TestNewDistribution_SingleValue(t *testing.T) {
	d := NewDistribution([]float64{4.2})
	assert.Equal(t, 1, d.Count)
	for _, v := range []float64{d.Mean, d.P50, d.P95, d.P99, d.Min, d.Max} {
		assert.InDelta(t, 4.2, v, 1e-12)
	}
}

func TestNewDistribution_OrderAndBounds(t *testing.T) {
	// GIVEN unsorted input
	values := []float64{9, 1, 5, 3, 7}

	// WHEN summarized
	d := NewDistribution(values)

	// THEN bounds and mean are exact and quantiles are ordered
	assert.Equal(t, 5, d.Count)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 9.0, d.Max)
	assert.InDelta(t, 5.0, d.Mean, 1e-12)
	assert.LessOrEqual(t, d.Min, d.P50)
	assert.LessOrEqual(t, d.P50, d.P95)
	assert.LessOrEqual(t, d.P95, d.P99)
	assert.LessOrEqual(t, d.P99, d.Max)
	assert.Equal(t, []float64{9, 1, 5, 3, 7}, values, "input is not modified")
}

func TestJainFairness(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 1},
		{"all zero", []float64{0, 0, 0}, 1},
		{"perfectly even", []float64{0.4, 0.4, 0.4, 0.4}, 1},
		{"one server carries everything", []float64{1, 0, 0, 0}, 0.25},
		{"two of four", []float64{0.5, 0.5, 0, 0}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, JainFairness(tt.values), 1e-12)
		})
	}
}

func TestSafeRatio(t *testing.T) {
	assert.Equal(t, 0.0, safeRatio(3, 0))
	assert.Equal(t, 0.75, safeRatio(3, 4))
}
