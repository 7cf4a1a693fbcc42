// sim/metrics_utils.go
package sim

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Distribution captures the statistical summary of a metric.
type Distribution struct {
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// NewDistribution computes a Distribution from raw values.
// Returns zero-value Distribution for empty input. The input is not modified.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Mean:  stat.Mean(sorted, nil),
		P50:   stat.Quantile(0.50, stat.LinInterp, sorted, nil),
		P95:   stat.Quantile(0.95, stat.LinInterp, sorted, nil),
		P99:   stat.Quantile(0.99, stat.LinInterp, sorted, nil),
		Min:   floats.Min(sorted),
		Max:   floats.Max(sorted),
		Count: len(sorted),
	}
}

// JainFairness returns Jain's fairness index (Σx)² / (n·Σx²) in [1/n, 1].
// An all-zero or empty input is perfectly fair and yields 1.
func JainFairness(values []float64) float64 {
	if len(values) == 0 {
		return 1
	}
	sumSquares := floats.Dot(values, values)
	if sumSquares == 0 {
		return 1
	}
	sum := floats.Sum(values)
	return sum * sum / (float64(len(values)) * sumSquares)
}

// safeRatio returns num/den, or 0 when den is zero.
func safeRatio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
