package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalPlacements    int
	RetryPlacements    int
	Rejections         int
	Cancellations      int
	MeanLatencyMs      float64
	MaxLatencyMs       float64
	UniqueServers      int
	ServerDistribution map[int]int // server ID → placements
	PeakPending        int         // From tick records; 0 below TraceLevelTicks
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		ServerDistribution: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalPlacements = len(st.Placements)
	summary.Rejections = len(st.Rejections)
	for _, c := range st.Cancellations {
		summary.Cancellations += c.Removed
	}

	if len(st.Placements) > 0 {
		totalLatency := 0.0
		for _, p := range st.Placements {
			summary.ServerDistribution[p.ServerID]++
			if p.Retry {
				summary.RetryPlacements++
			}
			totalLatency += p.LatencyMs
			if p.LatencyMs > summary.MaxLatencyMs {
				summary.MaxLatencyMs = p.LatencyMs
			}
		}
		summary.MeanLatencyMs = totalLatency / float64(len(st.Placements))
	}

	for _, t := range st.Ticks {
		if t.StillPending > summary.PeakPending {
			summary.PeakPending = t.StillPending
		}
	}

	summary.UniqueServers = len(summary.ServerDistribution)

	return summary
}
