package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// latencyNormalizationMs caps the latency term of the weighted score at 1.
const latencyNormalizationMs = 100.0

// scoreWeights are the load and latency weights of the latency-aware variants.
// They are neither normalized nor required to sum to 1.
type scoreWeights struct {
	load    float64
	latency float64
}

// weightedScore combines utilization and normalized latency. Lower is better.
func (w scoreWeights) weightedScore(utilization, latencyMs float64) float64 {
	return w.load*utilization + w.latency*math.Min(latencyMs/latencyNormalizationMs, 1.0)
}

// priorityScore is the threshold strategy's objective. Lower is better:
// latency plus a utilization penalty minus a bonus for urgent requests.
func priorityScore(latencyMs, utilization float64, priority int) float64 {
	return latencyMs + utilization*100 - float64(LowestPriority-priority)*10
}

// Greedy places each request on the eligible server with the lowest estimated latency.
type Greedy struct {
	eligibility
}

// Name implements Strategy.
func (g *Greedy) Name() string { return StrategyGreedy }

// Select implements Strategy.
func (g *Greedy) Select(req ServiceRequest, snap Snapshot, now float64) (ServicePlacement, bool) {
	var best candidate
	found := false
	for i := 0; i < snap.Len(); i++ {
		server := snap.At(i)
		latency, ok := g.evaluate(req, server)
		if !ok {
			continue
		}
		if !found || latency < best.latency {
			best = candidate{server: server, latency: latency}
			found = true
		}
	}
	if !found {
		logrus.Debugf("[greedy] no eligible server for request %d (%s)", req.ID, req.Kind)
		return ServicePlacement{}, false
	}
	return g.placement(req, best.server, best.latency, now), true
}

// Threshold skips servers whose utilization exceeds the load threshold and scores
// the rest by latency, utilization and request priority. It never falls back:
// when every server is above the threshold the request is not placed.
type Threshold struct {
	eligibility
	loadThreshold float64
}

// Name implements Strategy.
func (t *Threshold) Name() string { return StrategyThreshold }

// LoadThreshold returns the utilization cutoff.
func (t *Threshold) LoadThreshold() float64 { return t.loadThreshold }

// Select implements Strategy.
func (t *Threshold) Select(req ServiceRequest, snap Snapshot, now float64) (ServicePlacement, bool) {
	var best candidate
	bestScore := math.Inf(1)
	found := false
	for i := 0; i < snap.Len(); i++ {
		server := snap.At(i)
		utilization := server.Utilization()
		if utilization > t.loadThreshold {
			continue
		}
		latency, ok := t.evaluate(req, server)
		if !ok {
			continue
		}
		score := priorityScore(latency, utilization, req.Priority)
		logrus.Debugf("[threshold] req %d server %d: latency=%.3f util=%.3f score=%.3f",
			req.ID, server.ID, latency, utilization, score)
		if !found || score < bestScore {
			best = candidate{server: server, latency: latency}
			bestScore = score
			found = true
		}
	}
	if !found {
		return ServicePlacement{}, false
	}
	return t.placement(req, best.server, best.latency, now), true
}

// GreedyLatencyAware minimizes a weighted sum of utilization and normalized latency
// over all eligible servers.
type GreedyLatencyAware struct {
	eligibility
	weights scoreWeights
}

// Name implements Strategy.
func (g *GreedyLatencyAware) Name() string { return StrategyGreedyLatencyAware }

// Select implements Strategy.
func (g *GreedyLatencyAware) Select(req ServiceRequest, snap Snapshot, now float64) (ServicePlacement, bool) {
	candidates := eligibleCandidates(g.eligibility, req, snap)
	best, ok := argminWeighted(g.weights, candidates)
	if !ok {
		return ServicePlacement{}, false
	}
	return g.placement(req, best.server, best.latency, now), true
}

// ThresholdLatencyAware prefers servers at or below the load threshold and falls back
// to every eligible server when none qualifies. The chosen pool is scored like
// GreedyLatencyAware.
type ThresholdLatencyAware struct {
	eligibility
	loadThreshold float64
	weights       scoreWeights
}

// Name implements Strategy.
func (t *ThresholdLatencyAware) Name() string { return StrategyThresholdLatencyAware }

// LoadThreshold returns the utilization cutoff of the first pass.
func (t *ThresholdLatencyAware) LoadThreshold() float64 { return t.loadThreshold }

// Select implements Strategy.
func (t *ThresholdLatencyAware) Select(req ServiceRequest, snap Snapshot, now float64) (ServicePlacement, bool) {
	candidates := eligibleCandidates(t.eligibility, req, snap)
	if len(candidates) == 0 {
		return ServicePlacement{}, false
	}
	underThreshold := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.server.Utilization() <= t.loadThreshold {
			underThreshold = append(underThreshold, c)
		}
	}
	pool := underThreshold
	if len(pool) == 0 {
		logrus.Debugf("[threshold-latency-aware] all %d eligible servers above threshold %.2f for request %d, falling back",
			len(candidates), t.loadThreshold, req.ID)
		pool = candidates
	}
	best, _ := argminWeighted(t.weights, pool)
	return t.placement(req, best.server, best.latency, now), true
}

// eligibleCandidates returns the servers passing the shared filter, in ascending ID order.
func eligibleCandidates(e eligibility, req ServiceRequest, snap Snapshot) []candidate {
	candidates := make([]candidate, 0, snap.Len())
	for i := 0; i < snap.Len(); i++ {
		server := snap.At(i)
		if latency, ok := e.evaluate(req, server); ok {
			candidates = append(candidates, candidate{server: server, latency: latency})
		}
	}
	return candidates
}

// argminWeighted returns the candidate with the lowest weighted score.
// Strict comparison keeps the first (lowest ID) candidate on ties.
func argminWeighted(w scoreWeights, candidates []candidate) (candidate, bool) {
	if len(candidates) == 0 {
		return candidate{}, false
	}
	best := candidates[0]
	bestScore := w.weightedScore(best.server.Utilization(), best.latency)
	for _, c := range candidates[1:] {
		score := w.weightedScore(c.server.Utilization(), c.latency)
		if score < bestScore {
			best, bestScore = c, score
		}
	}
	return best, true
}
