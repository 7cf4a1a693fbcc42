// Tracks run-wide placement metrics: arrivals, first-attempt and retry placements,
// rejections, expiries, cancellations, latency and utilization over time.

package sim

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// Metrics is an Observer that aggregates counters for the final summary.
type Metrics struct {
	Received      int // Requests submitted
	ServedInitial int // Placed on first attempt
	ServedRetry   int // Placed by a tick retry
	Rejected      int // First-attempt failures (each request counted once)
	Expired       int // Placements purged by age
	Cancelled     int // Entries removed by cancellation
	Dropped       int // Pending requests dropped past their deadline
	Ticks         int

	PlacementLatencies []float64   // Estimated latency of every placement, ms
	TickUtilization    []float64   // Mean server utilization after each tick
	ServerPlacements   map[int]int // Server ID → placements

	FinalUtilization []UtilizationSample
	FinalPending     int
	FinalActive      int
	EndClock         float64
}

// NewMetrics returns an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{ServerPlacements: make(map[int]int)}
}

// RequestReceived implements Observer.
func (m *Metrics) RequestReceived(_ ServiceRequest, _ float64) { m.Received++ }

// RequestPlaced implements Observer.
func (m *Metrics) RequestPlaced(p ServicePlacement, retry bool) {
	if retry {
		m.ServedRetry++
	} else {
		m.ServedInitial++
	}
	m.PlacementLatencies = append(m.PlacementLatencies, p.EstimatedLatencyMs)
	m.ServerPlacements[p.ServerID]++
}

// RequestRejected implements Observer.
func (m *Metrics) RequestRejected(_ ServiceRequest, _ float64) { m.Rejected++ }

// RequestCancelled implements Observer.
func (m *Metrics) RequestCancelled(_, removed int, _ float64) { m.Cancelled += removed }

// TickCompleted implements Observer.
func (m *Metrics) TickCompleted(report TickReport) {
	m.Ticks++
	m.Expired += report.Expired
	m.Dropped += report.Dropped
	utils := make([]float64, 0, len(report.Utilizations))
	for _, s := range report.Utilizations {
		utils = append(utils, s.Utilization)
	}
	if len(utils) > 0 {
		m.TickUtilization = append(m.TickUtilization, stat.Mean(utils, nil))
	}
	m.FinalUtilization = report.Utilizations
	m.FinalPending = report.StillPending
	m.FinalActive = report.ActivePlacements
	m.EndClock = report.Clock
}

// Finalize records the engine's end state. Call once after the last event.
func (m *Metrics) Finalize(e *Engine) {
	m.FinalUtilization = e.Registry().Utilizations()
	m.FinalPending = len(e.pending)
	m.FinalActive = len(e.active)
	m.EndClock = e.Clock().Now()
}

// MetricsOutput is the JSON-serializable run summary.
type MetricsOutput struct {
	Strategy           string       `json:"strategy"`
	EndClock           float64      `json:"end_clock"`
	Received           int          `json:"requests_received"`
	ServedInitial      int          `json:"requests_served_initial"`
	ServedRetry        int          `json:"requests_served_retry"`
	Rejected           int          `json:"requests_rejected"`
	Expired            int          `json:"placements_expired"`
	Cancelled          int          `json:"requests_cancelled"`
	Dropped            int          `json:"requests_dropped"`
	Ticks              int          `json:"ticks"`
	SuccessRate        float64      `json:"success_rate"`
	RejectionRate      float64      `json:"rejection_rate"`
	LatencyMs          Distribution `json:"latency_ms"`
	MeanUtilization    float64      `json:"mean_utilization"`
	FinalUtilization   Distribution `json:"final_utilization"`
	FairnessIndex      float64      `json:"load_balancing_efficiency"`
	FinalPending       int          `json:"final_pending"`
	FinalActive        int          `json:"final_active_placements"`
	PlacementsByServer map[int]int  `json:"placements_by_server"`
}

// Summarize computes derived statistics.
func (m *Metrics) Summarize(strategy string) MetricsOutput {
	served := m.ServedInitial + m.ServedRetry
	final := make([]float64, 0, len(m.FinalUtilization))
	for _, s := range m.FinalUtilization {
		final = append(final, s.Utilization)
	}
	meanUtil := 0.0
	if len(m.TickUtilization) > 0 {
		meanUtil = stat.Mean(m.TickUtilization, nil)
	}
	byServer := make(map[int]int, len(m.ServerPlacements))
	for id, n := range m.ServerPlacements {
		byServer[id] = n
	}
	return MetricsOutput{
		Strategy:           strategy,
		EndClock:           m.EndClock,
		Received:           m.Received,
		ServedInitial:      m.ServedInitial,
		ServedRetry:        m.ServedRetry,
		Rejected:           m.Rejected,
		Expired:            m.Expired,
		Cancelled:          m.Cancelled,
		Dropped:            m.Dropped,
		Ticks:              m.Ticks,
		SuccessRate:        safeRatio(served, m.Received),
		RejectionRate:      safeRatio(m.Rejected, m.Received),
		LatencyMs:          NewDistribution(m.PlacementLatencies),
		MeanUtilization:    meanUtil,
		FinalUtilization:   NewDistribution(final),
		FairnessIndex:      JainFairness(final),
		FinalPending:       m.FinalPending,
		FinalActive:        m.FinalActive,
		PlacementsByServer: byServer,
	}
}

// Print displays the run summary on stdout.
func (m *Metrics) Print(strategy string) {
	out := m.Summarize(strategy)
	fmt.Println("=== Placement Metrics ===")
	fmt.Printf("Strategy             : %s\n", out.Strategy)
	fmt.Printf("Requests Received    : %d\n", out.Received)
	fmt.Printf("Served (first try)   : %d\n", out.ServedInitial)
	fmt.Printf("Served (retry)       : %d\n", out.ServedRetry)
	fmt.Printf("Rejected (initial)   : %d\n", out.Rejected)
	fmt.Printf("Expired Placements   : %d\n", out.Expired)
	fmt.Printf("Cancelled            : %d\n", out.Cancelled)
	if out.Dropped > 0 {
		fmt.Printf("Dropped (deadline)   : %d\n", out.Dropped)
	}
	fmt.Printf("Success Rate         : %.2f%%\n", out.SuccessRate*100)
	fmt.Printf("Rejection Rate       : %.2f%%\n", out.RejectionRate*100)
	if out.LatencyMs.Count > 0 {
		fmt.Printf("Latency mean/p50/p95 : %.3f / %.3f / %.3f ms\n",
			out.LatencyMs.Mean, out.LatencyMs.P50, out.LatencyMs.P95)
	}
	fmt.Printf("Mean Utilization     : %.4f\n", out.MeanUtilization)
	fmt.Printf("Load Balancing Eff.  : %.4f\n", out.FairnessIndex)
	fmt.Printf("Final Pending        : %d\n", out.FinalPending)
	fmt.Printf("Final Active         : %d\n", out.FinalActive)
}

// SaveResults writes the summary as indented JSON to path.
func (m *Metrics) SaveResults(strategy, path string) error {
	data, err := json.MarshalIndent(m.Summarize(strategy), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	logrus.Infof("Saved results to %s", path)
	return nil
}
