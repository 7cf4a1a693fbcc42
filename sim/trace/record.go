// Package trace provides placement decision-trace recording for post-run analysis.
// This package has no dependencies on sim/ or sim/cluster/; it stores pure data types.
package trace

// PlacementRecord captures a successful placement.
type PlacementRecord struct {
	RequestID     int     `json:"request_id"`
	Clock         float64 `json:"clock"`
	Kind          string  `json:"kind"`
	ServerID      int     `json:"server_id"`
	LatencyMs     float64 `json:"latency_ms"`
	ResourceUsage float64 `json:"resource_usage"`
	Retry         bool    `json:"retry"` // Placed by a tick retry rather than on submission
}

// RejectionRecord captures a request that found no eligible server on submission.
type RejectionRecord struct {
	RequestID int     `json:"request_id"`
	Clock     float64 `json:"clock"`
	Kind      string  `json:"kind"`
	Priority  int     `json:"priority"`
}

// CancellationRecord captures a cancellation that removed at least one entry.
type CancellationRecord struct {
	RequestID int     `json:"request_id"`
	Clock     float64 `json:"clock"`
	Removed   int     `json:"removed"`
}

// TickRecord captures the outcome of one evaluation tick.
type TickRecord struct {
	Clock             float64 `json:"clock"`
	Expired           int     `json:"expired"`
	Retried           int     `json:"retried"`
	Placed            int     `json:"placed"`
	Dropped           int     `json:"dropped"`
	StillPending      int     `json:"still_pending"`
	ActivePlacements  int     `json:"active_placements"`
	MeanUtilization   float64 `json:"mean_utilization"`
	MaxUtilization    float64 `json:"max_utilization"`
	OverloadedServers int     `json:"overloaded_servers"` // Utilization above 1.0
}
