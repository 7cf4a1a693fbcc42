package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig marks configuration errors that must abort initialization.
var ErrInvalidConfig = errors.New("invalid configuration")

// EdgeServer is one capacity-constrained edge node. The registry owns the
// canonical copy; CurrentLoad and Active are mutated only by the engine.
type EdgeServer struct {
	ID              int        `json:"id"`
	Latitude        float64    `json:"latitude"`
	Longitude       float64    `json:"longitude"`
	ComputeCapacity float64    `json:"compute_capacity"` // GFLOPS-equivalent units
	StorageCapacity float64    `json:"storage_capacity"` // GB, informational only
	CurrentLoad     float64    `json:"current_load"`     // Same units as ComputeCapacity
	Active          bool       `json:"active"`
	Services        ServiceSet `json:"services"`
}

// Utilization returns CurrentLoad / ComputeCapacity.
func (s EdgeServer) Utilization() float64 {
	return s.CurrentLoad / s.ComputeCapacity
}

// Supports reports whether the server can host kind.
func (s EdgeServer) Supports(kind ServiceKind) bool {
	return s.Services.Contains(kind)
}

func (s EdgeServer) validate() error {
	if s.ComputeCapacity <= 0 {
		return fmt.Errorf("%w: server %d compute capacity must be positive, got %v",
			ErrInvalidConfig, s.ID, s.ComputeCapacity)
	}
	if s.StorageCapacity < 0 {
		return fmt.Errorf("%w: server %d storage capacity must be non-negative, got %v",
			ErrInvalidConfig, s.ID, s.StorageCapacity)
	}
	if s.CurrentLoad < 0 {
		return fmt.Errorf("%w: server %d initial load must be non-negative, got %v",
			ErrInvalidConfig, s.ID, s.CurrentLoad)
	}
	return nil
}

func (s EdgeServer) String() string {
	return fmt.Sprintf("EdgeServer: (ID: %d, Load: %.2f/%.2f, Active: %t)",
		s.ID, s.CurrentLoad, s.ComputeCapacity, s.Active)
}

// ServicePlacement binds one request to one server.
type ServicePlacement struct {
	RequestID          int         `json:"request_id"`
	ServerID           int         `json:"server_id"`
	Kind               ServiceKind `json:"kind"`
	PlacedAt           float64     `json:"placed_at"`
	EstimatedLatencyMs float64     `json:"estimated_latency_ms"`
	ResourceUsage      float64     `json:"resource_usage"` // Load charged to the server
}

// Age returns how long the placement has existed at now.
func (p ServicePlacement) Age(now float64) float64 {
	return now - p.PlacedAt
}
