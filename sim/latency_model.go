package sim

import (
	"fmt"

	"github.com/golang/geo/s2"
)

const (
	// EarthRadiusMeters is the sphere radius used for great-circle distances.
	EarthRadiusMeters = 6_371_000.0
	// FiberPropagationSpeed is the signal speed in fiber, meters per second (~0.667c).
	FiberPropagationSpeed = 2e8
	// processingScale converts capacity into MB processed per millisecond: capacity/10.
	processingScale = 10.0
)

// LatencyModel estimates service latency between a request origin and a candidate server.
// All estimates are in milliseconds and never negative.
type LatencyModel interface {
	Estimate(req ServiceRequest, server EdgeServer) float64
}

// GeoLatencyModel sums propagation, processing and queueing delay.
//
//   - propagation: haversine distance / FiberPropagationSpeed, in ms
//   - processing:  payload_MB / (capacity / 10)
//   - queueing:    QueueMultiplier * currentLoad / capacity
//
// The value is a pure function of its inputs.
type GeoLatencyModel struct {
	QueueMultiplier float64 // Congestion penalty per unit of utilization, in ms
}

// NewGeoLatencyModel creates a GeoLatencyModel with the given queueing multiplier.
func NewGeoLatencyModel(queueMultiplier float64) GeoLatencyModel {
	return GeoLatencyModel{QueueMultiplier: queueMultiplier}
}

// Estimate implements LatencyModel. Panics on non-positive capacity: the registry
// rejects such servers, so reaching here means the configuration was bypassed.
func (m GeoLatencyModel) Estimate(req ServiceRequest, server EdgeServer) float64 {
	if server.ComputeCapacity <= 0 {
		panic(fmt.Sprintf("GeoLatencyModel.Estimate: server %d has non-positive capacity %v",
			server.ID, server.ComputeCapacity))
	}
	propagation := PropagationDelayMs(DistanceMeters(req.Latitude, req.Longitude, server.Latitude, server.Longitude))
	processing := req.PayloadMB / (server.ComputeCapacity / processingScale)
	queueing := m.QueueMultiplier * server.CurrentLoad / server.ComputeCapacity
	return propagation + processing + queueing
}

// DistanceMeters returns the haversine great-circle distance between two points in degrees.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * EarthRadiusMeters
}

// PropagationDelayMs converts a distance into one-way fiber propagation delay.
func PropagationDelayMs(distanceMeters float64) float64 {
	return distanceMeters / FiberPropagationSpeed * 1000
}
