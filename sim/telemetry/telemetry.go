// Package telemetry exports placement engine activity as Prometheus metrics.
package telemetry

import (
	"strconv"

	"github.com/edge-sim/edge-sim/sim"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "edgesim"

// Observer is a sim.Observer backed by Prometheus collectors.
type Observer struct {
	received         prometheus.Counter
	served           *prometheus.CounterVec
	rejected         prometheus.Counter
	cancelled        prometheus.Counter
	expired          prometheus.Counter
	dropped          prometheus.Counter
	latency          prometheus.Histogram
	utilization      *prometheus.GaugeVec
	pending          prometheus.Gauge
	activePlacements prometheus.Gauge
}

// NewObserver creates the collectors and registers them with reg.
func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_received_total",
			Help:      "Service requests submitted to the engine.",
		}),
		served: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_served_total",
			Help:      "Service requests placed on an edge server.",
		}, []string{"retry"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_rejected_total",
			Help:      "Service requests that found no eligible server on submission.",
		}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_cancelled_total",
			Help:      "Pending entries and placements removed by cancellation.",
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placements_expired_total",
			Help:      "Placements purged after exceeding the expiry horizon.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_dropped_total",
			Help:      "Pending requests dropped after their deadline.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "placement_latency_ms",
			Help:      "Estimated service latency of placements in milliseconds.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "server_utilization",
			Help:      "Edge server load divided by compute capacity after the last tick.",
		}, []string{"server"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_requests",
			Help:      "Requests waiting in the retry queue after the last tick.",
		}),
		activePlacements: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_placements",
			Help:      "Placements in the ledger after the last tick.",
		}),
	}
	for _, c := range []prometheus.Collector{
		o.received, o.served, o.rejected, o.cancelled, o.expired, o.dropped,
		o.latency, o.utilization, o.pending, o.activePlacements,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// RequestReceived implements sim.Observer.
func (o *Observer) RequestReceived(_ sim.ServiceRequest, _ float64) {
	o.received.Inc()
}

// RequestPlaced implements sim.Observer.
func (o *Observer) RequestPlaced(p sim.ServicePlacement, retry bool) {
	o.served.WithLabelValues(strconv.FormatBool(retry)).Inc()
	o.latency.Observe(p.EstimatedLatencyMs)
}

// RequestRejected implements sim.Observer.
func (o *Observer) RequestRejected(_ sim.ServiceRequest, _ float64) {
	o.rejected.Inc()
}

// RequestCancelled implements sim.Observer.
func (o *Observer) RequestCancelled(_, removed int, _ float64) {
	o.cancelled.Add(float64(removed))
}

// TickCompleted implements sim.Observer.
func (o *Observer) TickCompleted(report sim.TickReport) {
	o.expired.Add(float64(report.Expired))
	o.dropped.Add(float64(report.Dropped))
	o.pending.Set(float64(report.StillPending))
	o.activePlacements.Set(float64(report.ActivePlacements))
	for _, s := range report.Utilizations {
		o.utilization.WithLabelValues(strconv.Itoa(s.ServerID)).Set(s.Utilization)
	}
}
