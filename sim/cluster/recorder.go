package cluster

import (
	"github.com/edge-sim/edge-sim/sim"
	"github.com/edge-sim/edge-sim/sim/trace"
)

// TraceRecorder is a sim.Observer that copies engine notifications into a
// decision trace. The trace package stays free of sim types.
type TraceRecorder struct {
	sim.BaseObserver
	trace *trace.SimulationTrace
}

// NewTraceRecorder records into st.
func NewTraceRecorder(st *trace.SimulationTrace) *TraceRecorder {
	return &TraceRecorder{trace: st}
}

// RequestPlaced implements sim.Observer.
func (r *TraceRecorder) RequestPlaced(p sim.ServicePlacement, retry bool) {
	r.trace.RecordPlacement(trace.PlacementRecord{
		RequestID:     p.RequestID,
		Clock:         p.PlacedAt,
		Kind:          p.Kind.String(),
		ServerID:      p.ServerID,
		LatencyMs:     p.EstimatedLatencyMs,
		ResourceUsage: p.ResourceUsage,
		Retry:         retry,
	})
}

// RequestRejected implements sim.Observer.
func (r *TraceRecorder) RequestRejected(req sim.ServiceRequest, now float64) {
	r.trace.RecordRejection(trace.RejectionRecord{
		RequestID: req.ID,
		Clock:     now,
		Kind:      req.Kind.String(),
		Priority:  req.Priority,
	})
}

// RequestCancelled implements sim.Observer.
func (r *TraceRecorder) RequestCancelled(requestID, removed int, now float64) {
	r.trace.RecordCancellation(trace.CancellationRecord{RequestID: requestID, Clock: now, Removed: removed})
}

// TickCompleted implements sim.Observer.
func (r *TraceRecorder) TickCompleted(report sim.TickReport) {
	record := trace.TickRecord{
		Clock:            report.Clock,
		Expired:          report.Expired,
		Retried:          report.Retried,
		Placed:           report.Placed,
		Dropped:          report.Dropped,
		StillPending:     report.StillPending,
		ActivePlacements: report.ActivePlacements,
	}
	total := 0.0
	for _, s := range report.Utilizations {
		total += s.Utilization
		if s.Utilization > record.MaxUtilization {
			record.MaxUtilization = s.Utilization
		}
		if s.Utilization > 1.0 {
			record.OverloadedServers++
		}
	}
	if len(report.Utilizations) > 0 {
		record.MeanUtilization = total / float64(len(report.Utilizations))
	}
	r.trace.RecordTick(record)
}
