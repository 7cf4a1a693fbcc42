// Package sim provides the core edge-server placement engine.
//
// # Reading Guide
//
// Start with these files to understand the placement kernel:
//   - request.go, server.go: ServiceRequest, EdgeServer and ServicePlacement values
//   - registry.go: the canonical server table (load application, decay, snapshots)
//   - placement.go, placement_strategies.go: the four placement strategies
//   - engine.go: Submit / Tick / Cancel and the pending retry queue
//
// # Architecture
//
// The sim package defines the engine and its collaborator interfaces; hosts and
// collaborators live in sub-packages:
//   - sim/cluster/: discrete-event host (arrivals, evaluation ticks, cancellations)
//   - sim/workload/: seeded synthetic request generation
//   - sim/trace/: placement decision trace recording
//   - sim/dispatch/: per-server deployment instruction queues
//   - sim/telemetry/: Prometheus observer
//   - sim/service/: long-running service with an HTTP ingestion API
//
// # Key Interfaces
//
//   - Strategy: select a server for a request given a registry snapshot
//   - LatencyModel: estimate request-to-server latency in milliseconds
//   - Clock: supply "now" (manual for simulation, wall for service mode)
//   - Observer: receive placement lifecycle notifications
//   - Dispatcher: deliver deployment instructions for new placements
//
// The Engine is single-writer. Hosts serialize every call onto one goroutine.
package sim
