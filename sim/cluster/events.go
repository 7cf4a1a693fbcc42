package cluster

import "github.com/edge-sim/edge-sim/sim"

// Event represents a simulation event.
type Event interface {
	Timestamp() float64
	EventID() uint64
	Type() EventType
	Execute(s *Simulator)
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	timestamp float64
	eventID   uint64
	eventType EventType
}

func (e *BaseEvent) Timestamp() float64 {
	return e.timestamp
}

func (e *BaseEvent) EventID() uint64 {
	return e.eventID
}

func (e *BaseEvent) Type() EventType {
	return e.eventType
}

// RequestArrivalEvent submits a request to the engine at its creation time.
type RequestArrivalEvent struct {
	BaseEvent
	Request sim.ServiceRequest
}

func (e *RequestArrivalEvent) Execute(s *Simulator) {
	s.handleRequestArrival(e)
}

// CancellationEvent withdraws every entry for a requester.
type CancellationEvent struct {
	BaseEvent
	RequestID int
}

func (e *CancellationEvent) Execute(s *Simulator) {
	s.handleCancellation(e)
}

// EvaluationTickEvent runs one engine tick and schedules the next.
type EvaluationTickEvent struct {
	BaseEvent
	index int // Tick number; timestamp = index * interval
}

func (e *EvaluationTickEvent) Execute(s *Simulator) {
	s.handleEvaluationTick(e)
}
