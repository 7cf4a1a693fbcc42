// Package cluster hosts the placement engine in a discrete-event loop:
// request arrivals, cancellations and periodic evaluation ticks share one
// timestamp-ordered event heap and one manual clock.
package cluster

import (
	"fmt"

	"github.com/edge-sim/edge-sim/sim"
	"github.com/sirupsen/logrus"
)

// Config controls the event loop.
type Config struct {
	Horizon            float64 // Events after this time are not processed
	EvaluationInterval float64 // Seconds between evaluation ticks
}

// Simulator drives a sim.Engine from a deterministic event heap.
// Thread-safety: NOT thread-safe. Run executes on the caller's goroutine.
type Simulator struct {
	engine      *sim.Engine
	clock       *sim.ManualClock
	events      *EventHeap
	config      Config
	nextEventID uint64
	processed   int
	hasRun      bool
}

// NewSimulator wraps engine, which must have been built on a *sim.ManualClock.
// Panics on a non-manual clock or non-positive horizon/interval.
func NewSimulator(engine *sim.Engine, cfg Config) *Simulator {
	clock, ok := engine.Clock().(*sim.ManualClock)
	if !ok {
		panic(fmt.Sprintf("cluster.NewSimulator: engine clock must be *sim.ManualClock, got %T", engine.Clock()))
	}
	if cfg.Horizon <= 0 {
		panic(fmt.Sprintf("cluster.NewSimulator: horizon must be positive, got %v", cfg.Horizon))
	}
	if cfg.EvaluationInterval <= 0 {
		panic(fmt.Sprintf("cluster.NewSimulator: evaluation interval must be positive, got %v", cfg.EvaluationInterval))
	}
	return &Simulator{
		engine: engine,
		clock:  clock,
		events: NewEventHeap(),
		config: cfg,
	}
}

func (s *Simulator) newBaseEvent(timestamp float64, eventType EventType) BaseEvent {
	s.nextEventID++
	return BaseEvent{timestamp: timestamp, eventID: s.nextEventID, eventType: eventType}
}

// ScheduleEvent adds an arbitrary event to the heap.
func (s *Simulator) ScheduleEvent(e Event) {
	s.events.Schedule(e)
}

// ScheduleArrival schedules req for submission at req.CreatedAt.
func (s *Simulator) ScheduleArrival(req sim.ServiceRequest) {
	s.events.Schedule(&RequestArrivalEvent{
		BaseEvent: s.newBaseEvent(req.CreatedAt, EventTypeRequestArrival),
		Request:   req,
	})
}

// ScheduleCancellation schedules a cancellation of requestID at time at.
func (s *Simulator) ScheduleCancellation(at float64, requestID int) {
	s.events.Schedule(&CancellationEvent{
		BaseEvent: s.newBaseEvent(at, EventTypeCancellation),
		RequestID: requestID,
	})
}

func (s *Simulator) scheduleTick(index int) {
	at := float64(index) * s.config.EvaluationInterval
	if at > s.config.Horizon {
		return
	}
	s.events.Schedule(&EvaluationTickEvent{BaseEvent: s.newBaseEvent(at, EventTypeEvaluationTick), index: index})
}

// Run processes events in order until the heap drains or the next event lies
// beyond the horizon. Panics if called more than once.
func (s *Simulator) Run() {
	if s.hasRun {
		panic("cluster.Simulator.Run() called more than once")
	}
	s.hasRun = true
	s.scheduleTick(1)

	for {
		next := s.events.Peek()
		if next == nil || next.Timestamp() > s.config.Horizon {
			break
		}
		s.events.PopNext()
		s.clock.Set(next.Timestamp())
		next.Execute(s)
		s.processed++
	}
	logrus.Infof("[cluster] processed %d events, clock %.3f, %d left unprocessed",
		s.processed, s.clock.Now(), s.events.Len())
}

func (s *Simulator) handleRequestArrival(e *RequestArrivalEvent) {
	if err := e.Request.Validate(); err != nil {
		logrus.Warnf("[cluster] skipping invalid request at %.3f: %v", e.Timestamp(), err)
		return
	}
	s.engine.Submit(e.Request)
}

func (s *Simulator) handleCancellation(e *CancellationEvent) {
	removed := s.engine.Cancel(e.RequestID)
	logrus.Debugf("[cluster] cancel request %d at %.3f removed %d entries", e.RequestID, e.Timestamp(), removed)
}

func (s *Simulator) handleEvaluationTick(e *EvaluationTickEvent) {
	s.engine.Tick()
	s.scheduleTick(e.index + 1)
}

// Clock returns the current simulation time.
func (s *Simulator) Clock() float64 {
	return s.clock.Now()
}

// Engine returns the hosted engine.
func (s *Simulator) Engine() *sim.Engine {
	return s.engine
}

// ProcessedEvents returns how many events Run executed.
func (s *Simulator) ProcessedEvents() int {
	return s.processed
}

// PendingEvents returns how many events remain scheduled.
func (s *Simulator) PendingEvents() int {
	return s.events.Len()
}
