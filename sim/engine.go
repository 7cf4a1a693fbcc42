package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// EngineConfig groups the periodic-maintenance parameters of the engine.
type EngineConfig struct {
	EvaluationInterval float64 // Seconds between ticks; consumed by the hosts that drive Tick
	DecayFactor        float64 // Per-tick multiplicative load decay, in [0, 1]
	ExpiryHorizon      float64 // Placements older than this are purged
	DropExpiredPending bool    // Drop pending requests whose deadline has passed
}

// DefaultEngineConfig returns the standard maintenance parameters.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		EvaluationInterval: 1.0,
		DecayFactor:        DefaultDecayFactor,
		ExpiryHorizon:      10.0,
	}
}

// Validate checks parameter ranges.
func (c EngineConfig) Validate() error {
	if c.EvaluationInterval <= 0 || math.IsNaN(c.EvaluationInterval) || math.IsInf(c.EvaluationInterval, 0) {
		return fmt.Errorf("%w: evaluation_interval must be a finite positive number, got %v", ErrInvalidConfig, c.EvaluationInterval)
	}
	if c.DecayFactor < 0 || c.DecayFactor > 1 || math.IsNaN(c.DecayFactor) {
		return fmt.Errorf("%w: decay_factor must be in [0, 1], got %v", ErrInvalidConfig, c.DecayFactor)
	}
	if c.ExpiryHorizon < 0 || math.IsNaN(c.ExpiryHorizon) {
		return fmt.Errorf("%w: expiry_horizon must be non-negative, got %v", ErrInvalidConfig, c.ExpiryHorizon)
	}
	return nil
}

// TickReport summarizes one evaluation tick.
type TickReport struct {
	Clock            float64             `json:"clock"`
	Expired          int                 `json:"expired"`       // Placements purged by age
	Retried          int                 `json:"retried"`       // Pending requests re-evaluated
	Placed           int                 `json:"placed"`        // Retries that found a server
	Dropped          int                 `json:"dropped"`       // Pending requests dropped past their deadline
	StillPending     int                 `json:"still_pending"` // Queue length after the pass
	ActivePlacements int                 `json:"active_placements"`
	Utilizations     []UtilizationSample `json:"utilizations"`
}

// EngineOption customizes an Engine at construction.
type EngineOption func(*Engine)

// WithObserver attaches an observer. Multiple calls compose through MultiObserver.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		if o == nil {
			return
		}
		if _, isBase := e.observer.(BaseObserver); isBase {
			e.observer = o
			return
		}
		e.observer = MultiObserver{e.observer, o}
	}
}

// WithDispatcher attaches the dispatch collaborator.
func WithDispatcher(d Dispatcher) EngineOption {
	return func(e *Engine) {
		if d != nil {
			e.dispatcher = d
		}
	}
}

// Engine places requests, retries pending ones, and maintains server load.
//
// Thread-safety: NOT thread-safe. Exactly one goroutine may call its methods;
// the service package serializes access through a single dispatcher goroutine.
type Engine struct {
	registry   *Registry
	strategy   Strategy
	clock      Clock
	config     EngineConfig
	observer   Observer
	dispatcher Dispatcher

	pending []ServiceRequest   // FIFO retry queue
	active  []ServicePlacement // Placement ledger in placement order
}

// NewEngine wires an engine. Returns an error for invalid configuration.
func NewEngine(registry *Registry, strategy Strategy, clock Clock, cfg EngineConfig, opts ...EngineOption) (*Engine, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: engine needs a registry", ErrInvalidConfig)
	}
	if strategy == nil {
		return nil, fmt.Errorf("%w: engine needs a placement strategy", ErrInvalidConfig)
	}
	if clock == nil {
		return nil, fmt.Errorf("%w: engine needs a clock", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		registry:   registry,
		strategy:   strategy,
		clock:      clock,
		config:     cfg,
		observer:   BaseObserver{},
		dispatcher: noopDispatcher{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Submit attempts to place req immediately. On failure the request joins the
// pending queue and the rejection is reported once.
func (e *Engine) Submit(req ServiceRequest) (ServicePlacement, bool) {
	now := e.clock.Now()
	e.observer.RequestReceived(req, now)
	if p, ok := e.place(req, now, false); ok {
		return p, true
	}
	e.pending = append(e.pending, req)
	e.observer.RequestRejected(req, now)
	logrus.Debugf("[engine] request %d queued for retry (%d pending)", req.ID, len(e.pending))
	return ServicePlacement{}, false
}

// place runs the strategy and commits a successful selection.
func (e *Engine) place(req ServiceRequest, now float64, retry bool) (ServicePlacement, bool) {
	p, ok := e.strategy.Select(req, e.registry.Snapshot(), now)
	if !ok {
		return ServicePlacement{}, false
	}
	if _, exists := e.registry.Get(p.ServerID); !exists {
		panic(fmt.Sprintf("Engine: strategy %s selected unknown server %d", e.strategy.Name(), p.ServerID))
	}
	e.registry.ApplyLoad(p.ServerID, p.ResourceUsage)
	e.active = append(e.active, p)
	logrus.Debugf("[engine] request %d -> server %d (latency %.3f ms, usage %.3f, retry=%t)",
		p.RequestID, p.ServerID, p.EstimatedLatencyMs, p.ResourceUsage, retry)
	e.observer.RequestPlaced(p, retry)
	e.dispatcher.Dispatch(p)
	return p, true
}

// Tick runs one evaluation: decay load, purge expired placements, then make a
// single FIFO pass over the pending queue. Load decays before retries so the
// pass sees freshly released capacity.
func (e *Engine) Tick() TickReport {
	now := e.clock.Now()
	e.registry.DecayAll(e.config.DecayFactor)
	report := TickReport{Clock: now, Expired: e.purgeExpired(now)}

	if len(e.pending) > 0 {
		queue := e.pending
		e.pending = make([]ServiceRequest, 0, len(queue))
		for _, req := range queue {
			if e.config.DropExpiredPending && req.Deadline > 0 && req.Deadline < now {
				report.Dropped++
				logrus.Warnf("[engine] dropping request %d: deadline %.3f passed at %.3f", req.ID, req.Deadline, now)
				continue
			}
			report.Retried++
			if _, ok := e.place(req, now, true); ok {
				report.Placed++
				continue
			}
			e.pending = append(e.pending, req)
		}
	}

	report.StillPending = len(e.pending)
	report.ActivePlacements = len(e.active)
	report.Utilizations = e.registry.Utilizations()
	e.observer.TickCompleted(report)
	return report
}

// purgeExpired removes placements older than the horizon and returns how many went.
func (e *Engine) purgeExpired(now float64) int {
	kept := e.active[:0]
	for _, p := range e.active {
		if p.Age(now) > e.config.ExpiryHorizon {
			continue
		}
		kept = append(kept, p)
	}
	expired := len(e.active) - len(kept)
	clear(e.active[len(kept):])
	e.active = kept
	return expired
}

// Cancel removes every pending entry and placement for requestID and returns the
// number removed. Load already charged is not refunded; decay releases it.
func (e *Engine) Cancel(requestID int) int {
	removed := 0
	pending := e.pending[:0]
	for _, req := range e.pending {
		if req.ID == requestID {
			removed++
			continue
		}
		pending = append(pending, req)
	}
	e.pending = pending

	active := e.active[:0]
	for _, p := range e.active {
		if p.RequestID == requestID {
			removed++
			continue
		}
		active = append(active, p)
	}
	clear(e.active[len(active):])
	e.active = active

	if removed > 0 {
		e.observer.RequestCancelled(requestID, removed, e.clock.Now())
	}
	return removed
}

// SetServerActive toggles a server in or out of the candidate pool.
func (e *Engine) SetServerActive(id int, active bool) error {
	return e.registry.SetActive(id, active)
}

// Pending returns a copy of the retry queue in FIFO order.
func (e *Engine) Pending() []ServiceRequest {
	out := make([]ServiceRequest, len(e.pending))
	copy(out, e.pending)
	return out
}

// ActivePlacements returns a copy of the placement ledger.
func (e *Engine) ActivePlacements() []ServicePlacement {
	out := make([]ServicePlacement, len(e.active))
	copy(out, e.active)
	return out
}

// Registry returns the server registry. Callers must not mutate it concurrently with the engine.
func (e *Engine) Registry() *Registry { return e.registry }

// Strategy returns the configured placement strategy.
func (e *Engine) Strategy() Strategy { return e.strategy }

// Clock returns the engine's time source.
func (e *Engine) Clock() Clock { return e.clock }

// Config returns the maintenance parameters.
func (e *Engine) Config() EngineConfig { return e.config }
