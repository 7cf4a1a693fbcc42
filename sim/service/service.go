// Package service runs the placement engine as a long-lived process.
//
// One dispatcher goroutine owns the engine. HTTP handlers and the evaluation
// ticker hand it closures over a channel and wait for the result, so each
// submission (snapshot, select, load increment) and each full tick executes
// without interleaving.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edge-sim/edge-sim/sim"
	"github.com/sirupsen/logrus"
)

// ErrServiceStopped is returned for calls made after Run has exited.
var ErrServiceStopped = errors.New("placement service stopped")

// ErrInvalidRequest marks requests rejected by validation before reaching the engine.
var ErrInvalidRequest = errors.New("invalid service request")

// ErrUnknownServer marks operations naming a server that is not registered.
var ErrUnknownServer = errors.New("unknown edge server")

// Service serializes all engine access through a single goroutine.
type Service struct {
	engine   *sim.Engine
	interval time.Duration
	ops      chan func(*sim.Engine)
	done     chan struct{}
}

// New wraps engine. A zero interval disables the periodic ticker; Tick can
// still be requested explicitly.
func New(engine *sim.Engine, interval time.Duration) *Service {
	return &Service{
		engine:   engine,
		interval: interval,
		ops:      make(chan func(*sim.Engine)),
		done:     make(chan struct{}),
	}
}

// Run owns the engine until ctx is cancelled. It must be called exactly once.
func (s *Service) Run(ctx context.Context) {
	defer close(s.done)

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	logrus.WithFields(logrus.Fields{
		"strategy": s.engine.Strategy().Name(),
		"servers":  s.engine.Registry().Len(),
		"interval": s.interval,
	}).Info("placement service started")

	for {
		select {
		case <-ctx.Done():
			logrus.WithFields(logrus.Fields{
				"pending": len(s.engine.Pending()),
				"active":  len(s.engine.ActivePlacements()),
			}).Info("placement service stopped")
			return
		case op := <-s.ops:
			op(s.engine)
		case <-tick:
			report := s.engine.Tick()
			logrus.WithFields(logrus.Fields{
				"expired": report.Expired,
				"placed":  report.Placed,
				"pending": report.StillPending,
			}).Debug("evaluation tick")
		}
	}
}

// Done is closed once Run has returned.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// do runs fn on the dispatcher goroutine and waits for it to finish.
func (s *Service) do(ctx context.Context, fn func(*sim.Engine)) error {
	finished := make(chan struct{})
	op := func(e *sim.Engine) {
		fn(e)
		close(finished)
	}
	select {
	case s.ops <- op:
	case <-s.done:
		return ErrServiceStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	// Once accepted, op is committed; report its result even if ctx expires meanwhile.
	<-finished
	return nil
}

// Submit validates req and offers it to the engine. A request without a
// creation time is stamped with the engine clock.
func (s *Service) Submit(ctx context.Context, req sim.ServiceRequest) (sim.ServicePlacement, bool, error) {
	if err := req.Validate(); err != nil {
		return sim.ServicePlacement{}, false, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	var (
		placement sim.ServicePlacement
		placed    bool
	)
	err := s.do(ctx, func(e *sim.Engine) {
		if req.CreatedAt == 0 {
			req.CreatedAt = e.Clock().Now()
		}
		placement, placed = e.Submit(req)
	})
	return placement, placed, err
}

// Cancel withdraws every entry for requestID and returns how many were removed.
func (s *Service) Cancel(ctx context.Context, requestID int) (int, error) {
	var removed int
	err := s.do(ctx, func(e *sim.Engine) { removed = e.Cancel(requestID) })
	return removed, err
}

// Tick runs one evaluation immediately.
func (s *Service) Tick(ctx context.Context) (sim.TickReport, error) {
	var report sim.TickReport
	err := s.do(ctx, func(e *sim.Engine) { report = e.Tick() })
	return report, err
}

// SetServerActive toggles a server in or out of the candidate pool.
func (s *Service) SetServerActive(ctx context.Context, id int, active bool) error {
	var opErr error
	err := s.do(ctx, func(e *sim.Engine) {
		if err := e.SetServerActive(id, active); err != nil {
			opErr = fmt.Errorf("%w: %v", ErrUnknownServer, err)
		}
	})
	if err != nil {
		return err
	}
	return opErr
}

// Servers returns a copy of every server in ID order.
func (s *Service) Servers(ctx context.Context) ([]sim.EdgeServer, error) {
	var servers []sim.EdgeServer
	err := s.do(ctx, func(e *sim.Engine) { servers = e.Registry().Servers() })
	return servers, err
}

// HasServer reports whether id is registered.
func (s *Service) HasServer(ctx context.Context, id int) (bool, error) {
	var ok bool
	err := s.do(ctx, func(e *sim.Engine) { _, ok = e.Registry().Get(id) })
	return ok, err
}

// Placements returns a copy of the active placement ledger.
func (s *Service) Placements(ctx context.Context) ([]sim.ServicePlacement, error) {
	var placements []sim.ServicePlacement
	err := s.do(ctx, func(e *sim.Engine) { placements = e.ActivePlacements() })
	return placements, err
}

// Pending returns a copy of the retry queue.
func (s *Service) Pending(ctx context.Context) ([]sim.ServiceRequest, error) {
	var pending []sim.ServiceRequest
	err := s.do(ctx, func(e *sim.Engine) { pending = e.Pending() })
	return pending, err
}
