package cluster

import (
	"fmt"

	"github.com/edge-sim/edge-sim/sim"
	"github.com/edge-sim/edge-sim/sim/trace"
	"github.com/edge-sim/edge-sim/sim/workload"
	"github.com/sirupsen/logrus"
)

// Run bundles everything wired for one scenario execution.
type Run struct {
	Simulator *Simulator
	Engine    *sim.Engine
	Metrics   *sim.Metrics
	Trace     *trace.SimulationTrace // nil when tracing is disabled
	Workload  *workload.Workload
}

// Build validates scenario, generates its workload and wires an engine,
// metrics, optional trace and any extra observers into a ready-to-run Simulator.
func Build(scenario *sim.Scenario, traceCfg trace.TraceConfig, observers ...sim.Observer) (*Run, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	wcfg := scenario.Workload.WithDefaults()
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(*wcfg.Seed))

	servers, err := scenario.BuildServers(rng)
	if err != nil {
		return nil, err
	}
	registry, err := sim.NewRegistry(servers)
	if err != nil {
		return nil, fmt.Errorf("building registry: %w", err)
	}
	strategy, err := sim.NewStrategy(scenario.StrategyConfig())
	if err != nil {
		return nil, err
	}

	run := &Run{Metrics: sim.NewMetrics()}
	opts := []sim.EngineOption{sim.WithObserver(run.Metrics)}
	if traceCfg.Level.Enabled() {
		run.Trace = trace.NewSimulationTrace(traceCfg)
		opts = append(opts, sim.WithObserver(NewTraceRecorder(run.Trace)))
	}
	for _, o := range observers {
		opts = append(opts, sim.WithObserver(o))
	}

	engineCfg := scenario.EngineConfig()
	run.Engine, err = sim.NewEngine(registry, strategy, sim.NewManualClock(0), engineCfg, opts...)
	if err != nil {
		return nil, err
	}

	run.Workload, err = workload.Generate(wcfg)
	if err != nil {
		return nil, err
	}
	run.Simulator = NewSimulator(run.Engine, Config{
		Horizon:            wcfg.Horizon,
		EvaluationInterval: engineCfg.EvaluationInterval,
	})
	for _, req := range run.Workload.Requests {
		run.Simulator.ScheduleArrival(req)
	}
	for _, c := range run.Workload.Cancellations {
		run.Simulator.ScheduleCancellation(c.At, c.RequestID)
	}
	logrus.Infof("[cluster] %d servers, strategy %s, %d requests, %d cancellations, horizon %.1fs",
		registry.Len(), strategy.Name(), len(run.Workload.Requests), len(run.Workload.Cancellations), wcfg.Horizon)
	return run, nil
}

// Execute runs the simulation and records the engine's final state in the metrics.
func (r *Run) Execute() *sim.Metrics {
	r.Simulator.Run()
	r.Metrics.Finalize(r.Engine)
	return r.Metrics
}
