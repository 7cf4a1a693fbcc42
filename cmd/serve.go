package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/edge-sim/edge-sim/sim"
	"github.com/edge-sim/edge-sim/sim/dispatch"
	"github.com/edge-sim/edge-sim/sim/service"
	"github.com/edge-sim/edge-sim/sim/telemetry"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

var (
	// CLI flags for the standalone service
	listenAddr string // HTTP listen address
)

// serveCmd runs the engine as a long-lived service behind an HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the placement engine as an HTTP service",
	Run: func(cmd *cobra.Command, args []string) {
		scenario, err := loadScenario(cmd.Flags())
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}
		svc, handler, err := buildService(scenario)
		if err != nil {
			logrus.Fatalf("Building service: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go svc.Run(ctx)

		srv := &http.Server{
			Addr:              listenAddr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		}
		serveErr := make(chan error, 1)
		go func() {
			logrus.Infof("Listening on %s", listenAddr)
			serveErr <- srv.ListenAndServe()
		}()

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Fatalf("HTTP server: %v", err)
			}
		case <-ctx.Done():
			logrus.Info("Shutting down")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Warnf("HTTP shutdown: %v", err)
		}
		stop()
		<-svc.Done()
	},
}

// buildService wires the engine of scenario to wall-clock time, Prometheus
// telemetry and a dispatch manager, and returns the service with its HTTP API.
func buildService(scenario *sim.Scenario) (*service.Service, http.Handler, error) {
	wcfg := scenario.Workload.WithDefaults()
	servers, err := scenario.BuildServers(sim.NewPartitionedRNG(sim.NewSimulationKey(*wcfg.Seed)))
	if err != nil {
		return nil, nil, err
	}
	registry, err := sim.NewRegistry(servers)
	if err != nil {
		return nil, nil, err
	}
	strategy, err := sim.NewStrategy(scenario.StrategyConfig())
	if err != nil {
		return nil, nil, err
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observer, err := telemetry.NewObserver(promRegistry)
	if err != nil {
		return nil, nil, fmt.Errorf("registering telemetry: %w", err)
	}
	instructions := dispatch.NewManager()

	engineCfg := scenario.EngineConfig()
	engine, err := sim.NewEngine(registry, strategy, sim.NewWallClock(), engineCfg,
		sim.WithObserver(observer), sim.WithDispatcher(instructions))
	if err != nil {
		return nil, nil, err
	}
	interval := time.Duration(engineCfg.EvaluationInterval * float64(time.Second))
	svc := service.New(engine, interval)
	logrus.Infof("Serving %d servers with strategy %s, evaluation every %v", registry.Len(), strategy.Name(), interval)
	return svc, service.NewRouter(svc, instructions, promRegistry), nil
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", ":8080", "HTTP listen address")
}
