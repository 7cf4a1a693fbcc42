package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/edge-sim/edge-sim/sim/cluster"
	"github.com/edge-sim/edge-sim/sim/trace"
)

var (
	// CLI flags for the discrete-event run
	seed        int64   // Seed for workload generation
	horizon     float64 // Simulated seconds
	resultsPath string  // File to save metrics JSON to
	traceLevel  string  // Decision trace verbosity
	tracePath   string  // File to save the trace JSON to
)

// runCmd executes a discrete-event simulation of the scenario
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a discrete-event placement simulation",
	Run: func(cmd *cobra.Command, args []string) {
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Unknown trace level %q; valid: none, decisions, ticks", traceLevel)
		}
		scenario, err := loadScenario(cmd.Flags())
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}

		startTime := time.Now()
		run, err := cluster.Build(scenario, trace.TraceConfig{Level: trace.TraceLevel(traceLevel)})
		if err != nil {
			logrus.Fatalf("Building simulation: %v", err)
		}
		m := run.Execute()
		strategy := run.Engine.Strategy().Name()
		m.Print(strategy)

		if resultsPath != "" {
			if err := m.SaveResults(strategy, resultsPath); err != nil {
				logrus.Fatalf("Saving results: %v", err)
			}
		}
		if run.Trace != nil {
			if err := writeTrace(run.Trace, tracePath); err != nil {
				logrus.Fatalf("Saving trace: %v", err)
			}
		}
		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// writeTrace prints a trace summary and, when path is set, saves the full trace.
func writeTrace(st *trace.SimulationTrace, path string) error {
	summary := trace.Summarize(st)
	fmt.Println("=== Decision Trace ===")
	fmt.Printf("Placements (retry)   : %d (%d)\n", summary.TotalPlacements, summary.RetryPlacements)
	fmt.Printf("Rejections           : %d\n", summary.Rejections)
	fmt.Printf("Cancelled entries    : %d\n", summary.Cancellations)
	fmt.Printf("Servers used         : %d\n", summary.UniqueServers)
	if summary.PeakPending > 0 {
		fmt.Printf("Peak pending         : %d\n", summary.PeakPending)
	}
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	if err := st.WriteJSON(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for workload generation")
	runCmd.Flags().Float64Var(&horizon, "horizon", 100, "Simulation horizon (seconds)")
	runCmd.Flags().StringVar(&resultsPath, "results-path", "", "File to save metrics JSON to")
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Decision trace level (none, decisions, ticks)")
	runCmd.Flags().StringVar(&tracePath, "trace-path", "", "File to save the decision trace JSON to")
}
