package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	sim "github.com/edge-sim/edge-sim/sim"
)

// envPrefix namespaces the environment variables bound to flags: --load-threshold ↔ EDGESIM_LOAD_THRESHOLD.
const envPrefix = "EDGESIM"

var (
	// Shared by every subcommand
	configPath    string  // Path to a YAML scenario file
	logLevel      string  // Log verbosity level
	strategyName  string  // Placement strategy override
	loadThreshold float64 // Utilization cutoff override for the threshold variants
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "edge-sim",
	Short: "Edge-server placement engine for vehicular service requests",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindEnv(cmd.Flags()); err != nil {
			return err
		}
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)
		return nil
	},
}

// strategiesCmd lists the placement strategies and their eligibility parameters.
var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List placement strategies",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-24s %8s %8s %8s\n", "STRATEGY", "CEILING", "CHARGE", "QUEUE")
		for _, name := range sim.ValidStrategyNames() {
			s, err := sim.NewStrategy(sim.DefaultStrategyConfig(name))
			if err != nil {
				logrus.Fatalf("Building strategy %s: %v", name, err)
			}
			p := s.(interface {
				CapacityCeiling() float64
				ChargeFactor() float64
				QueueMultiplier() float64
			})
			fmt.Fprintf(out, "%-24s %8.2f %8.2f %8.1f\n", name, p.CapacityCeiling(), p.ChargeFactor(), p.QueueMultiplier())
		}
	},
}

// bindEnv copies EDGESIM_* environment values into flags the user did not set explicitly.
// Explicit flags win over the environment, which wins over the scenario file.
func bindEnv(flags *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := flags.Set(f.Name, v.GetString(f.Name)); err != nil {
			bindErr = fmt.Errorf("%s_%s: %w", envPrefix, strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), err)
		}
	})
	return bindErr
}

// loadScenario reads --config (when given) and applies the flag overrides.
func loadScenario(flags *pflag.FlagSet) (*sim.Scenario, error) {
	scenario := &sim.Scenario{}
	if configPath != "" {
		loaded, err := sim.LoadScenario(configPath)
		if err != nil {
			return nil, err
		}
		scenario = loaded
	}
	if flags.Changed("strategy") {
		scenario.Strategy.Name = strategyName
	}
	if flags.Changed("load-threshold") {
		threshold := loadThreshold
		scenario.Strategy.LoadThreshold = &threshold
	}
	if flags.Changed("horizon") {
		scenario.Workload.Horizon = horizon
	}
	if flags.Changed("seed") {
		s := seed
		scenario.Workload.Seed = &s
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return scenario, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML scenario file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&strategyName, "strategy", sim.DefaultStrategyName,
		"Placement strategy: "+strings.Join(sim.ValidStrategyNames(), ", "))
	rootCmd.PersistentFlags().Float64Var(&loadThreshold, "load-threshold", 0.8, "Utilization cutoff for the threshold strategies")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(strategiesCmd)
}
