// Command labormarket runs the labor-market life simulation.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/labormarket/internal/config"
	"github.com/talgya/labormarket/internal/engine"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "labormarket",
		Short: "Agent life simulation centered on a labor market",
		Long: `labormarket simulates a town of agents who are born, age, die and
look for work. Jobs advertise their vacant roles on a shared board,
unemployed agents apply, and hires are committed once per tick.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Override the log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newSimulateCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "labormarket version %s\n", version)
		},
	}
}

// loadConfig reads the config named by --config and installs the default
// logger at the configured level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("--log-level: %w", err)
		}
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: config.ParseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)
	return cfg, nil
}

// newSimulation builds the simulation and registers the configured jobs.
func newSimulation(cfg *config.Config) (*engine.Simulation, error) {
	built, err := cfg.BuildJobs()
	if err != nil {
		return nil, err
	}
	sim := engine.NewSimulation(cfg.Params())
	for _, j := range built {
		id := sim.AddJob(j)
		slog.Debug("job registered", "job", id, "name", j.Name, "roles", len(j.Roles))
	}
	return sim, nil
}
