package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"agentsim/internal/logger"
	"agentsim/internal/sim"
	"agentsim/internal/trace"
	"agentsim/internal/types"
)

type runOptions struct {
	configPath  string
	ticks       int
	seed        uint64
	seedSet     bool
	path        string
	metricsAddr string
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "agentsim",
		Short: "Agent-based market simulation",
		Long: `agentsim runs a population of boundedly-rational traders against an
in-memory market and prints one JSON summary per tick.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeSystem()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Configuration file path")

	rootCmd.AddCommand(newRunCmd(&configPath))
	rootCmd.AddCommand(newConfigCmd(&configPath))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newRunCmd creates the run command
func newRunCmd(configPath *string) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation",
		Long: `Run the simulation described by the configuration file.
Example: agentsim run --config=config.yaml --ticks=250 --seed=7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.configPath = *configPath
			opts.seedSet = cmd.Flags().Changed("seed")
			return runSimulation(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.ticks, "ticks", 0, "Number of ticks (config value if 0)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Random seed (config value if not set)")
	cmd.Flags().StringVar(&opts.path, "path", "", "Decision path: single or batch (config value if empty)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	return cmd
}

// newConfigCmd creates the config command
func newConfigCmd(configPath *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), *configPath, runOptions{})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d instruments, %d funds, %d agents, path %s)\n",
				*configPath, len(cfg.Instruments), len(cfg.Funds),
				len(cfg.Agents.Explicit)+cfg.Agents.Generate.Count, cfg.DecisionPath)
			return nil
		},
	})

	return configCmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", trace.DefaultServiceName, trace.DefaultServiceVersion)
		},
	}
}

func runSimulation(cmd *cobra.Command, opts runOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() {
		if err := logger.Shutdown(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to flush tracer: %v\n", err)
		}
	}()

	cfg, err := loadConfig(ctx, opts.configPath, opts)
	if err != nil {
		return err
	}

	m, shutdownMetrics := initializeMetrics(ctx, opts.metricsAddr)
	defer shutdownMetrics()

	s, err := initializeSimulator(ctx, cfg, m)
	if err != nil {
		return err
	}

	logger.Info(ctx, "Simulation started",
		"ticks", cfg.Ticks,
		"seed", cfg.Seed,
		"decision_path", cfg.DecisionPath,
		"instruments", len(cfg.Instruments),
		"funds", len(cfg.Funds),
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	err = sim.Run(ctx, s, cfg.Ticks, func(r *types.TickResult) error {
		return enc.Encode(r)
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Simulation aborted", err)
		return err
	}

	logger.Info(ctx, "Simulation finished", "ticks", cfg.Ticks)
	return nil
}
