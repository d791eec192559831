package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"agentsim/internal/interfaces"
	"agentsim/internal/logger"
	"agentsim/internal/metrics"
	"agentsim/internal/sim"
	"agentsim/internal/sim/simobs"
	"agentsim/internal/store"
)

// initializeSystem loads .env and initializes logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// loadConfig loads the configuration and applies command-line overrides
func loadConfig(ctx context.Context, path string, opts runOptions) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}

	if opts.ticks > 0 {
		cfg.Ticks = opts.ticks
	}
	if opts.seedSet {
		cfg.Seed = opts.seed
	}
	if opts.path != "" {
		cfg.DecisionPath = opts.path
		if err := cfg.Validate(); err != nil {
			logger.ErrorWithErr(ctx, "Invalid command-line override", err, "path", opts.path)
			return nil, err
		}
	}
	return cfg, nil
}

// initializeMetrics builds the metric set and, when addr is set, serves it
// over HTTP. The returned func stops the server.
func initializeMetrics(ctx context.Context, addr string) (*metrics.Metrics, func()) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)

	if addr == "" {
		return m, func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info(ctx, "Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithErr(ctx, "Metrics server failed", err, "addr", addr)
		}
	}()

	return m, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn(ctx, "Failed to stop metrics server", "error", err)
		}
	}
}

// initializeSimulator builds the simulation with observability
func initializeSimulator(ctx context.Context, cfg *store.Config, m *metrics.Metrics) (interfaces.Simulator, error) {
	s, err := sim.New(cfg, m)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to build simulation", err)
		return nil, err
	}
	logger.Info(ctx, "Population ready", "agents", s.Population().Len())

	// Wrap with observability middleware
	return simobs.Wrap(s), nil
}
