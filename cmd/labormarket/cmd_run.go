package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/labormarket/internal/api"
	"github.com/talgya/labormarket/internal/config"
	"github.com/talgya/labormarket/internal/persistence"
)

// apiRequestsPerMinute limits each client IP on the public endpoints.
const apiRequestsPerMinute = 120

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation in real time with the HTTP API",
		Long: `Run the simulation paced against the wall clock until interrupted.

Every report_every ticks a summary line is logged and, when db_path is
set, a snapshot and the pending events are written to the run journal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}
	return cmd
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	db, err := openJournal(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	sim, err := newSimulation(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		sim.EnableJournal()
	}

	eng := cfg.Engine()
	eng.OnTick = func(tick uint64, now float64) {
		sim.Step(tick, now)
	}
	eng.OnReport = func(tick uint64) {
		sim.Report()
		if db != nil {
			if err := db.Flush(sim); err != nil {
				slog.Error("journal flush failed", "tick", tick, "error", err)
			}
		}
	}

	var server *api.Server
	if cfg.APIPort > 0 {
		if cfg.AdminKey == "" {
			slog.Warn("LABORMARKET_ADMIN_KEY not set, admin endpoints will be disabled")
		}
		server = &api.Server{
			Sim:       sim,
			Eng:       eng,
			DB:        db,
			Port:      cfg.APIPort,
			AdminKey:  cfg.AdminKey,
			RateLimit: apiRequestsPerMinute,
		}
		server.Start()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	out := cmd.OutOrStdout()
	snap := sim.Snapshot()
	fmt.Fprintf(out, "\nThe town is alive: %d agents, %d jobs, %d open roles.\n",
		snap.Population, snap.Jobs, snap.Adverts)
	if server != nil {
		fmt.Fprintf(out, "API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	}
	fmt.Fprintln(out, "Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("HTTP shutdown failed", "error", err)
		}
	}

	if db != nil {
		slog.Info("final save...")
		if err := db.Flush(sim); err != nil {
			slog.Error("final save failed", "error", err)
		}
	}

	final := sim.Report()
	fmt.Fprintf(out, "Simulation stopped at %s.\n", final.SimTime)
	return nil
}

// openJournal opens the run journal and registers a new run. It returns nil
// when the journal is disabled.
func openJournal(cfg *config.Config) (*persistence.DB, error) {
	if cfg.DBPath == "" {
		return nil, nil
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	raw, err := redacted(cfg).Marshal()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("encode config: %w", err)
	}
	r, err := db.BeginRun(cfg.Seed, raw)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("database opened", "path", cfg.DBPath, "run", r.ID)
	return db, nil
}

// redacted returns a copy of cfg with the admin key masked.
func redacted(cfg *config.Config) *config.Config {
	c := *cfg
	if c.AdminKey != "" {
		c.AdminKey = "(set)"
	}
	return &c
}
