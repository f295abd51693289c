package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/labormarket/internal/engine"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a fixed number of ticks headless and print a summary",
		Long: `Run the simulation as fast as possible for --ticks ticks.

With --verify the cross-structure invariants are checked after every
tick and the run stops at the first violation.

Examples:
  labormarket simulate --ticks 3650
  labormarket simulate --ticks 500 --verify --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ticks, _ := cmd.Flags().GetUint64("ticks")
			verify, _ := cmd.Flags().GetBool("verify")
			journal, _ := cmd.Flags().GetBool("journal")
			jsonOut, _ := cmd.Flags().GetBool("json")

			if !journal {
				cfg.DBPath = ""
			}
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

			var failure error
			eng := cfg.Engine()
			eng.OnTick = func(tick uint64, now float64) {
				sim.Step(tick, now)
				if verify && failure == nil {
					if err := sim.Verify(); err != nil {
						failure = fmt.Errorf("tick %d: %w", tick, err)
					}
				}
			}
			eng.OnReport = func(tick uint64) {
				sim.Report()
				if db != nil {
					if err := db.Flush(sim); err != nil {
						slog.Error("journal flush failed", "tick", tick, "error", err)
					}
				}
			}

			start := time.Now()
			for i := uint64(0); i < ticks && failure == nil; i++ {
				eng.RunFor(1)
			}
			if failure != nil {
				return fmt.Errorf("invariant violated: %w", failure)
			}
			if db != nil {
				if err := db.Flush(sim); err != nil {
					return fmt.Errorf("final save: %w", err)
				}
			}

			snap := sim.Snapshot()
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			printSummary(cmd, snap, eng.Tick, time.Since(start))
			return nil
		},
	}

	cmd.Flags().Uint64("ticks", 365, "Number of ticks to run")
	cmd.Flags().Bool("verify", false, "Check invariants after every tick")
	cmd.Flags().Bool("journal", false, "Write snapshots and events to db_path")

	return cmd
}

func printSummary(cmd *cobra.Command, snap engine.Snapshot, ticks uint64, took time.Duration) {
	out := cmd.OutOrStdout()
	r := snap.Records

	fmt.Fprintf(out, "Ran %s ticks in %s, reaching %s.\n", humanize.Comma(int64(ticks)), took.Round(time.Millisecond), snap.SimTime)
	fmt.Fprintf(out, "  population:      %s\n", humanize.Comma(int64(snap.Population)))
	fmt.Fprintf(out, "  employed:        %s (%.1f%%)\n", humanize.Comma(int64(snap.Employed)), r.EmploymentRate*100)
	fmt.Fprintf(out, "  births:          %s\n", humanize.Comma(int64(r.Births)))
	fmt.Fprintf(out, "  deaths:          %s\n", humanize.Comma(int64(r.Deaths)))
	fmt.Fprintf(out, "  hires:           %s\n", humanize.Comma(int64(r.Hires)))
	fmt.Fprintf(out, "  jobs:            %d (%s seats filled)\n", snap.Jobs, humanize.Comma(int64(snap.Seats)))
	fmt.Fprintf(out, "  open roles:      %d\n", snap.Adverts)
}
