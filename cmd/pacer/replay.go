package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/arcade-pacer/internal/replay"
	"github.com/vovakirdan/arcade-pacer/internal/storage"
)

var flagMaxMismatches int

var replayCmd = &cobra.Command{
	Use:   "replay <session-id>",
	Short: "Re-run a recorded session and compare its outputs",
	Long: `Feed the recorded inputs of a session to a fresh engine built with the
recorded config, mode and seed, and compare every telemetry row and coach
tip with the recording. Any difference is reported and the command fails.

Research sessions must always replay identically; this is the audit for it.

Examples:
  pacer sessions
  pacer replay 6f1c2a8e-7d4b-4c59-9e55-2b1f3f0d9a10`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().IntVar(&flagMaxMismatches, "max", 10, "Maximum number of mismatches to print")
}

func runReplay(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := replay.Load(store, args[0])
	if err != nil {
		return err
	}
	report, err := replay.Run(rec, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session  %s (%s, seed %d)\n", report.SessionID, report.Mode, report.Seed)
	fmt.Fprintf(out, "Replayed %d inputs, %d ticks, %d tips\n", report.Inputs, report.Ticks, report.Tips)

	if report.OK() {
		fmt.Fprintln(out, "Outputs identical to the recording.")
		return nil
	}

	fmt.Fprintf(out, "%d mismatches:\n", len(report.Mismatches))
	for i, m := range report.Mismatches {
		if i == flagMaxMismatches {
			fmt.Fprintf(out, "  ... and %d more\n", len(report.Mismatches)-i)
			break
		}
		fmt.Fprintf(out, "  %s\n", m)
	}
	return fmt.Errorf("replay of %s diverged", report.SessionID)
}
