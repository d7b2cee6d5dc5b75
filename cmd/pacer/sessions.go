package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/arcade-pacer/internal/storage"
)

var flagSessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded sessions",
	Long: `Shows the most recent sessions recorded with 'pacer simulate --record'.

Examples:
  pacer sessions
  pacer sessions --limit 50
  pacer sessions show <session-id>
  pacer sessions rm <session-id>`,
	Args: cobra.NoArgs,
	RunE: runSessions,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a recorded session with its tips and anomalies",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsRmCmd = &cobra.Command{
	Use:   "rm <session-id>",
	Short: "Delete a recorded session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsRm,
}

func init() {
	sessionsCmd.Flags().IntVar(&flagSessionsLimit, "limit", 20, "Maximum number of sessions to list")
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsRmCmd)
}

func runSessions(cmd *cobra.Command, _ []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.RecentSessions(flagSessionsLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions recorded yet.")
		fmt.Fprintln(out, "Run 'pacer simulate --record' to record one.")
		return nil
	}

	fmt.Fprintf(out, "%-36s  %-16s  %-8s  %-8s  %6s  %5s  %s\n", "ID", "Started", "Profile", "Mode", "Ticks", "Level", "Source")
	for _, s := range sessions {
		fmt.Fprintf(out, "%-36s  %-16s  %-8s  %-8s  %6d  %5d  %s\n",
			s.ID, formatTime(s.StartedAt), s.Profile, s.Mode, s.Ticks, s.FinalLevel, s.Source)
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	meta, err := store.SessionByID(args[0])
	if err != nil {
		return err
	}
	if meta == nil {
		return fmt.Errorf("session %q not found", args[0])
	}
	tips, err := store.Tips(meta.ID)
	if err != nil {
		return err
	}
	anomalies, err := store.Anomalies(meta.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session   %s\n", meta.ID)
	fmt.Fprintf(out, "Profile   %s, mode %s, seed %d\n", meta.Profile, meta.Mode, meta.Seed)
	fmt.Fprintf(out, "Source    %s\n", meta.Source)
	fmt.Fprintf(out, "Started   %s\n", formatTime(meta.StartedAt))
	if meta.EndedAt.IsZero() {
		fmt.Fprintln(out, "Ended     (unfinished)")
	} else {
		fmt.Fprintf(out, "Ended     %s\n", formatTime(meta.EndedAt))
	}
	fmt.Fprintf(out, "Summary   %d ticks, %d events, final risk %.3f, level %d\n",
		meta.Ticks, meta.Events, meta.FinalScore, meta.FinalLevel)

	fmt.Fprintf(out, "\nTips (%d)\n", len(tips))
	for _, t := range tips {
		fmt.Fprintf(out, "  %7.1fs  %-14s %s\n", float64(t.AtMs)/1000, t.ReasonCode, t.Message)
	}
	if len(anomalies) > 0 {
		fmt.Fprintf(out, "\nAnomalies (%d)\n", len(anomalies))
		for _, a := range anomalies {
			fmt.Fprintf(out, "  %7.1fs  %s: %s %s\n", float64(a.AtMs)/1000, a.Component, a.Kind, a.Detail)
		}
	}
	return nil
}

func runSessionsRm(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	meta, err := store.SessionByID(args[0])
	if err != nil {
		return err
	}
	if meta == nil {
		return fmt.Errorf("session %q not found", args[0])
	}
	if err := store.DeleteSession(meta.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", meta.ID)
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Jan 02 15:04:05")
}
