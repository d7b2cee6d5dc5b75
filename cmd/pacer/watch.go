package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/arcade-pacer/internal/platform/tui"
)

var flagWatchLimit int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of a simulated session",
	Long: `Run a synthetic player in simulated time and watch the engine react:
risk score, director level, multipliers and coach tips.

Controls:
  P/Space  - Pause
  N        - Step one tick while paused
  +/-      - Faster/slower
  R        - Start a new session
  ?        - Show all keys
  Q/Esc    - Quit

Examples:
  pacer watch
  pacer watch --profile shooter --skill 0.35
  pacer watch --mode research --seed 42`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	addPlayerFlags(watchCmd)
	watchCmd.Flags().IntVar(&flagWatchLimit, "limit", 0, "Stop after this many simulated seconds (0 = no limit)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	e, err := loadEngine()
	if err != nil {
		return err
	}
	player, err := playerConfig(cmd)
	if err != nil {
		return err
	}

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	// Log lines would tear the alternate screen
	logger.SetOutput(io.Discard)

	title := fmt.Sprintf("%s - adaptive pacing", e.profile.Title())
	_, err = tui.Run(e.source(flagSeed, player, flagTickMs), title, width, height, uint64(flagWatchLimit)*1000)
	return err
}
