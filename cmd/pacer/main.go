// pacer runs the adaptive difficulty engine against synthetic players and
// recorded sessions, and shows it live in the terminal.
//
// Usage:
//
//	pacer profiles             - List game profiles
//	pacer simulate             - Run a synthetic player or a scripted scenario
//	pacer watch                - Live dashboard of a simulated session
//	pacer serve                - Serve the dashboard over SSH
//	pacer sessions             - List recorded sessions
//	pacer replay <session-id>  - Re-run a recording and check determinism
//
// Global flags:
//
//	--profile <id>     - Game profile (default: reflex)
//	--mode <mode>      - play, research or practice (default: play)
//	--seed <value>     - RNG seed (0 = clock-derived in play mode)
//	--config <path>    - Engine config YAML
//	--db <path>        - Recording database (default: ~/.pacer/sessions.db)
//	--log-level <lvl>  - debug, info, warn or error
//
// Every global flag except --seed and --mode also reads a PACER_* environment
// variable; flags win.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/arcade-pacer/internal/config"

	// Import profiles to register them
	_ "github.com/vovakirdan/arcade-pacer/internal/profiles"
)

var (
	// Global flags
	flagProfile    string
	flagMode       string
	flagSeed       uint64
	flagConfig     string
	flagDBPath     string
	flagLogLevel   string
	flagDifficulty string

	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "pacer",
	})
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pacer",
	Short: "Adaptive difficulty engine for arcade games",
	Long: `pacer estimates a player's short-horizon risk of failure from gameplay
events and adjusts pacing multipliers to keep them in flow.

Available commands:
  profiles  - Show the built-in game profiles
  simulate  - Run a synthetic player or a scripted scenario
  watch     - Live dashboard of a simulated session
  serve     - Serve the dashboard over SSH
  sessions  - List, show or delete recorded sessions
  replay    - Re-run a recorded session and compare outputs

Examples:
  pacer simulate --duration 120 --csv telemetry.csv
  pacer simulate --script struggle-recover --record
  pacer simulate --mode research --seed 42 --record
  pacer replay 6f1c2a8e-...
  pacer watch --profile rhythm --skill 0.4`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: applyRuntime,
}

func init() {
	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagProfile, "profile", "reflex", "Game profile ID")
	pf.StringVar(&flagMode, "mode", "play", "Session mode: play, research, practice")
	pf.Uint64Var(&flagSeed, "seed", 0, "RNG seed (0 = clock-derived in play mode)")
	pf.StringVar(&flagConfig, "config", "", "Path to engine config YAML")
	pf.StringVar(&flagDBPath, "db", "~/.pacer/sessions.db", "Path to the recording database")
	pf.StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&flagDifficulty, "difficulty", "", "Starting difficulty preset: easy, normal, hard")

	// Add subcommands
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(replayCmd)
}

// applyRuntime fills unset flags from the environment and configures the logger.
func applyRuntime(cmd *cobra.Command, _ []string) error {
	rt, err := config.ParseEnv()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("config") && rt.ConfigPath != "" {
		flagConfig = rt.ConfigPath
	}
	if !flags.Changed("db") {
		flagDBPath = rt.DBPath
	}
	if !flags.Changed("log-level") {
		flagLogLevel = rt.LogLevel
	}
	if !flags.Changed("profile") {
		flagProfile = rt.Profile
	}

	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", flagLogLevel, err)
	}
	logger.SetLevel(level)
	return nil
}
