package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/arcade-pacer/internal/core"
	"github.com/vovakirdan/arcade-pacer/internal/features"
	"github.com/vovakirdan/arcade-pacer/internal/replay"
	"github.com/vovakirdan/arcade-pacer/internal/session"
	"github.com/vovakirdan/arcade-pacer/internal/sim"
	"github.com/vovakirdan/arcade-pacer/internal/storage"
)

var (
	flagScript   string
	flagDuration int
	flagCSV      string
	flagRecord   bool
	flagShowTips bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the engine against a synthetic player or a script",
	Long: `Run a session in simulated time and print a summary.

Without --script a synthetic player plays the profile's arena and reacts
to the multipliers the director hands out. With --script a fixed event
sequence is fed instead: a built-in scenario name or a YAML file.

Built-in scenarios:
  ` + strings.Join(sim.BuiltinNames(), ", ") + `

Examples:
  pacer simulate --duration 300
  pacer simulate --skill 0.4 --reaction-ms 900 --csv -
  pacer simulate --script struggle-recover --tips
  pacer simulate --mode research --seed 7 --record`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	addPlayerFlags(simulateCmd)
	simulateCmd.Flags().StringVar(&flagScript, "script", "", "Built-in scenario name or path to a script YAML")
	simulateCmd.Flags().IntVar(&flagDuration, "duration", 120, "Simulated duration in seconds (player runs only)")
	simulateCmd.Flags().StringVar(&flagCSV, "csv", "", "Write telemetry rows as CSV to this file (- for stdout)")
	simulateCmd.Flags().BoolVar(&flagRecord, "record", false, "Record the session to the database for replay")
	simulateCmd.Flags().BoolVar(&flagShowTips, "tips", false, "Print every coach tip")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	e, err := loadEngine()
	if err != nil {
		return err
	}

	var (
		script *sim.Script
		player sim.PlayerConfig
	)
	if flagScript != "" {
		s, err := sim.LoadScript(flagScript)
		if err != nil {
			return err
		}
		script = &s
	} else if player, err = playerConfig(cmd); err != nil {
		return err
	}

	sess, err := e.newSession(flagSeed, flagTickMs)
	if err != nil {
		return err
	}

	if flagCSV != "" {
		w, closeCSV, err := openCSV(flagCSV)
		if err != nil {
			return err
		}
		defer closeCSV()
		sess.Subscribe(w.handler)
		defer func() {
			if err := w.flush(); err != nil {
				logger.Error("telemetry export failed", "error", err)
			}
		}()
	}

	var tips []core.CoachMessage
	sess.Subscribe(func(evt session.Event) {
		if t, ok := evt.(session.TipEvent); ok {
			tips = append(tips, t.Tip)
		}
	})

	var (
		res    sim.Result
		frames []session.Frame
		source = "player"
	)
	drive := func(sink sim.Sink) error {
		if script != nil {
			frames, err = sim.Play(sess, *script, sink)
			return err
		}
		runner, err := e.newRunner(sess, player, flagTickMs, sink)
		if err != nil {
			return err
		}
		res, err = runner.Run(uint64(flagDuration) * 1000)
		return err
	}
	if script != nil {
		source = "script:" + script.Name
	}

	if flagRecord {
		store, err := storage.Open(flagDBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := replay.Record(store, sess, e.cfg, source, drive); err != nil {
			return err
		}
		logger.Info("session recorded", "session", sess.ID(), "db", flagDBPath)
	} else if err := drive(nil); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagCSV == "-" {
		out = cmd.ErrOrStderr()
	}
	final := res.Final
	if script != nil && len(frames) > 0 {
		final = frames[len(frames)-1]
	}
	printSummary(out, e, sess, source, final, res, script != nil, tips)
	return nil
}

// printSummary writes a human-readable run summary.
func printSummary(w io.Writer, e engine, sess *session.Session, source string, final session.Frame, res sim.Result, scripted bool, tips []core.CoachMessage) {
	fmt.Fprintf(w, "Session   %s\n", sess.ID())
	fmt.Fprintf(w, "Profile   %s (%s)\n", e.profile.Title(), e.profile.ID())
	fmt.Fprintf(w, "Mode      %s, seed %d\n", sess.Mode(), sess.Seed())
	fmt.Fprintf(w, "Source    %s\n", source)
	fmt.Fprintf(w, "Duration  %.1fs, %d ticks\n", float64(final.AtMs)/1000, sess.Ticks())
	if !scripted {
		fmt.Fprintf(w, "Outcomes  %d hits, %d misses, %d timeouts", res.Hits, res.Misses, res.Timeouts)
		if res.GameOver {
			fmt.Fprint(w, " (game over)")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	m := final.Multipliers
	fmt.Fprintf(w, "Final risk %.3f, level %d\n", final.Score, final.Level)
	fmt.Fprintf(w, "  spawn_interval_mul  %.3f\n", m.SpawnIntervalMul)
	fmt.Fprintf(w, "  speed_mul           %.3f\n", m.SpeedMul)
	fmt.Fprintf(w, "  hit_window_mul      %.3f\n", m.HitWindowMul)
	fmt.Fprintf(w, "  wrong_add           %+.3f\n", m.WrongAdd)
	fmt.Fprintf(w, "  junk_add            %+.3f\n", m.JunkAdd)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Coach tips: %d\n", len(tips))
	if flagShowTips {
		for _, t := range tips {
			fmt.Fprintf(w, "  %7.1fs  %-14s %s\n", float64(t.AtMs)/1000, t.ReasonCode, t.Message)
		}
	}
}

// csvSink writes telemetry rows from the session bus.
type csvSink struct {
	w   *csv.Writer
	err error
}

func openCSV(path string) (*csvSink, func(), error) {
	var (
		out     io.Writer = os.Stdout
		closeFn           = func() {}
	)
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot create %s: %w", path, err)
		}
		out = f
		closeFn = func() { f.Close() }
	}

	s := &csvSink{w: csv.NewWriter(out)}
	s.err = s.w.Write(core.TelemetryColumns(features.Names()))
	return s, closeFn, nil
}

func (s *csvSink) handler(evt session.Event) {
	if e, ok := evt.(session.TelemetryEvent); ok && s.err == nil {
		s.err = s.w.Write(e.Row.Values())
	}
}

func (s *csvSink) flush() error {
	s.w.Flush()
	if s.err != nil {
		return s.err
	}
	return s.w.Error()
}
