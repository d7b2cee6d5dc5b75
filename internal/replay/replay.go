// Package replay re-runs a recorded session and checks that the engine
// produces the same outputs from the same inputs.
package replay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/core"
	"github.com/vovakirdan/arcade-pacer/internal/session"
	"github.com/vovakirdan/arcade-pacer/internal/storage"
)

// ErrIncomplete marks a recording that was never finished. Its outputs
// cannot vouch for the run, so it is not replayed.
var ErrIncomplete = errors.New("replay: recording is incomplete")

// Mismatch is one output that differs from the recording.
type Mismatch struct {
	Index int
	AtMs  uint64
	What  string // "telemetry", "tip" or "count"
	Want  string
	Got   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s #%d at %dms: want %s, got %s", m.What, m.Index, m.AtMs, m.Want, m.Got)
}

// Report is the outcome of a replay.
type Report struct {
	SessionID  string
	Mode       core.Mode
	Seed       uint64
	Inputs     int
	Ticks      int
	Tips       int
	Mismatches []Mismatch
}

// OK reports whether every output matched.
func (r Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Recording is everything replay needs from storage.
type Recording struct {
	Meta      storage.SessionMeta
	Inputs    []storage.Input
	Telemetry []core.TelemetryRow
	Tips      []core.CoachMessage
}

// Load reads a recording from the store.
func Load(store *storage.Store, sessionID string) (Recording, error) {
	var rec Recording
	meta, err := store.SessionByID(sessionID)
	if err != nil {
		return rec, err
	}
	if meta == nil {
		return rec, fmt.Errorf("replay: session %q not found", sessionID)
	}
	rec.Meta = *meta
	if rec.Inputs, err = store.Inputs(sessionID); err != nil {
		return rec, err
	}
	if rec.Telemetry, err = store.Telemetry(sessionID); err != nil {
		return rec, err
	}
	if rec.Tips, err = store.Tips(sessionID); err != nil {
		return rec, err
	}
	return rec, nil
}

// Run feeds the recorded inputs to a fresh session built with the
// recorded config, mode and seed, and compares its telemetry rows and
// tips with the recorded ones.
func Run(rec Recording, logger *log.Logger) (Report, error) {
	report := Report{
		SessionID: rec.Meta.ID,
		Mode:      rec.Meta.Mode,
		Seed:      rec.Meta.Seed,
		Inputs:    len(rec.Inputs),
	}

	if rec.Meta.EndedAt.IsZero() {
		return report, fmt.Errorf("%w: session %q has no end time", ErrIncomplete, rec.Meta.ID)
	}
	cfg, err := config.Parse([]byte(rec.Meta.Config))
	if err != nil {
		return report, fmt.Errorf("replay: recorded config: %w", err)
	}
	if rec.Meta.Seed == 0 && rec.Meta.Mode.Adaptive() {
		return report, fmt.Errorf("replay: session %q has no resolved seed", rec.Meta.ID)
	}

	opts := []session.Option{session.WithID(rec.Meta.ID)}
	if logger != nil {
		opts = append(opts, session.WithLogger(logger))
	}
	sess, err := session.New(cfg, core.SessionConfig{
		Mode:    rec.Meta.Mode,
		Seed:    rec.Meta.Seed,
		Profile: rec.Meta.Profile,
	}, opts...)
	if err != nil {
		return report, err
	}

	var (
		rows []core.TelemetryRow
		tips []core.CoachMessage
	)
	sess.Subscribe(func(evt session.Event) {
		switch e := evt.(type) {
		case session.TelemetryEvent:
			rows = append(rows, e.Row)
		case session.TipEvent:
			tips = append(tips, e.Tip)
		}
	})

	for _, in := range rec.Inputs {
		switch in.Kind {
		case storage.InputEvent:
			sess.OnEvent(in.Event)
		case storage.InputTick:
			sess.Tick(in.Tick.AtMs, in.Tick.Raw, in.Tick.Ctx)
			report.Ticks++
		}
	}
	report.Tips = len(tips)

	report.Mismatches = append(report.Mismatches, compareRows(rec.Telemetry, rows)...)
	report.Mismatches = append(report.Mismatches, compareTips(rec.Tips, tips)...)
	return report, nil
}

func compareRows(want, got []core.TelemetryRow) []Mismatch {
	var out []Mismatch
	for i := 0; i < min(len(want), len(got)); i++ {
		w := strings.Join(want[i].Values(), ",")
		g := strings.Join(got[i].Values(), ",")
		if w != g {
			out = append(out, Mismatch{Index: i, AtMs: want[i].AtMs, What: "telemetry", Want: w, Got: g})
		}
	}
	if len(want) != len(got) {
		out = append(out, Mismatch{
			Index: min(len(want), len(got)),
			What:  "count",
			Want:  fmt.Sprintf("%d telemetry rows", len(want)),
			Got:   fmt.Sprintf("%d telemetry rows", len(got)),
		})
	}
	return out
}

func compareTips(want, got []core.CoachMessage) []Mismatch {
	var out []Mismatch
	format := func(t core.CoachMessage) string {
		return fmt.Sprintf("%s %q", t.ReasonCode, t.Message)
	}
	for i := 0; i < min(len(want), len(got)); i++ {
		if want[i] != got[i] {
			out = append(out, Mismatch{Index: i, AtMs: want[i].AtMs, What: "tip", Want: format(want[i]), Got: format(got[i])})
		}
	}
	if len(want) != len(got) {
		out = append(out, Mismatch{
			Index: min(len(want), len(got)),
			What:  "count",
			Want:  fmt.Sprintf("%d tips", len(want)),
			Got:   fmt.Sprintf("%d tips", len(got)),
		})
	}
	return out
}
