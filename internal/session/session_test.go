package session

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/core"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newSession(t *testing.T, m core.Mode, seed uint64) *Session {
	t.Helper()
	sc := core.DefaultSessionConfig()
	sc.Mode = m
	sc.Seed = seed
	s, err := New(config.DefaultConfig(), sc, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return s
}

// step feeds one event followed by one tick at the same timestamp.
func step(s *Session, ev core.GameplayEvent) Frame {
	s.OnEvent(ev)
	return s.Tick(ev.AtMs, core.RawStats{HP: ev.HP, Combo: ev.ComboAfter}, core.Context{})
}

// struggle is a losing streak: 20 misses with rising reaction times and HP
// draining, one event every 500ms.
func struggle() []core.GameplayEvent {
	evs := make([]core.GameplayEvent, 20)
	for i := range evs {
		evs[i] = core.GameplayEvent{
			Kind:       core.EventMiss,
			ReactionMs: 700 + 30*float64(i),
			HP:         1 - 0.04*float64(i+1),
			AtMs:       uint64(i+1) * 500,
		}
	}
	return evs
}

// recovery is 20 fast, stable hits that follow struggle.
func recovery() []core.GameplayEvent {
	evs := make([]core.GameplayEvent, 20)
	for i := range evs {
		evs[i] = core.GameplayEvent{
			Kind:       core.EventHit,
			ReactionMs: 320,
			ComboAfter: uint32(i + 1),
			HP:         0.2 + 0.02*float64(i+1),
			AtMs:       uint64(21+i) * 500,
		}
	}
	return evs
}

func TestSessionStruggleThenRecover(t *testing.T) {
	s := newSession(t, core.ModePlay, 1)
	bounds := config.DefaultConfig().Director.Bounds

	var prev float64
	var frame Frame
	for i, ev := range struggle() {
		frame = step(s, ev)
		if frame.Score < prev {
			t.Errorf("Miss %d: score fell from %v to %v", i, prev, frame.Score)
		}
		prev = frame.Score
		if !bounds.Contains(frame.Multipliers) {
			t.Fatalf("Miss %d: multipliers out of bounds: %+v", i, frame.Multipliers)
		}
	}
	if frame.Score < 0.85 {
		t.Errorf("Expected score >= 0.85 after 20 misses, got %v", frame.Score)
	}
	if frame.Level != 3 {
		t.Errorf("Expected level 3 after 20 misses, got %d", frame.Level)
	}
	speedAfterA := frame.Multipliers.SpeedMul
	if speedAfterA > 0.80 || speedAfterA < bounds.Speed.Min {
		t.Errorf("Expected speed eased to the floor %v, got %v", bounds.Speed.Min, speedAfterA)
	}

	for i, ev := range recovery() {
		frame = step(s, ev)
		if !bounds.Contains(frame.Multipliers) {
			t.Fatalf("Hit %d: multipliers out of bounds: %+v", i, frame.Multipliers)
		}
		if i == config.DefaultConfig().Features.Window-1 && frame.Score > 0.3 {
			t.Errorf("Expected score back near baseline within the window, got %v", frame.Score)
		}
	}
	if frame.Score > 0.1 {
		t.Errorf("Expected low score after 20 clean hits, got %v", frame.Score)
	}
	if frame.Level != 0 {
		t.Errorf("Expected level 0 after recovery, got %d", frame.Level)
	}
	if frame.Multipliers.SpeedMul <= speedAfterA || frame.Multipliers.SpeedMul > bounds.Speed.Max {
		t.Errorf("Expected speed to tighten within bounds, got %v (was %v)", frame.Multipliers.SpeedMul, speedAfterA)
	}
	if s.PredictorState().SamplesSeen != 39 {
		t.Errorf("Expected 39 labelled samples, got %d", s.PredictorState().SamplesSeen)
	}
}

func TestSessionResearchModeIsIdentity(t *testing.T) {
	s := newSession(t, core.ModeResearch, 5)
	before := s.PredictorState()

	events := append(struggle(), recovery()...)
	for i, ev := range events {
		frame := step(s, ev)
		if frame.Multipliers != core.IdentityMultipliers() {
			t.Fatalf("Event %d: expected identity multipliers, got %+v", i, frame.Multipliers)
		}
	}
	if !reflect.DeepEqual(before, s.PredictorState()) {
		t.Error("Predictor learned in research mode")
	}
	if s.DirectorState().EMARisk != config.DefaultConfig().Director.InitialRisk {
		t.Error("Director ran in research mode")
	}
}

func TestSessionResearchDeterminism(t *testing.T) {
	run := func() ([]core.Multipliers, []core.CoachMessage) {
		s := newSession(t, core.ModeResearch, 2024)
		var mults []core.Multipliers
		var tips []core.CoachMessage
		s.Subscribe(func(evt Event) {
			switch e := evt.(type) {
			case MultipliersEvent:
				mults = append(mults, e.Multipliers)
			case TipEvent:
				tips = append(tips, e.Tip)
			}
		})
		for _, ev := range append(struggle(), recovery()...) {
			step(s, ev)
		}
		return mults, tips
	}

	m1, t1 := run()
	m2, t2 := run()
	if !reflect.DeepEqual(m1, m2) {
		t.Error("Multiplier sequences differ between identical research runs")
	}
	if !reflect.DeepEqual(t1, t2) {
		t.Errorf("Tip sequences differ between identical research runs:\n%v\n%v", t1, t2)
	}
	if len(t1) == 0 {
		t.Error("Expected the coach to speak during a struggling research run")
	}
}

func TestSessionPlayDeterminismWithSeed(t *testing.T) {
	run := func() []Frame {
		s := newSession(t, core.ModePlay, 77)
		var frames []Frame
		for _, ev := range append(struggle(), recovery()...) {
			frames = append(frames, step(s, ev))
		}
		return frames
	}
	if !reflect.DeepEqual(run(), run()) {
		t.Error("Play sessions with the same seed diverged")
	}
}

func TestSessionTipsCarryReasons(t *testing.T) {
	s := newSession(t, core.ModePlay, 3)
	cfg := config.DefaultConfig().Coach

	var tips []core.CoachMessage
	for _, ev := range append(struggle(), recovery()...) {
		if f := step(s, ev); f.Tip != nil {
			tips = append(tips, *f.Tip)
		}
	}
	if len(tips) == 0 {
		t.Fatal("Expected at least one tip")
	}
	for i, tip := range tips {
		if tip.ReasonCode == "" || tip.Message == "" {
			t.Errorf("Tip %d missing reason or text: %+v", i, tip)
		}
		if i > 0 && tip.AtMs-tips[i-1].AtMs < cfg.GlobalGapMs {
			t.Errorf("Tips %d and %d closer than the global gap", i-1, i)
		}
	}
}

func TestSessionCoachDisabledByMode(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Modes.Research.Coach = false
	sc := core.SessionConfig{Mode: core.ModeResearch, Seed: 1}

	s, err := New(cfg, sc, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	for _, ev := range struggle() {
		if f := step(s, ev); f.Tip != nil {
			t.Fatalf("Coach spoke while disabled: %+v", f.Tip)
		}
	}
}

func TestSessionBusOrder(t *testing.T) {
	s := newSession(t, core.ModePlay, 1)

	var kinds []string
	s.Subscribe(func(evt Event) {
		switch evt.(type) {
		case MultipliersEvent:
			kinds = append(kinds, "multipliers")
		case TipEvent:
			kinds = append(kinds, "tip")
		case TelemetryEvent:
			kinds = append(kinds, "telemetry")
		}
	})

	s.Tick(0, core.RawStats{HP: 0.1}, core.Context{})
	want := []string{"multipliers", "tip", "telemetry"}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("Expected delivery order %v, got %v", want, kinds)
	}
}

func TestSessionTelemetryRow(t *testing.T) {
	s := newSession(t, core.ModePlay, 1)

	f := s.Tick(250, core.RawStats{HP: 1}, core.Context{})
	if f.Row.AtMs != 250 || f.Row.Score != f.Score || len(f.Row.Features) != 8 {
		t.Errorf("Unexpected row %+v", f.Row)
	}
	cols := core.TelemetryColumns([]string{"a", "b", "c", "d", "e", "f", "g", "h"})
	if got := len(f.Row.Values()); got != len(cols) {
		t.Errorf("Row has %d values for %d columns", got, len(cols))
	}
}

func TestSessionRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Director.Thresholds = []float64{0.9, 0.5, 0.7}

	_, err := New(cfg, core.DefaultSessionConfig(), WithLogger(quietLogger()))
	if !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration, got %v", err)
	}

	_, err = New(config.DefaultConfig(), core.SessionConfig{Mode: "turbo"}, WithLogger(quietLogger()))
	if !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration for an unknown mode, got %v", err)
	}
}

func TestSessionSeedResolution(t *testing.T) {
	research := newSession(t, core.ModeResearch, 0)
	if research.Seed() != 0 {
		t.Errorf("Research mode must keep the seed verbatim, got %d", research.Seed())
	}
	play := newSession(t, core.ModePlay, 0)
	if play.Seed() == 0 {
		t.Error("Play mode should derive a seed from the clock")
	}
	if play.ID() == "" || play.ID() == research.ID() {
		t.Error("Sessions need distinct IDs")
	}
}

func TestBusQueuesNestedPublish(t *testing.T) {
	var b Bus
	var order []string

	b.Subscribe(func(evt Event) {
		if _, ok := evt.(TipEvent); ok {
			order = append(order, "first:tip")
			b.Publish(AnomalyEvent{})
			order = append(order, "first:tip-done")
			return
		}
		order = append(order, "first:anomaly")
	})
	b.Subscribe(func(evt Event) {
		if _, ok := evt.(TipEvent); ok {
			order = append(order, "second:tip")
			return
		}
		order = append(order, "second:anomaly")
	})

	b.Publish(TipEvent{})
	want := []string{"first:tip", "first:tip-done", "second:tip", "first:anomaly", "second:anomaly"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("Expected %v, got %v", want, order)
	}
}

func TestFeedDropsOldest(t *testing.T) {
	f := NewFeed(2)
	f.Send(TipEvent{Tip: core.CoachMessage{AtMs: 1}})
	f.Send(TipEvent{Tip: core.CoachMessage{AtMs: 2}})
	f.Send(TipEvent{Tip: core.CoachMessage{AtMs: 3}})

	first := (<-f.Events()).(TipEvent)
	second := (<-f.Events()).(TipEvent)
	if first.Tip.AtMs != 2 || second.Tip.AtMs != 3 {
		t.Errorf("Expected the two newest events, got %d and %d", first.Tip.AtMs, second.Tip.AtMs)
	}

	f.Close()
	f.Close()
	f.Send(TipEvent{})
	if len(f.Events()) != 0 {
		t.Error("Send after Close must be a no-op")
	}
}

func TestLogReporterDedupes(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(log.New(&buf), 1000)

	for _, at := range []uint64{100, 200, 300} {
		r.Report(core.Anomaly{Kind: core.ErrInvalidFeatureVector, Component: "predictor", AtMs: at})
	}
	r.Report(core.Anomaly{Kind: core.ErrNumericInstability, Component: "predictor", AtMs: 300})
	r.Report(core.Anomaly{Kind: core.ErrInvalidFeatureVector, Component: "predictor", AtMs: 1200})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 log lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[2], "repeated=2") {
		t.Errorf("Expected the repeat count on the last line, got %q", lines[2])
	}
}

func TestSessionReporterStampsTime(t *testing.T) {
	var got []core.Anomaly
	sc := core.SessionConfig{Mode: core.ModePlay, Seed: 1}
	s, err := New(config.DefaultConfig(), sc,
		WithLogger(quietLogger()),
		WithReporter(core.ReporterFunc(func(a core.Anomaly) { got = append(got, a) })),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	var published int
	s.Subscribe(func(evt Event) {
		if _, ok := evt.(AnomalyEvent); ok {
			published++
		}
	})

	s.Tick(4000, core.RawStats{HP: 1}, core.Context{})
	s.gate.Observe(make(core.FeatureVector, 3), 1)

	if len(got) != 1 || got[0].AtMs != 4000 || !errors.Is(got[0], core.ErrInvalidFeatureVector) {
		t.Errorf("Expected one stamped invalid vector anomaly, got %v", got)
	}
	if published != 1 {
		t.Errorf("Expected one anomaly on the bus, got %d", published)
	}
}
