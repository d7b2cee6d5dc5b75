package replay

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/core"
	"github.com/vovakirdan/arcade-pacer/internal/registry"
	"github.com/vovakirdan/arcade-pacer/internal/session"
	"github.com/vovakirdan/arcade-pacer/internal/sim"
	"github.com/vovakirdan/arcade-pacer/internal/storage"
)

var quiet = log.New(io.Discard)

var arena = registry.Arena{
	SpawnIntervalMs: 900,
	TargetLifeMs:    1400,
	HitWindowMs:     180,
	WrongShare:      0.10,
	JunkShare:       0.15,
	BossEveryMs:     20000,
	BossLengthMs:    5000,
	MissDamage:      0.01,
	HitHeal:         0.02,
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "replay.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// recordRun records a simulated player session and returns its ID.
func recordRun(t *testing.T, store *storage.Store, m core.Mode, cfg config.Config) string {
	t.Helper()

	sess, err := session.New(cfg, core.SessionConfig{Mode: m, Seed: 77, Profile: "reflex"}, session.WithLogger(quiet))
	if err != nil {
		t.Fatalf("session.New() failed: %v", err)
	}
	player, err := sim.NewPlayer(sim.DefaultPlayer(), core.NewRNG(77, "sim"))
	if err != nil {
		t.Fatalf("NewPlayer() failed: %v", err)
	}

	err = Record(store, sess, cfg, "player", func(sink sim.Sink) error {
		r, err := sim.NewRunner(sess, arena, player, 500, sink)
		if err != nil {
			return err
		}
		_, err = r.Run(90000)
		return err
	})
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	return sess.ID()
}

func TestReplayReproducesPlaySession(t *testing.T) {
	store := openStore(t)

	// A non-default config must be taken from the recording
	cfg := config.DefaultConfig()
	cfg.Predictor.LearningRate = 0.08
	cfg.Director.MinIntervalMs = 1500
	id := recordRun(t, store, core.ModePlay, cfg)

	meta, err := store.SessionByID(id)
	if err != nil || meta == nil {
		t.Fatalf("SessionByID() failed: %v", err)
	}
	if meta.Ticks != 180 || meta.Events == 0 || meta.EndedAt.IsZero() {
		t.Errorf("Unexpected summary: %+v", meta)
	}

	rec, err := Load(store, id)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	report, err := Run(rec, quiet)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if !report.OK() {
		t.Fatalf("Replay diverged: %v", report.Mismatches[0])
	}
	if report.Ticks != 180 || report.Inputs != len(rec.Inputs) || report.Tips != len(rec.Tips) {
		t.Errorf("Unexpected report: %+v", report)
	}
}

func TestReplayResearchSession(t *testing.T) {
	store := openStore(t)
	id := recordRun(t, store, core.ModeResearch, config.DefaultConfig())

	rec, err := Load(store, id)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	for _, row := range rec.Telemetry {
		if row.Multipliers != core.IdentityMultipliers() {
			t.Fatalf("Research session adapted at %dms: %+v", row.AtMs, row.Multipliers)
		}
	}
	report, err := Run(rec, quiet)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if !report.OK() {
		t.Errorf("Replay diverged: %v", report.Mismatches[0])
	}
}

func TestReplayDetectsTampering(t *testing.T) {
	store := openStore(t)
	id := recordRun(t, store, core.ModePlay, config.DefaultConfig())

	rec, err := Load(store, id)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(rec.Telemetry) < 10 {
		t.Fatalf("Expected telemetry, got %d rows", len(rec.Telemetry))
	}
	rec.Telemetry[5].Score += 1e-12
	rec.Tips = append(rec.Tips, core.CoachMessage{ReasonCode: "phantom", Message: "never said", AtMs: 1})

	report, err := Run(rec, quiet)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	var telemetry, count int
	for _, m := range report.Mismatches {
		switch m.What {
		case "telemetry":
			telemetry++
			if m.Index != 5 {
				t.Errorf("Expected the mismatch at row 5, got %d", m.Index)
			}
		case "count":
			count++
		}
	}
	if telemetry != 1 || count != 1 {
		t.Errorf("Expected one telemetry and one count mismatch, got %v", report.Mismatches)
	}
}

func TestLoadUnknownSession(t *testing.T) {
	store := openStore(t)
	if _, err := Load(store, "nope"); err == nil {
		t.Error("Expected an error for an unknown session")
	}
}

func TestRecordAbortsOnDriveError(t *testing.T) {
	store := openStore(t)
	sess, err := session.New(config.DefaultConfig(), core.SessionConfig{Mode: core.ModePlay, Seed: 3}, session.WithLogger(quiet))
	if err != nil {
		t.Fatalf("session.New() failed: %v", err)
	}

	err = Record(store, sess, config.DefaultConfig(), "player", func(sink sim.Sink) error {
		sink.Event(core.GameplayEvent{Kind: core.EventHit, AtMs: 10})
		return io.ErrUnexpectedEOF
	})
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("Expected the drive error, got %v", err)
	}
	inputs, err := store.Inputs(sess.ID())
	if err != nil {
		t.Fatalf("Inputs() failed: %v", err)
	}
	if len(inputs) != 0 {
		t.Errorf("Expected the aborted recording to be discarded, got %d inputs", len(inputs))
	}
	meta, err := store.SessionByID(sess.ID())
	if err != nil {
		t.Fatalf("SessionByID() failed: %v", err)
	}
	if meta != nil {
		t.Errorf("Expected no session row after an aborted recording, got %+v", meta)
	}
	if _, err := Load(store, sess.ID()); err == nil {
		t.Error("Expected loading an aborted recording to fail")
	}
}

func TestRunRefusesUnfinishedSession(t *testing.T) {
	store := openStore(t)
	data, err := config.Marshal(config.DefaultConfig())
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	err = store.CreateSession(storage.SessionMeta{
		ID:     "unfinished",
		Mode:   core.ModeResearch,
		Seed:   5,
		Source: "player",
		Config: string(data),
	})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}

	rec, err := Load(store, "unfinished")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if _, err := Run(rec, quiet); !errors.Is(err, ErrIncomplete) {
		t.Errorf("Expected ErrIncomplete, got %v", err)
	}
}
