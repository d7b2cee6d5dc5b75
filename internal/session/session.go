// Package session wires one play session: aggregator, predictor, director
// and coach behind the mode gate, plus a typed event bus for outputs.
// A session is single-threaded; create a fresh one per play session.
package session

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/arcade-pacer/internal/coach"
	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/core"
	"github.com/vovakirdan/arcade-pacer/internal/director"
	"github.com/vovakirdan/arcade-pacer/internal/features"
	"github.com/vovakirdan/arcade-pacer/internal/mode"
	"github.com/vovakirdan/arcade-pacer/internal/predictor"
)

// Frame is the output of one tick.
type Frame struct {
	AtMs        uint64
	Score       float64
	Level       uint8
	Multipliers core.Multipliers
	Tip         *core.CoachMessage // nil when the coach stayed quiet
	Row         core.TelemetryRow
}

// Option configures a session.
type Option func(*Session)

// WithLogger sets the logger anomalies are written to.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithReporter adds a reporter that receives every anomaly in addition
// to the log.
func WithReporter(rep core.Reporter) Option {
	return func(s *Session) {
		s.extra = rep
	}
}

// WithID overrides the generated session ID.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// Session is the explicit context of one play session.
type Session struct {
	id     string
	cfg    config.Config
	sc     core.SessionConfig
	logger *log.Logger
	extra  core.Reporter
	logRep *LogReporter

	agg   *features.Aggregator
	pred  predictor.Predictor
	dir   *director.Director
	coach *coach.Emitter
	gate  *mode.Gate
	bus   Bus

	pending core.FeatureVector // vector scored at the last tick, awaiting its label
	mult    core.Multipliers
	nowMs   uint64
	ticks   uint64
}

// New validates cfg and builds a session. A zero seed in play mode is
// replaced with a clock-derived one; Seed() reports the seed in use.
func New(cfg config.Config, sc core.SessionConfig, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := core.ParseMode(string(sc.Mode)); err != nil {
		return nil, fmt.Errorf("session: %w: %v", core.ErrConfiguration, err)
	}
	if sc.Mode == "" {
		sc.Mode = core.ModePlay
	}
	sc.Seed = core.ResolveSeed(sc.Mode, sc.Seed, time.Now())

	s := &Session{
		cfg:  cfg,
		sc:   sc,
		mult: core.IdentityMultipliers(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "pacer",
		})
	}
	s.logRep = NewLogReporter(s.logger.With("session", s.id), DefaultDedupeMs)
	rep := core.ReporterFunc(s.report)

	var err error
	if s.agg, err = features.NewAggregator(cfg.Features); err != nil {
		return nil, err
	}
	if s.pred, err = predictor.New(cfg.Predictor, features.Dim, core.NewRNG(sc.Seed, "predictor"), rep); err != nil {
		return nil, err
	}
	if s.dir, err = director.New(cfg.Director, rep); err != nil {
		return nil, err
	}
	if s.coach, err = coach.NewEmitter(cfg.Coach, core.NewRNG(sc.Seed, "coach")); err != nil {
		return nil, err
	}
	s.gate = mode.Wrap(sc.Mode, sc.Seed, s.pred, s.dir, cfg.Modes.For(sc.Mode), rep)
	return s, nil
}

// OnEvent consumes one gameplay event. In play mode the vector scored at
// the previous tick is first labelled with this event's outcome and fed to
// the predictor.
func (s *Session) OnEvent(ev core.GameplayEvent) {
	s.nowMs = ev.AtMs
	if s.pending != nil && s.gate.Adaptive() {
		label := 0.0
		if ev.IsError() {
			label = 1
		}
		s.gate.Observe(s.pending, label)
		s.pending = nil
	}
	s.agg.OnEvent(ev)
}

// Tick runs the periodic pipeline and publishes its outputs on the bus.
func (s *Session) Tick(nowMs uint64, raw core.RawStats, ctx core.Context) Frame {
	s.nowMs = nowMs
	s.ticks++

	vec := s.agg.Tick(nowMs, raw)
	score := s.gate.Predict(vec)
	s.pending = vec

	stats := s.agg.Stats()
	stats.FeverOn = stats.FeverOn || ctx.FeverOn

	prev := s.mult
	s.mult = s.gate.Tick(nowMs, score, stats)
	level := s.gate.Level()

	frame := Frame{
		AtMs:        nowMs,
		Score:       score,
		Level:       level,
		Multipliers: s.mult,
		Row: core.TelemetryRow{
			AtMs:        nowMs,
			Features:    vec.Clone(),
			Score:       score,
			Level:       level,
			Multipliers: s.mult,
		},
	}
	if s.gate.CoachEnabled() {
		if tip, ok := s.coach.MaybeTip(nowMs, score, stats, ctx); ok {
			frame.Tip = &tip
		}
	}

	s.bus.Publish(MultipliersEvent{
		AtMs:        nowMs,
		Multipliers: s.mult,
		Level:       level,
		Score:       score,
		Changed:     s.mult != prev,
	})
	if frame.Tip != nil {
		s.bus.Publish(TipEvent{Tip: *frame.Tip})
	}
	s.bus.Publish(TelemetryEvent{Row: frame.Row})
	return frame
}

// report stamps the anomaly with the session clock, logs it and publishes it.
func (s *Session) report(a core.Anomaly) {
	if a.AtMs == 0 {
		a.AtMs = s.nowMs
	}
	s.logRep.Report(a)
	if s.extra != nil {
		s.extra.Report(a)
	}
	s.bus.Publish(AnomalyEvent{Anomaly: a})
}

// Subscribe registers a handler on the session bus.
func (s *Session) Subscribe(h Handler) {
	s.bus.Subscribe(h)
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Seed returns the seed in use.
func (s *Session) Seed() uint64 {
	return s.sc.Seed
}

// Mode returns the session mode.
func (s *Session) Mode() core.Mode {
	return s.sc.Mode
}

// Config returns the session settings.
func (s *Session) Config() core.SessionConfig {
	return s.sc
}

// Multipliers returns the multipliers of the last tick.
func (s *Session) Multipliers() core.Multipliers {
	return s.mult
}

// Stats returns the aggregator's rolling statistics.
func (s *Session) Stats() features.Stats {
	return s.agg.Stats()
}

// PredictorState returns a copy of the model parameters.
func (s *Session) PredictorState() core.PredictorState {
	return s.pred.Snapshot()
}

// DirectorState returns the director's control state.
func (s *Session) DirectorState() core.DirectorState {
	return s.dir.State()
}

// CoachState returns the coach's anti-repetition memory.
func (s *Session) CoachState() core.CoachState {
	return s.coach.State()
}

// Ticks returns the number of ticks processed.
func (s *Session) Ticks() uint64 {
	return s.ticks
}
