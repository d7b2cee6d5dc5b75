// Package director turns the predictor's risk score into bounded,
// rate-limited gameplay multipliers.
package director

import (
	"fmt"
	"math"

	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/core"
	"github.com/vovakirdan/arcade-pacer/internal/features"
)

const component = "director"

// Director is the pacing control loop of one session. It owns its
// DirectorState; nothing else writes it.
type Director struct {
	cfg config.DirectorConfig
	rep core.Reporter

	emaRisk    float64
	level      uint8
	mult       core.Multipliers
	lastAdjust uint64
	armed      bool // set by the first tick, which starts the rate-limit timer
}

// New creates a director at identity multipliers. The config is validated
// here and an error wraps core.ErrConfiguration.
func New(cfg config.DirectorConfig, rep core.Reporter) (*Director, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rep == nil {
		rep = core.NopReporter{}
	}
	d := &Director{
		cfg:     cfg,
		rep:     rep,
		emaRisk: cfg.InitialRisk,
		mult:    core.IdentityMultipliers(),
	}
	d.level = d.levelFor(d.emaRisk)
	return d, nil
}

// Tick smooths score into the risk EMA, updates the level and, when the
// rate limit, warm-up and fever hold allow it, applies the level's delta.
// It always returns the current (possibly unchanged) multipliers.
func (d *Director) Tick(nowMs uint64, score float64, stats features.Stats) core.Multipliers {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		d.rep.Report(core.Anomaly{
			Kind:      core.ErrNumericInstability,
			Component: component,
			Detail:    fmt.Sprintf("score %v ignored", score),
			AtMs:      nowMs,
		})
	} else {
		score = math.Max(0, math.Min(1, score))
		w := d.cfg.Smoothing
		d.emaRisk = d.emaRisk*w + score*(1-w)
		d.level = d.levelFor(d.emaRisk)
	}

	if !d.armed {
		d.armed = true
		d.lastAdjust = nowMs
		return d.mult
	}
	if nowMs < d.lastAdjust || nowMs-d.lastAdjust < d.cfg.MinIntervalMs {
		return d.mult
	}
	if stats.Events < uint64(d.cfg.WarmupEvents) {
		return d.mult
	}
	if d.level == 0 && d.cfg.FeverHold && stats.FeverOn {
		return d.mult
	}

	next := d.mult.Add(d.cfg.Levels[d.level])
	if !next.Finite() {
		d.rep.Report(core.Anomaly{
			Kind:      core.ErrNumericInstability,
			Component: component,
			Detail:    fmt.Sprintf("level %d delta produced %+v, keeping previous values", d.level, next),
			AtMs:      nowMs,
		})
	}
	d.mult = d.cfg.Bounds.ClampFrom(d.mult, next)
	d.lastAdjust = nowMs
	return d.mult
}

// levelFor applies the thresholds with hysteresis relative to the current
// level: rising needs emaRisk >= thr, falling needs emaRisk < thr - hysteresis.
func (d *Director) levelFor(risk float64) uint8 {
	thr := d.cfg.Thresholds
	level := int(d.level)
	for level < len(thr) && risk >= thr[level] {
		level++
	}
	for level > 0 && risk < thr[level-1]-d.cfg.Hysteresis {
		level--
	}
	return uint8(level)
}

// Multipliers returns the current multipliers.
func (d *Director) Multipliers() core.Multipliers {
	return d.mult
}

// Level returns the current discrete risk level.
func (d *Director) Level() uint8 {
	return d.level
}

// State returns a snapshot of the control loop.
func (d *Director) State() core.DirectorState {
	return core.DirectorState{
		Multipliers:    d.mult,
		EMARisk:        d.emaRisk,
		LastAdjustAtMs: d.lastAdjust,
		LastLevel:      d.level,
	}
}
