// Package mode composes the predictor and director according to the
// session mode. Frozen modes (research, practice) get zero adaptivity.
package mode

import (
	"fmt"
	"math/rand"

	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/core"
	"github.com/vovakirdan/arcade-pacer/internal/features"
	"github.com/vovakirdan/arcade-pacer/internal/predictor"
)

// Director is the part of the director the gate drives.
type Director interface {
	Tick(nowMs uint64, score float64, stats features.Stats) core.Multipliers
	Level() uint8
}

// Gate routes calls to the wrapped components or to no-ops.
type Gate struct {
	mode   core.Mode
	seed   uint64
	pred   predictor.Predictor
	dir    Director
	policy config.ModePolicy
	rep    core.Reporter
}

// Wrap builds the gate for one session.
func Wrap(mode core.Mode, seed uint64, p predictor.Predictor, d Director, policy config.ModePolicy, rep core.Reporter) *Gate {
	if rep == nil {
		rep = core.NopReporter{}
	}
	return &Gate{mode: mode, seed: seed, pred: p, dir: d, policy: policy, rep: rep}
}

// RNG returns the named random stream derived from the session seed.
func (g *Gate) RNG(stream string) *rand.Rand {
	return core.NewRNG(g.seed, stream)
}

// Predict always delegates; scoring is allowed in every mode.
func (g *Gate) Predict(x core.FeatureVector) float64 {
	return g.pred.Predict(x)
}

// Observe trains the predictor in play mode. In frozen modes the weights
// stay untouched, the call is reported as misuse and the plain prediction
// is returned instead.
func (g *Gate) Observe(x core.FeatureVector, label float64) float64 {
	if g.mode.Adaptive() {
		return g.pred.Observe(x, label)
	}
	g.rep.Report(core.Anomaly{
		Kind:      core.ErrModeMisuse,
		Component: "mode",
		Detail:    fmt.Sprintf("observe ignored in %s mode", g.mode),
	})
	return g.pred.Predict(x)
}

// Tick advances the director in play mode and returns identity
// multipliers otherwise.
func (g *Gate) Tick(nowMs uint64, score float64, stats features.Stats) core.Multipliers {
	if !g.mode.Adaptive() {
		return core.IdentityMultipliers()
	}
	return g.dir.Tick(nowMs, score, stats)
}

// Level returns the director's level, which stays at its initial value in
// frozen modes.
func (g *Gate) Level() uint8 {
	return g.dir.Level()
}

// Adaptive reports whether learning and pacing adjustments are live.
func (g *Gate) Adaptive() bool {
	return g.mode.Adaptive()
}

// CoachEnabled reports whether tips may be emitted in this mode.
func (g *Gate) CoachEnabled() bool {
	return g.policy.Coach
}

// Mode returns the session mode.
func (g *Gate) Mode() core.Mode {
	return g.mode
}

// Seed returns the session seed.
func (g *Gate) Seed() uint64 {
	return g.seed
}
