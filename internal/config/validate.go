package config

import (
	"fmt"
	"math"

	"github.com/vovakirdan/arcade-pacer/internal/core"
)

// Validate checks every section. Errors wrap core.ErrConfiguration and
// must stop the process before any session starts.
func (c Config) Validate() error {
	if err := c.Features.Validate(); err != nil {
		return err
	}
	if err := c.Predictor.Validate(); err != nil {
		return err
	}
	if err := c.Director.Validate(); err != nil {
		return err
	}
	return c.Coach.Validate()
}

// Validate checks the aggregator settings.
func (f FeaturesConfig) Validate() error {
	if !(f.Alpha > 0 && f.Alpha <= 1) {
		return configErr("features.alpha must be in (0,1], got %v", f.Alpha)
	}
	if f.Window < 4 {
		return configErr("features.window must be at least 4, got %d", f.Window)
	}
	if err := f.ReactionMs.validate("features.reaction_ms"); err != nil {
		return err
	}
	if err := f.Combo.validate("features.combo"); err != nil {
		return err
	}
	if !(f.TrendSpanMs > 0) {
		return configErr("features.trend_span_ms must be positive, got %v", f.TrendSpanMs)
	}
	if !inUnit(f.LowHPThreshold) {
		return configErr("features.low_hp_threshold must be in [0,1], got %v", f.LowHPThreshold)
	}
	p := f.Priors
	for name, v := range map[string]float64{
		"miss_rate":    p.MissRate,
		"timeout_rate": p.TimeoutRate,
		"error_rate":   p.ErrorRate,
		"low_hp":       p.LowHP,
		"hp":           p.HP,
	} {
		if !inUnit(v) {
			return configErr("features.priors.%s must be in [0,1], got %v", name, v)
		}
	}
	if !finite(p.ReactionMs) || p.ReactionMs < 0 || !finite(p.Combo) || p.Combo < 0 {
		return configErr("features.priors must be finite and non-negative")
	}
	return nil
}

// Validate checks the predictor settings. The weight count is checked
// against the feature dimension by the predictor itself.
func (p PredictorConfig) Validate() error {
	switch p.Model {
	case ModelLogistic, ModelMLP:
	default:
		return configErr("predictor.model must be %q or %q, got %q", ModelLogistic, ModelMLP, p.Model)
	}
	if !(p.LearningRate > 0) || !finite(p.LearningRate) {
		return configErr("predictor.learning_rate must be positive, got %v", p.LearningRate)
	}
	if p.L2 < 0 || !finite(p.L2) {
		return configErr("predictor.l2 must be non-negative, got %v", p.L2)
	}
	if p.Model == ModelMLP && (p.Hidden < 1 || p.Hidden > 64) {
		return configErr("predictor.hidden must be in [1,64], got %d", p.Hidden)
	}
	if !(p.LogitClamp > 0) || p.LogitClamp > 700 {
		return configErr("predictor.logit_clamp must be in (0,700], got %v", p.LogitClamp)
	}
	if !inUnit(p.Prior) {
		return configErr("predictor.prior must be in [0,1], got %v", p.Prior)
	}
	for i, w := range p.Weights {
		if !finite(w) {
			return configErr("predictor.weights[%d] is not finite", i)
		}
	}
	if !finite(p.Bias) {
		return configErr("predictor.bias is not finite")
	}
	return nil
}

// Validate checks the director's thresholds, table and bounds.
func (d DirectorConfig) Validate() error {
	if !(d.Smoothing >= 0 && d.Smoothing < 1) {
		return configErr("director.smoothing must be in [0,1), got %v", d.Smoothing)
	}
	if !inUnit(d.InitialRisk) {
		return configErr("director.initial_risk must be in [0,1], got %v", d.InitialRisk)
	}
	if len(d.Thresholds) == 0 {
		return configErr("director.thresholds must not be empty")
	}
	minGap := math.Inf(1)
	prev := 0.0
	for i, t := range d.Thresholds {
		if !(t > prev && t < 1) {
			return configErr("director.thresholds must ascend strictly inside (0,1), got %v", d.Thresholds)
		}
		if i > 0 {
			minGap = math.Min(minGap, t-prev)
		}
		prev = t
	}
	if !(d.Hysteresis >= 0) || (len(d.Thresholds) > 1 && d.Hysteresis >= minGap) || d.Hysteresis >= d.Thresholds[0] {
		return configErr("director.hysteresis %v overlaps the threshold bands", d.Hysteresis)
	}
	if d.MinIntervalMs == 0 {
		return configErr("director.min_interval_ms must be positive")
	}
	if d.WarmupEvents < 0 {
		return configErr("director.warmup_events must not be negative")
	}
	if len(d.Levels) != d.LevelCount() {
		return configErr("director.levels needs %d rows (one per level), got %d", d.LevelCount(), len(d.Levels))
	}
	for i, row := range d.Levels {
		if !row.Finite() {
			return configErr("director.levels[%d] has a non-finite delta: %+v", i, row)
		}
	}
	for i := 1; i < len(d.Levels); i++ {
		lo, hi := d.Levels[i-1], d.Levels[i]
		if hi.SpawnIntervalMul < lo.SpawnIntervalMul || hi.SpeedMul > lo.SpeedMul ||
			hi.HitWindowMul < lo.HitWindowMul || hi.WrongAdd > lo.WrongAdd || hi.JunkAdd > lo.JunkAdd {
			return configErr("director.levels[%d] is tighter than level %d", i, i-1)
		}
	}
	return d.Bounds.validate()
}

func (b Bounds) validate() error {
	identity := core.IdentityMultipliers()
	checks := []struct {
		name  string
		bound Bound
		ident float64
	}{
		{"spawn_interval_mul", b.SpawnInterval, identity.SpawnIntervalMul},
		{"speed_mul", b.Speed, identity.SpeedMul},
		{"hit_window_mul", b.HitWindow, identity.HitWindowMul},
		{"wrong_add", b.Wrong, identity.WrongAdd},
		{"junk_add", b.Junk, identity.JunkAdd},
	}
	for _, c := range checks {
		if !finite(c.bound.Min) || !finite(c.bound.Max) || !(c.bound.Min < c.bound.Max) {
			return configErr("director.bounds.%s is inverted: [%v, %v]", c.name, c.bound.Min, c.bound.Max)
		}
		if c.ident < c.bound.Min || c.ident > c.bound.Max {
			return configErr("director.bounds.%s [%v, %v] excludes the identity value %v",
				c.name, c.bound.Min, c.bound.Max, c.ident)
		}
	}
	return nil
}

// Validate checks the coach's cooldowns and rule thresholds.
func (c CoachConfig) Validate() error {
	if c.KeyCooldownMs < c.GlobalGapMs {
		return configErr("coach.key_cooldown_ms (%d) must be >= coach.global_gap_ms (%d)",
			c.KeyCooldownMs, c.GlobalGapMs)
	}
	if c.MinAttempts < 0 {
		return configErr("coach.min_attempts must not be negative")
	}
	for _, r := range []struct {
		name string
		v    float64
	}{
		{"boss_risk", c.BossRisk},
		{"low_hp", c.LowHP},
		{"high_risk", c.HighRisk},
		{"miss_rate", c.MissRate},
		{"timeout_rate", c.TimeoutRate},
		{"streak_max_risk", c.StreakMaxRisk},
	} {
		if !inUnit(r.v) {
			return configErr("coach.%s must be in [0,1], got %v", r.name, r.v)
		}
	}
	if !finite(c.SlowReactionMs) || c.SlowReactionMs < 0 || !finite(c.StreakCombo) || c.StreakCombo < 0 {
		return configErr("coach.slow_reaction_ms and coach.streak_combo must be finite and non-negative")
	}
	return nil
}

func (r Range) validate(name string) error {
	if !finite(r.Lo) || !finite(r.Hi) || !(r.Hi > r.Lo) {
		return configErr("%s must have hi > lo, got [%v, %v]", name, r.Lo, r.Hi)
	}
	return nil
}

func configErr(format string, args ...any) error {
	return fmt.Errorf("config: %w: %s", core.ErrConfiguration, fmt.Sprintf(format, args...))
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
