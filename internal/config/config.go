// Package config provides YAML-based engine configuration loading,
// validation and difficulty presets for the pacing engine.
package config

import (
	"math"

	"github.com/vovakirdan/arcade-pacer/internal/core"
)

// Config contains all tunables of the adaptive engine. Every threshold,
// bound and smoothing constant lives here so deployments can document
// their own defaults per game.
type Config struct {
	Features  FeaturesConfig  `yaml:"features"`
	Predictor PredictorConfig `yaml:"predictor"`
	Director  DirectorConfig  `yaml:"director"`
	Coach     CoachConfig     `yaml:"coach"`
	Modes     ModesConfig     `yaml:"modes"`
}

// Range is a closed interval used for affine normalization.
type Range struct {
	Lo float64 `yaml:"lo"`
	Hi float64 `yaml:"hi"`
}

// FeaturesConfig defines the aggregator's smoothing and normalization.
type FeaturesConfig struct {
	Alpha          float64 `yaml:"alpha"`            // EMA weight of the newest sample
	Window         int     `yaml:"window"`           // Sliding window length in samples
	ReactionMs     Range   `yaml:"reaction_ms"`      // Reaction time mapped to [0,1]
	Combo          Range   `yaml:"combo"`            // Combo length mapped to [0,1]
	TrendSpanMs    float64 `yaml:"trend_span_ms"`    // Reaction drift mapped to [-1,1]
	LowHPThreshold float64 `yaml:"low_hp_threshold"` // HP below this counts as "low"
	Priors         Priors  `yaml:"priors"`
}

// Priors are the neutral values reported before anything was observed.
type Priors struct {
	MissRate    float64 `yaml:"miss_rate"`
	ReactionMs  float64 `yaml:"reaction_ms"`
	TimeoutRate float64 `yaml:"timeout_rate"`
	ErrorRate   float64 `yaml:"error_rate"`
	Combo       float64 `yaml:"combo"`
	LowHP       float64 `yaml:"low_hp"`
	HP          float64 `yaml:"hp"`
}

// Predictor model kinds.
const (
	ModelLogistic = "logistic"
	ModelMLP      = "mlp"
)

// PredictorConfig defines the online model and its SGD discipline.
type PredictorConfig struct {
	Model        string    `yaml:"model"` // "logistic" or "mlp"
	LearningRate float64   `yaml:"learning_rate"`
	L2           float64   `yaml:"l2"`
	Weights      []float64 `yaml:"weights"` // Pretrained logistic weights, one per feature
	Bias         float64   `yaml:"bias"`
	Hidden       int       `yaml:"hidden"`      // MLP hidden width
	LogitClamp   float64   `yaml:"logit_clamp"` // |z| limit before the sigmoid
	Prior        float64   `yaml:"prior"`       // Score returned before any valid prediction
}

// Bound is an inclusive [Min, Max] interval for one multiplier.
type Bound struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Clamp restricts v to the bound. NaN pins to Min, so the result is
// always inside the bound.
func (b Bound) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return b.Min
	}
	return clampF(v, b.Min, b.Max)
}

// ClampOr is Clamp, except that a NaN v yields the clamped fallback.
func (b Bound) ClampOr(v, fallback float64) float64 {
	if math.IsNaN(v) {
		return b.Clamp(fallback)
	}
	return b.Clamp(v)
}

// Bounds holds the safety-net interval of every multiplier.
type Bounds struct {
	SpawnInterval Bound `yaml:"spawn_interval_mul"`
	Speed         Bound `yaml:"speed_mul"`
	HitWindow     Bound `yaml:"hit_window_mul"`
	Wrong         Bound `yaml:"wrong_add"`
	Junk          Bound `yaml:"junk_add"`
}

// Clamp restricts every multiplier to its bound.
func (b Bounds) Clamp(m core.Multipliers) core.Multipliers {
	return core.Multipliers{
		SpawnIntervalMul: b.SpawnInterval.Clamp(m.SpawnIntervalMul),
		SpeedMul:         b.Speed.Clamp(m.SpeedMul),
		HitWindowMul:     b.HitWindow.Clamp(m.HitWindowMul),
		WrongAdd:         b.Wrong.Clamp(m.WrongAdd),
		JunkAdd:          b.Junk.Clamp(m.JunkAdd),
	}
}

// ClampFrom clamps next like Clamp, but a NaN field keeps its value
// from prev.
func (b Bounds) ClampFrom(prev, next core.Multipliers) core.Multipliers {
	return core.Multipliers{
		SpawnIntervalMul: b.SpawnInterval.ClampOr(next.SpawnIntervalMul, prev.SpawnIntervalMul),
		SpeedMul:         b.Speed.ClampOr(next.SpeedMul, prev.SpeedMul),
		HitWindowMul:     b.HitWindow.ClampOr(next.HitWindowMul, prev.HitWindowMul),
		WrongAdd:         b.Wrong.ClampOr(next.WrongAdd, prev.WrongAdd),
		JunkAdd:          b.Junk.ClampOr(next.JunkAdd, prev.JunkAdd),
	}
}

// Contains reports whether every multiplier lies inside its bound.
func (b Bounds) Contains(m core.Multipliers) bool {
	return b.Clamp(m) == m
}

// DirectorConfig defines the control loop.
type DirectorConfig struct {
	Smoothing     float64            `yaml:"smoothing"`    // Weight of the previous emaRisk
	InitialRisk   float64            `yaml:"initial_risk"` // emaRisk at session start
	Thresholds    []float64          `yaml:"thresholds"`   // Ascending entry thresholds for levels 1..3
	Hysteresis    float64            `yaml:"hysteresis"`   // Margin required to drop a level
	MinIntervalMs uint64             `yaml:"min_interval_ms"`
	WarmupEvents  int                `yaml:"warmup_events"`
	FeverHold     bool               `yaml:"fever_hold"` // Never tighten while fever is on
	Levels        []core.Multipliers `yaml:"levels"`     // Delta applied per adjustment, indexed by level
	Bounds        Bounds             `yaml:"bounds"`
}

// LevelCount returns the number of discrete risk levels.
func (d DirectorConfig) LevelCount() int {
	return len(d.Thresholds) + 1
}

// CoachConfig defines tip cooldowns and rule thresholds.
type CoachConfig struct {
	GlobalGapMs    uint64  `yaml:"global_gap_ms"`   // Minimum gap between any two tips
	KeyCooldownMs  uint64  `yaml:"key_cooldown_ms"` // Minimum gap between tips with the same reason
	BossRisk       float64 `yaml:"boss_risk"`
	LowHP          float64 `yaml:"low_hp"`
	HighRisk       float64 `yaml:"high_risk"`
	MissRate       float64 `yaml:"miss_rate"`
	MinAttempts    int     `yaml:"min_attempts"`
	SlowReactionMs float64 `yaml:"slow_reaction_ms"`
	TimeoutRate    float64 `yaml:"timeout_rate"`
	StreakCombo    float64 `yaml:"streak_combo"`
	StreakMaxRisk  float64 `yaml:"streak_max_risk"`
}

// ModePolicy holds per-mode switches.
type ModePolicy struct {
	Coach bool `yaml:"coach"` // Whether tips are emitted in this mode
}

// ModesConfig holds the policy of every session mode.
type ModesConfig struct {
	Play     ModePolicy `yaml:"play"`
	Research ModePolicy `yaml:"research"`
	Practice ModePolicy `yaml:"practice"`
}

// For returns the policy of the given mode.
func (m ModesConfig) For(mode core.Mode) ModePolicy {
	switch mode {
	case core.ModeResearch:
		return m.Research
	case core.ModePractice:
		return m.Practice
	default:
		return m.Play
	}
}
