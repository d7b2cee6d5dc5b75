package config

import (
	_ "embed"

	"github.com/vovakirdan/arcade-pacer/internal/core"
)

//go:embed defaults/engine.yaml
var defaultEngineYAML []byte

// DefaultConfig returns the hard-coded engine configuration.
// It mirrors defaults/engine.yaml and is used when the embed cannot be parsed.
func DefaultConfig() Config {
	return Config{
		Features: FeaturesConfig{
			Alpha:          0.20,
			Window:         16,
			ReactionMs:     Range{Lo: 250, Hi: 1200},
			Combo:          Range{Lo: 0, Hi: 30},
			TrendSpanMs:    300,
			LowHPThreshold: 0.30,
			Priors: Priors{
				MissRate:    0.5,
				ReactionMs:  725, // Midpoint of the reaction range
				TimeoutRate: 0.1,
				ErrorRate:   0.0,
				Combo:       0.0,
				LowHP:       0.0,
				HP:          1.0,
			},
		},
		Predictor: PredictorConfig{
			Model:        ModelLogistic,
			LearningRate: 0.05,
			L2:           0.001,
			// miss_rate, reaction, reaction_trend, timeout_rate, error_rate, combo, low_hp, hp_deficit
			Weights:    []float64{2.8, 1.6, 0.8, 1.2, 1.0, -2.2, 1.0, 0.8},
			Bias:       -2.2,
			Hidden:     10,
			LogitClamp: 18,
			Prior:      0.5,
		},
		Director: DirectorConfig{
			Smoothing:     0.72,
			InitialRisk:   0.40,
			Thresholds:    []float64{0.42, 0.62, 0.82},
			Hysteresis:    0.05,
			MinIntervalMs: 1000,
			WarmupEvents:  3,
			FeverHold:     true,
			Levels: []core.Multipliers{
				{SpawnIntervalMul: -0.02, SpeedMul: 0.02, HitWindowMul: -0.01, WrongAdd: 0.01, JunkAdd: 0.01},
				{},
				{SpawnIntervalMul: 0.04, SpeedMul: -0.03, HitWindowMul: 0.02, WrongAdd: -0.02, JunkAdd: -0.02},
				{SpawnIntervalMul: 0.08, SpeedMul: -0.06, HitWindowMul: 0.04, WrongAdd: -0.04, JunkAdd: -0.04},
			},
			Bounds: Bounds{
				SpawnInterval: Bound{Min: 0.80, Max: 1.45},
				Speed:         Bound{Min: 0.75, Max: 1.20},
				HitWindow:     Bound{Min: 0.90, Max: 1.35},
				Wrong:         Bound{Min: -0.15, Max: 0.10},
				Junk:          Bound{Min: -0.15, Max: 0.10},
			},
		},
		Coach: CoachConfig{
			GlobalGapMs:    4000,
			KeyCooldownMs:  12000,
			BossRisk:       0.60,
			LowHP:          0.30,
			HighRisk:       0.75,
			MissRate:       0.35,
			MinAttempts:    6,
			SlowReactionMs: 900,
			TimeoutRate:    0.25,
			StreakCombo:    10,
			StreakMaxRisk:  0.30,
		},
		Modes: ModesConfig{
			Play:     ModePolicy{Coach: true},
			Research: ModePolicy{Coach: true},
			Practice: ModePolicy{Coach: true},
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultEngineYAML
}
