package config

import "math"

// DifficultyPreset represents a named starting difficulty.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// InitialRiskForPreset returns the director's starting emaRisk for a preset.
// A higher starting risk makes the director ease off sooner.
func InitialRiskForPreset(preset DifficultyPreset) (float64, bool) {
	switch preset {
	case DifficultyEasy:
		return 0.55, true
	case DifficultyNormal:
		return 0.40, true
	case DifficultyHard:
		return 0.25, true
	default:
		return 0, false
	}
}

// ApplyPreset modifies the config based on a difficulty preset.
// An empty preset leaves the config unchanged.
func ApplyPreset(cfg *Config, preset DifficultyPreset) bool {
	if preset == "" {
		return true
	}
	risk, ok := InitialRiskForPreset(preset)
	if !ok {
		return false
	}
	cfg.Director.InitialRisk = clampF(risk, 0.0, 1.0)
	return true
}

// clampF restricts a float64 to [min, max].
func clampF(val, min, max float64) float64 {
	return math.Max(min, math.Min(max, val))
}
