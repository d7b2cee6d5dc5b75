package profiles

import (
	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/registry"
)

// Rhythm is a beat-matching game with tight timing and no bosses.
type Rhythm struct{}

func (Rhythm) ID() string { return "rhythm" }
func (Rhythm) Title() string { return "Rhythm" }
func (Rhythm) Description() string { return "Beat lanes with tight hit windows and long fever streaks" }

// Tune shifts the reaction scale down and slows the director, since
// pacing changes mid-song are more noticeable.
func (Rhythm) Tune(cfg *config.Config) {
	cfg.Features.ReactionMs = config.Range{Lo: 150, Hi: 700}
	cfg.Features.Priors.ReactionMs = 425
	cfg.Director.Smoothing = 0.75
	cfg.Director.MinIntervalMs = 1500
	cfg.Coach.SlowReactionMs = 550
	cfg.Coach.StreakCombo = 20
}

func (Rhythm) Arena() registry.Arena {
	return registry.Arena{
		SpawnIntervalMs: 600,
		TargetLifeMs:    900,
		HitWindowMs:     120,
		WrongShare:      0.08,
		JunkShare:       0.02,
		FeverCombo:      25,
		FeverLengthMs:   8000,
		MissDamage:      0.03,
		HitHeal:         0.01,
	}
}

func init() {
	registry.Register("rhythm", func() registry.Profile { return Rhythm{} })
}
