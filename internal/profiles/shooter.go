package profiles

import (
	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/features"
	"github.com/vovakirdan/arcade-pacer/internal/registry"
)

// Shooter is a gallery shooter with many decoys and frequent bosses.
type Shooter struct{}

func (Shooter) ID() string { return "shooter" }
func (Shooter) Title() string { return "Shooter" }
func (Shooter) Description() string { return "Shooting gallery with friendly decoys and frequent bosses" }

// Tune weighs decoy hits more and lets the coach warn earlier in boss fights.
func (Shooter) Tune(cfg *config.Config) {
	if len(cfg.Predictor.Weights) == features.Dim {
		w := append([]float64(nil), cfg.Predictor.Weights...)
		w[features.ErrorRate] = 1.6
		cfg.Predictor.Weights = w
	}
	cfg.Features.ReactionMs = config.Range{Lo: 300, Hi: 1500}
	cfg.Features.Priors.ReactionMs = 900
	cfg.Coach.BossRisk = 0.5
	cfg.Coach.SlowReactionMs = 1150
}

func (Shooter) Arena() registry.Arena {
	return registry.Arena{
		SpawnIntervalMs: 1100,
		TargetLifeMs:    2000,
		HitWindowMs:     250,
		WrongShare:      0.20,
		JunkShare:       0.20,
		BossEveryMs:     30000,
		BossLengthMs:    10000,
		MissDamage:      0.04,
		HitHeal:         0.005,
	}
}

func init() {
	registry.Register("shooter", func() registry.Profile { return Shooter{} })
}
