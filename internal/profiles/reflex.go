// Package profiles registers the built-in game profiles.
// Import it for side effects: _ "github.com/vovakirdan/arcade-pacer/internal/profiles"
package profiles

import (
	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/registry"
)

// Reflex is a whack-a-target game: targets pop up, the player hits them
// before they expire and avoids junk.
type Reflex struct{}

func (Reflex) ID() string { return "reflex" }
func (Reflex) Title() string { return "Reflex" }
func (Reflex) Description() string { return "Pop-up targets with junk decoys and boss waves" }

// Tune keeps the engine defaults, which are calibrated for this game.
func (Reflex) Tune(cfg *config.Config) {}

func (Reflex) Arena() registry.Arena {
	return registry.Arena{
		SpawnIntervalMs: 900,
		TargetLifeMs:    1400,
		HitWindowMs:     180,
		WrongShare:      0.10,
		JunkShare:       0.15,
		BossEveryMs:     45000,
		BossLengthMs:    8000,
		FeverCombo:      15,
		FeverLengthMs:   6000,
		MissDamage:      0.05,
		HitHeal:         0.01,
	}
}

func init() {
	registry.Register("reflex", func() registry.Profile { return Reflex{} })
}
