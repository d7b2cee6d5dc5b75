// Package sim drives sessions without a real game: a seeded synthetic
// player that reacts to the current multipliers, and scripted scenarios
// loaded from YAML.
package sim

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/arcade-pacer/internal/core"
	"github.com/vovakirdan/arcade-pacer/internal/registry"
)

// PlayerConfig describes a synthetic player.
type PlayerConfig struct {
	Skill          float64 `yaml:"skill"`           // Base hit probability, 0..1
	ReactionMs     float64 `yaml:"reaction_ms"`     // Mean reaction time when fresh
	ReactionJitter float64 `yaml:"reaction_jitter"` // Standard deviation of reaction time
	FatiguePerMin  float64 `yaml:"fatigue_per_min"` // Relative slowdown per minute played
	DecoyConfusion float64 `yaml:"decoy_confusion"` // Chance of hitting a decoy
}

// DefaultPlayer is an average player.
func DefaultPlayer() PlayerConfig {
	return PlayerConfig{
		Skill:          0.75,
		ReactionMs:     620,
		ReactionJitter: 140,
		FatiguePerMin:  0.02,
		DecoyConfusion: 0.25,
	}
}

// Validate checks the player's parameters.
func (c PlayerConfig) Validate() error {
	if c.Skill < 0 || c.Skill > 1 || c.DecoyConfusion < 0 || c.DecoyConfusion > 1 {
		return fmt.Errorf("sim: skill and decoy_confusion must be in [0,1]")
	}
	if !(c.ReactionMs > 0) || c.ReactionJitter < 0 || c.FatiguePerMin < 0 {
		return fmt.Errorf("sim: reaction_ms must be positive, jitter and fatigue non-negative")
	}
	return nil
}

// LoadPlayer reads a player from a YAML file. Fields it omits keep the
// DefaultPlayer values.
func LoadPlayer(path string) (PlayerConfig, error) {
	cfg := DefaultPlayer()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("sim: read player %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("sim: parse player %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Player turns targets into outcomes. All randomness comes from its rng.
type Player struct {
	cfg PlayerConfig
	rng *rand.Rand
}

// NewPlayer creates a player drawing from rng.
func NewPlayer(cfg PlayerConfig, rng *rand.Rand) (*Player, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("sim: player needs a seeded rng")
	}
	return &Player{cfg: cfg, rng: rng}, nil
}

// outcome is the player's response to one target.
type outcome struct {
	target  core.TargetKind
	kind    core.EventKind
	afterMs float64 // Time from spawn to resolution
	rt      float64 // Measured reaction, 0 when unmeasured
	silent  bool    // Decoy correctly ignored, no event
}

// face resolves one target spawned elapsedMs into the session.
func (p *Player) face(a registry.Arena, m core.Multipliers, boss bool, elapsedMs uint64) outcome {
	life := a.TargetLifeMs / math.Max(m.SpeedMul, 0.1)

	target := core.TargetGood
	roll := p.rng.Float64()
	wrong := clampShare(a.WrongShare + m.WrongAdd)
	junk := clampShare(a.JunkShare + m.JunkAdd)
	switch {
	case boss:
		target = core.TargetBoss
	case roll < wrong:
		target = core.TargetWrong
	case roll < wrong+junk:
		target = core.TargetJunk
	}

	minutes := float64(elapsedMs) / 60000
	rt := p.cfg.ReactionMs*(1+p.cfg.FatiguePerMin*minutes) + p.rng.NormFloat64()*p.cfg.ReactionJitter
	rt = math.Max(80, rt)

	if target.IsDecoy() {
		if p.rng.Float64() < p.cfg.DecoyConfusion && rt < life {
			return outcome{target: target, kind: core.EventHit, afterMs: rt, rt: rt}
		}
		return outcome{target: target, afterMs: life, silent: true}
	}
	if rt > life {
		return outcome{target: target, kind: core.EventTimeout, afterMs: life}
	}

	pHit := p.cfg.Skill * m.HitWindowMul / math.Max(m.SpeedMul, 0.1)
	if boss {
		pHit *= 0.8
	}
	pHit = math.Max(0.02, math.Min(0.98, pHit))
	if p.rng.Float64() < pHit {
		return outcome{target: target, kind: core.EventHit, afterMs: rt, rt: rt}
	}
	return outcome{target: target, kind: core.EventMiss, afterMs: rt, rt: rt}
}

func clampShare(v float64) float64 {
	return math.Max(0, math.Min(0.45, v))
}
