package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/core"
	"github.com/vovakirdan/arcade-pacer/internal/registry"
	"github.com/vovakirdan/arcade-pacer/internal/session"
	"github.com/vovakirdan/arcade-pacer/internal/sim"
)

// Player flags shared by simulate, watch and serve.
var (
	flagPlayerPath string
	flagSkill      float64
	flagReactionMs float64
	flagTickMs     uint64
)

func addPlayerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPlayerPath, "player", "", "Path to a synthetic player YAML")
	cmd.Flags().Float64Var(&flagSkill, "skill", 0, "Override the player's base hit probability (0..1)")
	cmd.Flags().Float64Var(&flagReactionMs, "reaction-ms", 0, "Override the player's mean reaction time")
	cmd.Flags().Uint64Var(&flagTickMs, "tick-ms", 500, "Engine tick period in simulated milliseconds")
}

// playerConfig resolves the synthetic player from --player and overrides.
func playerConfig(cmd *cobra.Command) (sim.PlayerConfig, error) {
	cfg := sim.DefaultPlayer()
	if flagPlayerPath != "" {
		var err error
		if cfg, err = sim.LoadPlayer(flagPlayerPath); err != nil {
			return cfg, err
		}
	}
	if cmd.Flags().Changed("skill") {
		cfg.Skill = flagSkill
	}
	if cmd.Flags().Changed("reaction-ms") {
		cfg.ReactionMs = flagReactionMs
	}
	return cfg, cfg.Validate()
}

// engine holds the resolved settings sessions are started from.
type engine struct {
	cfg     config.Config
	profile registry.Profile
	mode    core.Mode
}

// loadEngine resolves the profile, mode and config from the global flags.
func loadEngine() (engine, error) {
	var e engine

	mode, err := core.ParseMode(flagMode)
	if err != nil {
		return e, err
	}
	profile, err := registry.Create(flagProfile)
	if err != nil {
		return e, fmt.Errorf("%w (run 'pacer profiles' to list them)", err)
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return e, err
	}

	profile.Tune(&cfg)
	if !config.ApplyPreset(&cfg, config.DifficultyPreset(flagDifficulty)) {
		return e, fmt.Errorf("unknown difficulty %q (want easy, normal or hard)", flagDifficulty)
	}
	if err := cfg.Validate(); err != nil {
		return e, fmt.Errorf("profile %s: %w", profile.ID(), err)
	}

	logger.Debug("engine configured",
		"profile", profile.ID(),
		"mode", mode,
		"model", cfg.Predictor.Model,
	)
	return engine{cfg: cfg, profile: profile, mode: mode}, nil
}

// newSession starts a session with the given seed.
func (e engine) newSession(seed uint64, tickMs uint64) (*session.Session, error) {
	rate := 0
	if tickMs > 0 {
		rate = int(1000 / tickMs)
	}
	return session.New(e.cfg, core.SessionConfig{
		Mode:     e.mode,
		Seed:     seed,
		Profile:  e.profile.ID(),
		TickRate: rate,
	}, session.WithLogger(logger))
}

// newRunner attaches a synthetic player, seeded from the session, to sess.
func (e engine) newRunner(sess *session.Session, player sim.PlayerConfig, tickMs uint64, sink sim.Sink) (*sim.Runner, error) {
	p, err := sim.NewPlayer(player, core.NewRNG(sess.Seed(), "sim"))
	if err != nil {
		return nil, err
	}
	return sim.NewRunner(sess, e.profile.Arena(), p, tickMs, sink)
}

// source returns a dashboard source that starts a new session and player
// on every call. A zero seed gives each call its own clock-derived seed.
func (e engine) source(seed uint64, player sim.PlayerConfig, tickMs uint64) func() (*session.Session, *sim.Runner, error) {
	return func() (*session.Session, *sim.Runner, error) {
		sess, err := e.newSession(seed, tickMs)
		if err != nil {
			return nil, nil, err
		}
		runner, err := e.newRunner(sess, player, tickMs, nil)
		if err != nil {
			return nil, nil, err
		}
		return sess, runner, nil
	}
}
