package coach

import (
	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/core"
	"github.com/vovakirdan/arcade-pacer/internal/features"
)

// Reason codes, one per rule.
const (
	ReasonBossDanger   core.ReasonCode = "boss_danger"
	ReasonLowHP        core.ReasonCode = "low_hp"
	ReasonHighRisk     core.ReasonCode = "high_risk"
	ReasonMissRate     core.ReasonCode = "miss_rate"
	ReasonSlowReaction core.ReasonCode = "slow_reaction"
	ReasonTimeouts     core.ReasonCode = "timeouts"
	ReasonStreak       core.ReasonCode = "streak"
	ReasonFever        core.ReasonCode = "fever"
)

// Input is everything a rule predicate may look at.
type Input struct {
	Score float64
	Stats features.Stats
	Ctx   core.Context
}

// Rule is one candidate tip. The first rule whose predicate holds wins.
type Rule struct {
	Reason   core.ReasonCode
	When     func(in Input) bool
	Messages []string // Alternative phrasings, picked by the session RNG
}

// DefaultRules returns the rule list in priority order: danger outranks
// general performance hints, which outrank encouragement.
func DefaultRules(cfg config.CoachConfig) []Rule {
	enough := func(s features.Stats) bool {
		return s.Events >= uint64(cfg.MinAttempts)
	}
	return []Rule{
		{
			Reason: ReasonBossDanger,
			When: func(in Input) bool {
				return in.Ctx.BossActive && in.Score >= cfg.BossRisk
			},
			Messages: []string{
				"Boss incoming. Hold back and wait for the weak point.",
				"Stay calm against the boss, precision beats speed.",
				"Boss phase: only strike the glowing core.",
			},
		},
		{
			Reason: ReasonLowHP,
			When: func(in Input) bool {
				return in.Stats.HP < cfg.LowHP
			},
			Messages: []string{
				"Health is low. Play it safe for a moment.",
				"Careful, one more slip could end the run.",
				"Low HP: skip risky targets until you recover.",
			},
		},
		{
			Reason: ReasonHighRisk,
			When: func(in Input) bool {
				return in.Score >= cfg.HighRisk
			},
			Messages: []string{
				"Take a breath, the pace will ease up.",
				"Focus on one target at a time.",
				"Slow down and reset your rhythm.",
			},
		},
		{
			Reason: ReasonMissRate,
			When: func(in Input) bool {
				return in.Stats.WindowSize >= cfg.MinAttempts && in.Stats.WindowMissRate >= cfg.MissRate
			},
			Messages: []string{
				"Lots of misses lately. Aim for the center of the target.",
				"Wait for the target to settle before you strike.",
				"Accuracy first, speed will follow.",
			},
		},
		{
			Reason: ReasonSlowReaction,
			When: func(in Input) bool {
				return enough(in.Stats) && in.Stats.ReactionMs >= cfg.SlowReactionMs
			},
			Messages: []string{
				"Keep your eyes on the spawn area to react sooner.",
				"Try to anticipate where the next target appears.",
			},
		},
		{
			Reason: ReasonTimeouts,
			When: func(in Input) bool {
				return enough(in.Stats) && in.Stats.TimeoutRate >= cfg.TimeoutRate
			},
			Messages: []string{
				"Targets are slipping away. Commit to a shot.",
				"Don't freeze, any attempt beats a timeout.",
			},
		},
		{
			Reason: ReasonStreak,
			When: func(in Input) bool {
				return in.Stats.Combo >= cfg.StreakCombo && in.Score <= cfg.StreakMaxRisk
			},
			Messages: []string{
				"Great streak, keep it going!",
				"You're in the zone.",
				"Clean run so far, nice work.",
			},
		},
		{
			Reason: ReasonFever,
			When: func(in Input) bool {
				return in.Ctx.FeverOn || in.Stats.FeverOn
			},
			Messages: []string{
				"Fever time! Every hit counts double.",
				"Fever is on, go for it.",
			},
		},
	}
}
