// Package coach picks short, explainable tips for the player from the
// current risk score and rolling statistics.
package coach

import (
	"fmt"
	"math/rand"

	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/core"
	"github.com/vovakirdan/arcade-pacer/internal/features"
)

// Emitter evaluates the rules and enforces the cooldowns. It owns its
// CoachState.
type Emitter struct {
	cfg   config.CoachConfig
	rules []Rule
	rng   *rand.Rand

	state   core.CoachState
	emitted bool
	lastBy  map[core.ReasonCode]uint64
}

// NewEmitter creates an emitter with the default rule list.
func NewEmitter(cfg config.CoachConfig, rng *rand.Rand) (*Emitter, error) {
	return NewEmitterWithRules(cfg, DefaultRules(cfg), rng)
}

// NewEmitterWithRules creates an emitter with a custom rule list, evaluated
// in slice order.
func NewEmitterWithRules(cfg config.CoachConfig, rules []Rule, rng *rand.Rand) (*Emitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("coach: %w: emitter needs a seeded rng", core.ErrConfiguration)
	}
	for i, r := range rules {
		if r.Reason == "" || r.When == nil || len(r.Messages) == 0 {
			return nil, fmt.Errorf("coach: %w: rule %d needs a reason, a predicate and a message",
				core.ErrConfiguration, i)
		}
	}
	return &Emitter{
		cfg:    cfg,
		rules:  rules,
		rng:    rng,
		lastBy: make(map[core.ReasonCode]uint64),
	}, nil
}

// MaybeTip returns a tip when a rule fires and neither cooldown applies.
// If the highest-priority rule is cooling down nothing is emitted, even if
// a lower rule would match.
func (e *Emitter) MaybeTip(nowMs uint64, score float64, stats features.Stats, ctx core.Context) (core.CoachMessage, bool) {
	in := Input{Score: score, Stats: stats, Ctx: ctx}

	var rule *Rule
	for i := range e.rules {
		if e.rules[i].When(in) {
			rule = &e.rules[i]
			break
		}
	}
	if rule == nil {
		return core.CoachMessage{}, false
	}

	if e.emitted && !elapsed(nowMs, e.state.LastAtMs, e.cfg.GlobalGapMs) {
		return core.CoachMessage{}, false
	}
	if last, ok := e.lastBy[rule.Reason]; ok && !elapsed(nowMs, last, e.cfg.KeyCooldownMs) {
		return core.CoachMessage{}, false
	}

	msg := core.CoachMessage{
		Message:    rule.Messages[e.rng.Intn(len(rule.Messages))],
		ReasonCode: rule.Reason,
		AtMs:       nowMs,
	}
	e.emitted = true
	e.state = core.CoachState{LastKey: rule.Reason, LastAtMs: nowMs}
	e.lastBy[rule.Reason] = nowMs
	return msg, true
}

// State returns the anti-repetition memory.
func (e *Emitter) State() core.CoachState {
	return e.state
}

// Reasons lists the rule reason codes in priority order.
func (e *Emitter) Reasons() []core.ReasonCode {
	out := make([]core.ReasonCode, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.Reason
	}
	return out
}

// elapsed reports whether at least gap ms passed since last. A clock that
// went backwards counts as not elapsed.
func elapsed(now, last, gap uint64) bool {
	return now >= last && now-last >= gap
}
