package core

import (
	"fmt"
	"time"
)

// Mode selects how much the engine is allowed to adapt during a session.
type Mode string

const (
	// ModePlay adapts live: the predictor learns and the director adjusts pacing.
	ModePlay Mode = "play"

	// ModeResearch freezes all adaptivity so every participant of an
	// experiment plays under identical parameters.
	ModeResearch Mode = "research"

	// ModePractice is frozen like research but meant for drills.
	ModePractice Mode = "practice"
)

// ParseMode converts a string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePlay, ModeResearch, ModePractice:
		return Mode(s), nil
	case "":
		return ModePlay, nil
	default:
		return "", fmt.Errorf("core: unknown mode %q (want play, research or practice)", s)
	}
}

// Adaptive reports whether components may learn and adjust in this mode.
func (m Mode) Adaptive() bool {
	return m == ModePlay
}

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}

// SessionConfig is fixed at session start and never changes afterwards.
type SessionConfig struct {
	Mode     Mode
	Seed     uint64
	Profile  string // Game profile ID (see registry)
	TickRate int    // Engine ticks per second (1-5 Hz is typical)
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Mode:     ModePlay,
		Seed:     0, // 0 means derive from the clock in play mode
		Profile:  "reflex",
		TickRate: 2,
	}
}

// ResolveSeed returns the seed a session should actually use.
// A zero seed in play mode is replaced with a clock-derived one; frozen
// modes keep the seed verbatim so runs stay reproducible.
func ResolveSeed(mode Mode, seed uint64, now time.Time) uint64 {
	if seed == 0 && mode.Adaptive() {
		return uint64(now.UnixNano())
	}
	return seed
}
