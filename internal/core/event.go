package core

import "fmt"

// EventKind is the outcome of a single gameplay interaction.
type EventKind uint8

const (
	EventHit     EventKind = iota // Target was hit
	EventMiss                     // Player acted and missed
	EventTimeout                  // Target expired without any action
)

// String returns a human-readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventHit:
		return "hit"
	case EventMiss:
		return "miss"
	case EventTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler for YAML scripts.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for YAML scripts.
func (k *EventKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "hit":
		*k = EventHit
	case "miss":
		*k = EventMiss
	case "timeout":
		*k = EventTimeout
	default:
		return fmt.Errorf("core: unknown event kind %q", string(text))
	}
	return nil
}

// IsFailure reports whether the outcome counts against the player.
func (k EventKind) IsFailure() bool {
	return k == EventMiss || k == EventTimeout
}

// TargetKind identifies what the player interacted with.
type TargetKind uint8

const (
	TargetGood  TargetKind = iota // Regular target worth points
	TargetJunk                    // Decoy that should be avoided
	TargetWrong                   // Target of the wrong colour/lane
	TargetBoss                    // Boss weak point
	TargetPower                   // Power-up pickup
)

// String returns a human-readable name for the target kind.
func (t TargetKind) String() string {
	switch t {
	case TargetGood:
		return "good"
	case TargetJunk:
		return "junk"
	case TargetWrong:
		return "wrong"
	case TargetBoss:
		return "boss"
	case TargetPower:
		return "power"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t TargetKind) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TargetKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "good", "":
		*t = TargetGood
	case "junk":
		*t = TargetJunk
	case "wrong":
		*t = TargetWrong
	case "boss":
		*t = TargetBoss
	case "power":
		*t = TargetPower
	default:
		return fmt.Errorf("core: unknown target kind %q", string(text))
	}
	return nil
}

// IsDecoy reports whether hitting this target is an error.
func (t TargetKind) IsDecoy() bool {
	return t == TargetJunk || t == TargetWrong
}

// GameplayEvent is one discrete outcome reported by the game engine.
// Events are immutable and consumed exactly once, in arrival order.
type GameplayEvent struct {
	Kind EventKind `yaml:"kind"`

	// ReactionMs is the time from target spawn to player action.
	// Zero means the engine did not measure it (e.g. timeouts).
	ReactionMs float64 `yaml:"reaction_ms,omitempty"`

	Target     TargetKind `yaml:"target,omitempty"`
	ComboAfter uint32     `yaml:"combo_after"`
	HP         float64    `yaml:"hp"` // 0.0 = dead, 1.0 = full
	Phase      uint8      `yaml:"phase,omitempty"`
	FeverOn    bool       `yaml:"fever,omitempty"`
	AtMs       uint64     `yaml:"at_ms"`
}

// IsError reports whether the event should count as a player error:
// any failure, or a successful hit on a decoy.
func (e GameplayEvent) IsError() bool {
	return e.Kind.IsFailure() || (e.Kind == EventHit && e.Target.IsDecoy())
}

// RawStats are the non-normalized counters the engine already tracks.
// They accompany every periodic tick.
type RawStats struct {
	Hits      uint32  `yaml:"hits"`
	Misses    uint32  `yaml:"misses"`
	Timeouts  uint32  `yaml:"timeouts"`
	Combo     uint32  `yaml:"combo"`
	HP        float64 `yaml:"hp"`
	ElapsedMs uint64  `yaml:"elapsed_ms"`
	FeverOn   bool    `yaml:"fever"`
	Phase     uint8   `yaml:"phase"`
}

// Attempts returns the number of resolved targets.
func (s RawStats) Attempts() uint32 {
	return s.Hits + s.Misses + s.Timeouts
}

// Context carries game-state flags that only the coach cares about.
type Context struct {
	BossActive bool  `yaml:"boss"`
	FeverOn    bool  `yaml:"fever"`
	Phase      uint8 `yaml:"phase"`
}
