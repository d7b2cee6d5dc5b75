package session

import "github.com/vovakirdan/arcade-pacer/internal/core"

// Event is published on the session bus. The set of events is closed.
type Event interface {
	sessionEvent()
}

// MultipliersEvent is published on every tick with the current multipliers.
type MultipliersEvent struct {
	AtMs        uint64
	Multipliers core.Multipliers
	Level       uint8
	Score       float64
	Changed     bool // Multipliers differ from the previous tick
}

func (MultipliersEvent) sessionEvent() {}

// TipEvent is published when the coach emits a message.
type TipEvent struct {
	Tip core.CoachMessage
}

func (TipEvent) sessionEvent() {}

// TelemetryEvent carries one flat telemetry row per tick.
type TelemetryEvent struct {
	Row core.TelemetryRow
}

func (TelemetryEvent) sessionEvent() {}

// AnomalyEvent carries a recovered runtime error.
type AnomalyEvent struct {
	Anomaly core.Anomaly
}

func (AnomalyEvent) sessionEvent() {}
