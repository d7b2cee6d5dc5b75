package core

import (
	"math"
	"strconv"
)

// Multipliers are the gameplay parameters the director hands to the
// engine's spawn and pacing subsystem.
type Multipliers struct {
	SpawnIntervalMul float64 `yaml:"spawn_interval_mul"` // >1 spawns targets less often
	SpeedMul         float64 `yaml:"speed_mul"`          // <1 slows targets down
	HitWindowMul     float64 `yaml:"hit_window_mul"`     // >1 widens the timing window
	WrongAdd         float64 `yaml:"wrong_add"`          // Shift of wrong-target share, <0 is more forgiving
	JunkAdd          float64 `yaml:"junk_add"`           // Shift of junk-target share, <0 is more forgiving
}

// IdentityMultipliers leaves every gameplay parameter untouched.
func IdentityMultipliers() Multipliers {
	return Multipliers{
		SpawnIntervalMul: 1.0,
		SpeedMul:         1.0,
		HitWindowMul:     1.0,
	}
}

// Add returns m shifted component-wise by d.
func (m Multipliers) Add(d Multipliers) Multipliers {
	return Multipliers{
		SpawnIntervalMul: m.SpawnIntervalMul + d.SpawnIntervalMul,
		SpeedMul:         m.SpeedMul + d.SpeedMul,
		HitWindowMul:     m.HitWindowMul + d.HitWindowMul,
		WrongAdd:         m.WrongAdd + d.WrongAdd,
		JunkAdd:          m.JunkAdd + d.JunkAdd,
	}
}

// Finite reports whether every field is a finite number.
func (m Multipliers) Finite() bool {
	for _, v := range [...]float64{m.SpawnIntervalMul, m.SpeedMul, m.HitWindowMul, m.WrongAdd, m.JunkAdd} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// FeatureVector is the fixed-length, normalized input of the predictor.
// Length and order never change within a session.
type FeatureVector []float64

// Clone returns a copy that does not alias v.
func (v FeatureVector) Clone() FeatureVector {
	if v == nil {
		return nil
	}
	out := make(FeatureVector, len(v))
	copy(out, v)
	return out
}

// PredictorState is a read-only snapshot of the predictor's parameters.
type PredictorState struct {
	Weights      []float64
	Bias         float64
	LearningRate float64
	L2           float64
	SamplesSeen  uint64
}

// DirectorState is a read-only snapshot of the director's control loop.
type DirectorState struct {
	Multipliers    Multipliers
	EMARisk        float64
	LastAdjustAtMs uint64
	LastLevel      uint8
}

// ReasonCode explains why a coach message was emitted.
type ReasonCode string

// CoachMessage is a single explainable tip for the UI layer.
type CoachMessage struct {
	Message    string     `yaml:"message"`
	ReasonCode ReasonCode `yaml:"reason"`
	AtMs       uint64     `yaml:"at_ms"`
}

// CoachState is the coach's anti-repetition memory.
type CoachState struct {
	LastKey  ReasonCode
	LastAtMs uint64
}

// TelemetryRow is a flat record for the logging/export collaborator.
// Column order is fixed, see TelemetryColumns.
type TelemetryRow struct {
	AtMs        uint64
	Features    FeatureVector
	Score       float64
	Level       uint8
	Multipliers Multipliers
}

// TelemetryColumns returns the header for TelemetryRow.Values given the
// feature names in vector order.
func TelemetryColumns(featureNames []string) []string {
	cols := make([]string, 0, len(featureNames)+8)
	cols = append(cols, "at_ms")
	cols = append(cols, featureNames...)
	return append(cols,
		"score",
		"level",
		"spawn_interval_mul",
		"speed_mul",
		"hit_window_mul",
		"wrong_add",
		"junk_add",
	)
}

// Values formats the row in TelemetryColumns order. Floats use the shortest
// round-trip representation so identical rows produce identical bytes.
func (r TelemetryRow) Values() []string {
	out := make([]string, 0, len(r.Features)+8)
	out = append(out, strconv.FormatUint(r.AtMs, 10))
	for _, f := range r.Features {
		out = append(out, formatFloat(f))
	}
	m := r.Multipliers
	return append(out,
		formatFloat(r.Score),
		strconv.Itoa(int(r.Level)),
		formatFloat(m.SpawnIntervalMul),
		formatFloat(m.SpeedMul),
		formatFloat(m.HitWindowMul),
		formatFloat(m.WrongAdd),
		formatFloat(m.JunkAdd),
	)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
