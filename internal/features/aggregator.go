// Package features turns raw gameplay events and ticks into the fixed-shape,
// normalized feature vector consumed by the predictor.
package features

import (
	"math"

	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/core"
)

// Feature indices. The order is part of the model contract and never
// changes within a session.
const (
	MissRate = iota
	Reaction
	ReactionTrend // symmetric, in [-1,1]
	TimeoutRate
	ErrorRate
	Combo
	LowHP
	HPDeficit

	// Dim is the length of every vector produced by the aggregator.
	Dim
)

var names = [Dim]string{
	MissRate:      "miss_rate",
	Reaction:      "reaction",
	ReactionTrend: "reaction_trend",
	TimeoutRate:   "timeout_rate",
	ErrorRate:     "error_rate",
	Combo:         "combo",
	LowHP:         "low_hp",
	HPDeficit:     "hp_deficit",
}

// Names returns the feature names in vector order.
func Names() []string {
	out := make([]string, Dim)
	copy(out, names[:])
	return out
}

// minTrendSamples is the number of reaction samples needed before the
// trend leaves its neutral value.
const minTrendSamples = 4

// Stats are the raw (non-normalized) rolling statistics of the session.
// The director and the coach read these alongside the predictor score.
type Stats struct {
	MissRate       float64 // EMA of failures (miss or timeout)
	TimeoutRate    float64 // EMA of timeouts
	ErrorRate      float64 // EMA of decoy hits
	ReactionMs     float64 // EMA of measured reaction times
	ReactionTrend  float64 // Windowed reaction drift in ms (positive = slowing down)
	Combo          float64 // EMA of combo length
	LowHPFraction  float64 // EMA over ticks of "HP below threshold"
	HP             float64 // Latest known HP
	WindowMissRate float64 // Failure share over the sliding window
	WindowSize     int     // Outcomes currently in the window
	Events         uint64  // Events observed this session
	FeverOn        bool
	Phase          uint8
	LastAtMs       uint64 // Timestamp of the latest event or tick
}

// Aggregator maintains the rolling statistics of one session.
// It never touches predictor or director state.
type Aggregator struct {
	cfg config.FeaturesConfig

	missRate    ema
	timeoutRate ema
	errorRate   ema
	reaction    ema
	combo       ema
	lowHP       ema

	reactions *window // recent measured reaction times
	outcomes  *window // recent outcomes, 1 = failure

	hp      float64
	events  uint64
	feverOn bool
	phase   uint8
	lastAt  uint64
}

// NewAggregator creates an aggregator. The config is validated here so a
// broken deployment fails before the session starts.
func NewAggregator(cfg config.FeaturesConfig) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := cfg.Priors
	return &Aggregator{
		cfg:         cfg,
		missRate:    newEMA(cfg.Alpha, p.MissRate),
		timeoutRate: newEMA(cfg.Alpha, p.TimeoutRate),
		errorRate:   newEMA(cfg.Alpha, p.ErrorRate),
		reaction:    newEMA(cfg.Alpha, p.ReactionMs),
		combo:       newEMA(cfg.Alpha, p.Combo),
		lowHP:       newEMA(cfg.Alpha, p.LowHP),
		reactions:   newWindow(cfg.Window),
		outcomes:    newWindow(cfg.Window),
		hp:          p.HP,
	}, nil
}

// OnEvent folds one gameplay event into the rolling statistics.
// Non-finite fields are skipped individually so one bad value cannot
// poison an average.
func (a *Aggregator) OnEvent(ev core.GameplayEvent) {
	a.events++
	a.lastAt = ev.AtMs
	a.feverOn = ev.FeverOn
	a.phase = ev.Phase

	a.missRate.observe(indicator(ev.Kind.IsFailure()))
	a.timeoutRate.observe(indicator(ev.Kind == core.EventTimeout))
	a.errorRate.observe(indicator(ev.Kind == core.EventHit && ev.Target.IsDecoy()))
	a.outcomes.push(indicator(ev.Kind.IsFailure()))
	a.combo.observe(float64(ev.ComboAfter))

	if ev.ReactionMs > 0 && isFinite(ev.ReactionMs) {
		a.reaction.observe(ev.ReactionMs)
		a.reactions.push(ev.ReactionMs)
	}
	if isFinite(ev.HP) {
		a.hp = clamp(ev.HP, 0, 1)
	}
}

// Tick folds the engine's periodic counters in and returns the current
// feature vector.
func (a *Aggregator) Tick(nowMs uint64, raw core.RawStats) core.FeatureVector {
	a.lastAt = nowMs
	a.feverOn = raw.FeverOn
	a.phase = raw.Phase
	if isFinite(raw.HP) {
		a.hp = clamp(raw.HP, 0, 1)
	}
	a.lowHP.observe(indicator(a.hp < a.cfg.LowHPThreshold))
	return a.Vector()
}

// Vector returns the normalized features without mutating any state.
func (a *Aggregator) Vector() core.FeatureVector {
	v := make(core.FeatureVector, Dim)
	v[MissRate] = clamp(a.missRate.value, 0, 1)
	v[Reaction] = normalize(a.reaction.value, a.cfg.ReactionMs)
	v[ReactionTrend] = clamp(a.trend()/a.cfg.TrendSpanMs, -1, 1)
	v[TimeoutRate] = clamp(a.timeoutRate.value, 0, 1)
	v[ErrorRate] = clamp(a.errorRate.value, 0, 1)
	v[Combo] = normalize(a.combo.value, a.cfg.Combo)
	v[LowHP] = clamp(a.lowHP.value, 0, 1)
	v[HPDeficit] = clamp(1-a.hp, 0, 1)
	return v
}

// Stats returns a copy of the raw rolling statistics.
func (a *Aggregator) Stats() Stats {
	return Stats{
		MissRate:       a.missRate.value,
		TimeoutRate:    a.timeoutRate.value,
		ErrorRate:      a.errorRate.value,
		ReactionMs:     a.reaction.value,
		ReactionTrend:  a.trend(),
		Combo:          a.combo.value,
		LowHPFraction:  a.lowHP.value,
		HP:             a.hp,
		WindowMissRate: a.windowMissRate(),
		WindowSize:     a.outcomes.len(),
		Events:         a.events,
		FeverOn:        a.feverOn,
		Phase:          a.phase,
		LastAtMs:       a.lastAt,
	}
}

// trend is the mean reaction time of the newer half of the window minus
// that of the older half. Positive means the player is slowing down.
func (a *Aggregator) trend() float64 {
	n := a.reactions.len()
	if n < minTrendSamples {
		return 0
	}
	half := n / 2
	var older, newer float64
	for i := 0; i < half; i++ {
		older += a.reactions.at(i)
	}
	for i := n - half; i < n; i++ {
		newer += a.reactions.at(i)
	}
	return (newer - older) / float64(half)
}

func (a *Aggregator) windowMissRate() float64 {
	n := a.outcomes.len()
	if n == 0 {
		return a.cfg.Priors.MissRate
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a.outcomes.at(i)
	}
	return sum / float64(n)
}

// normalize maps x affinely from r onto [0,1].
func normalize(x float64, r config.Range) float64 {
	return clamp((x-r.Lo)/(r.Hi-r.Lo), 0, 1)
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
