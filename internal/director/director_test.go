package director

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/core"
	"github.com/vovakirdan/arcade-pacer/internal/features"
)

// warm is a stats value past the warm-up gate.
var warm = features.Stats{Events: 100}

func newDirector(t *testing.T, mutate func(*config.DirectorConfig)) *Director {
	t.Helper()
	cfg := config.DefaultConfig().Director
	if mutate != nil {
		mutate(&cfg)
	}
	d, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return d
}

func TestDirectorFirstTickArmsTimer(t *testing.T) {
	d := newDirector(t, nil)

	got := d.Tick(5000, 1, warm)
	if got != core.IdentityMultipliers() {
		t.Errorf("First tick must not adjust, got %+v", got)
	}
	if d.State().LastAdjustAtMs != 5000 {
		t.Errorf("Expected timer armed at 5000, got %d", d.State().LastAdjustAtMs)
	}
}

func TestDirectorMultipliersStayInBounds(t *testing.T) {
	cfg := config.DefaultConfig().Director
	d := newDirector(t, nil)
	rng := rand.New(rand.NewSource(99))

	adversarial := []float64{math.NaN(), math.Inf(1), math.Inf(-1), -5, 5, 0, 1}
	now := uint64(0)
	for i := 0; i < 5000; i++ {
		now += uint64(rng.Intn(1500))
		score := rng.Float64()
		if i%7 == 0 {
			score = adversarial[rng.Intn(len(adversarial))]
		}
		stats := warm
		stats.FeverOn = rng.Intn(4) == 0
		m := d.Tick(now, score, stats)
		if !cfg.Bounds.Contains(m) {
			t.Fatalf("Tick %d: multipliers %+v left bounds", i, m)
		}
	}
}

func TestDirectorRateLimit(t *testing.T) {
	cfg := config.DefaultConfig().Director
	d := newDirector(t, nil)

	var adjustments []uint64
	last := d.State().LastAdjustAtMs
	for now := uint64(0); now <= 20000; now += 150 {
		d.Tick(now, 1, warm)
		if s := d.State(); s.LastAdjustAtMs != last {
			adjustments = append(adjustments, s.LastAdjustAtMs)
			last = s.LastAdjustAtMs
		}
	}
	if len(adjustments) < 2 {
		t.Fatalf("Expected several adjustments, got %d", len(adjustments))
	}
	for i := 1; i < len(adjustments); i++ {
		if gap := adjustments[i] - adjustments[i-1]; gap < cfg.MinIntervalMs {
			t.Errorf("Adjustments %d and %d only %dms apart", i-1, i, gap)
		}
	}
}

func TestDirectorHysteresis(t *testing.T) {
	// Without smoothing emaRisk equals the score.
	d := newDirector(t, func(c *config.DirectorConfig) { c.Smoothing = 0 })

	steps := []struct {
		score float64
		want  uint8
	}{
		{0.63, 2},
		{0.60, 2}, // inside the band below 0.62
		{0.58, 2},
		{0.56, 1}, // below 0.62 - 0.05
		{0.40, 1},
		{0.36, 0},
		{0.90, 3},
		{0.79, 3},
		{0.76, 2},
	}
	for i, s := range steps {
		d.Tick(uint64(i), s.score, warm)
		if got := d.Level(); got != s.want {
			t.Errorf("Step %d (score %v): expected level %d, got %d", i, s.score, s.want, got)
		}
	}
}

func TestDirectorEasesAtHighRisk(t *testing.T) {
	d := newDirector(t, func(c *config.DirectorConfig) { c.Smoothing = 0 })

	d.Tick(0, 0.95, warm)
	m := d.Tick(1000, 0.95, warm)

	want := core.IdentityMultipliers().Add(config.DefaultConfig().Director.Levels[3])
	if m != want {
		t.Errorf("Expected one level-3 step %+v, got %+v", want, m)
	}
	if m.SpeedMul >= 1 || m.SpawnIntervalMul <= 1 || m.HitWindowMul <= 1 {
		t.Errorf("Level 3 must ease every multiplier, got %+v", m)
	}
}

func TestDirectorWarmup(t *testing.T) {
	d := newDirector(t, nil)

	cold := features.Stats{Events: 2}
	d.Tick(0, 1, cold)
	if m := d.Tick(5000, 1, cold); m != core.IdentityMultipliers() {
		t.Errorf("Expected no adjustment during warm-up, got %+v", m)
	}
	cold.Events = 3
	if m := d.Tick(6000, 1, cold); m == core.IdentityMultipliers() {
		t.Error("Expected an adjustment once warm-up is over")
	}
}

func TestDirectorFeverHold(t *testing.T) {
	d := newDirector(t, func(c *config.DirectorConfig) { c.Smoothing = 0 })

	fever := warm
	fever.FeverOn = true
	d.Tick(0, 0, fever)
	if m := d.Tick(1000, 0, fever); m != core.IdentityMultipliers() {
		t.Errorf("Level 0 must not tighten during fever, got %+v", m)
	}

	m := d.Tick(2000, 0, warm)
	if m.SpeedMul <= 1 {
		t.Errorf("Expected tightening after fever ends, got %+v", m)
	}
}

func TestDirectorNonMonotonicClock(t *testing.T) {
	d := newDirector(t, nil)

	d.Tick(5000, 1, warm)
	if m := d.Tick(3000, 1, warm); m != core.IdentityMultipliers() {
		t.Errorf("A clock going backwards must not adjust, got %+v", m)
	}
	if m := d.Tick(6000, 1, warm); m == core.IdentityMultipliers() {
		t.Error("Expected an adjustment once the clock passes the interval")
	}
}

func TestDirectorClampsMisconfiguredTable(t *testing.T) {
	d := newDirector(t, func(c *config.DirectorConfig) {
		c.Smoothing = 0
		c.Levels[3] = core.Multipliers{
			SpawnIntervalMul: 10, SpeedMul: -10, HitWindowMul: 10, WrongAdd: -10, JunkAdd: -10,
		}
	})
	b := config.DefaultConfig().Director.Bounds

	d.Tick(0, 1, warm)
	m := d.Tick(1000, 1, warm)

	want := core.Multipliers{
		SpawnIntervalMul: b.SpawnInterval.Max,
		SpeedMul:         b.Speed.Min,
		HitWindowMul:     b.HitWindow.Max,
		WrongAdd:         b.Wrong.Min,
		JunkAdd:          b.Junk.Min,
	}
	if m != want {
		t.Errorf("Expected multipliers pinned to bounds %+v, got %+v", want, m)
	}
}

func TestDirectorKeepsBoundsWithNonFiniteDelta(t *testing.T) {
	var got []core.Anomaly
	d, err := New(config.DefaultConfig().Director, core.ReporterFunc(func(a core.Anomaly) {
		got = append(got, a)
	}))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	// A table that slipped past validation must still not escape the bounds.
	d.cfg.Smoothing = 0
	d.cfg.Levels[3].SpeedMul = math.NaN()
	b := d.cfg.Bounds

	d.Tick(0, 1, warm)
	var m core.Multipliers
	for now := uint64(1000); now <= 3000; now += 1000 {
		m = d.Tick(now, 1, warm)
	}

	if d.Level() != 3 {
		t.Fatalf("Expected level 3, got %d", d.Level())
	}
	if !m.Finite() || !b.Contains(m) {
		t.Errorf("Expected finite multipliers inside the bounds, got %+v", m)
	}
	if m.SpeedMul != 1 {
		t.Errorf("Expected speed to keep its previous value, got %v", m.SpeedMul)
	}
	if m.SpawnIntervalMul <= 1 {
		t.Errorf("Expected the finite deltas to still apply, got %+v", m)
	}
	if len(got) == 0 || !errors.Is(got[0], core.ErrNumericInstability) {
		t.Errorf("Expected a numeric instability anomaly, got %v", got)
	}
}

func TestDirectorHysteresisStillFalls(t *testing.T) {
	d := newDirector(t, func(c *config.DirectorConfig) { c.Smoothing = 0 })
	d.Tick(0, 0.95, warm)
	if d.Level() != 3 {
		t.Fatalf("Expected level 3 at high risk, got %d", d.Level())
	}
	d.Tick(1, 0, warm)
	if d.Level() != 0 {
		t.Errorf("Expected the level to fall back to 0, got %d", d.Level())
	}
}

func TestDirectorIgnoresNonFiniteScore(t *testing.T) {
	var got []core.Anomaly
	d, err := New(config.DefaultConfig().Director, core.ReporterFunc(func(a core.Anomaly) {
		got = append(got, a)
	}))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	before := d.State().EMARisk

	d.Tick(100, math.NaN(), warm)
	if d.State().EMARisk != before {
		t.Errorf("NaN score changed emaRisk to %v", d.State().EMARisk)
	}
	if len(got) != 1 || !errors.Is(got[0], core.ErrNumericInstability) || got[0].AtMs != 100 {
		t.Errorf("Expected one numeric instability anomaly at 100ms, got %v", got)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.DirectorConfig)
	}{
		{"inverted bound", func(c *config.DirectorConfig) { c.Bounds.Speed = config.Bound{Min: 1.2, Max: 0.8} }},
		{"bound excludes identity", func(c *config.DirectorConfig) { c.Bounds.Speed = config.Bound{Min: 1.1, Max: 1.3} }},
		{"descending thresholds", func(c *config.DirectorConfig) { c.Thresholds = []float64{0.8, 0.6, 0.4} }},
		{"overlapping hysteresis", func(c *config.DirectorConfig) { c.Hysteresis = 0.3 }},
		{"short level table", func(c *config.DirectorConfig) { c.Levels = c.Levels[:2] }},
		{"zero interval", func(c *config.DirectorConfig) { c.MinIntervalMs = 0 }},
		{"NaN hysteresis", func(c *config.DirectorConfig) { c.Hysteresis = math.NaN() }},
		{"NaN level delta", func(c *config.DirectorConfig) { c.Levels[3].SpeedMul = math.NaN() }},
		{"infinite level delta", func(c *config.DirectorConfig) { c.Levels[0].JunkAdd = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig().Director
			tt.mutate(&cfg)
			if _, err := New(cfg, nil); !errors.Is(err, core.ErrConfiguration) {
				t.Errorf("Expected ErrConfiguration, got %v", err)
			}
		})
	}
}
