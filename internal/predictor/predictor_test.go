package predictor

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/core"
)

const testDim = 8

// recorder collects anomalies for assertions.
type recorder struct {
	anomalies []core.Anomaly
}

func (r *recorder) Report(a core.Anomaly) {
	r.anomalies = append(r.anomalies, a)
}

func (r *recorder) has(kind error) bool {
	for _, a := range r.anomalies {
		if errors.Is(a, kind) {
			return true
		}
	}
	return false
}

func filled(v float64) core.FeatureVector {
	x := make(core.FeatureVector, testDim)
	for i := range x {
		x[i] = v
	}
	return x
}

func newLogistic(t *testing.T, mutate func(*config.PredictorConfig)) (*Logistic, *recorder) {
	t.Helper()
	cfg := config.DefaultConfig().Predictor
	if mutate != nil {
		mutate(&cfg)
	}
	rec := &recorder{}
	m, err := NewLogistic(cfg, testDim, rec)
	if err != nil {
		t.Fatalf("NewLogistic() failed: %v", err)
	}
	return m, rec
}

func TestPredictBoundedForAdversarialVectors(t *testing.T) {
	models := map[string]func(*config.PredictorConfig){
		"default": nil,
		"huge positive weights": func(c *config.PredictorConfig) {
			c.Weights = []float64{1e308, 1e308, 1e308, 1e308, 1e308, 1e308, 1e308, 1e308}
		},
		"huge negative weights": func(c *config.PredictorConfig) {
			c.Weights = []float64{-1e308, -1e308, -1e308, -1e308, -1e308, -1e308, -1e308, -1e308}
		},
	}
	vectors := []core.FeatureVector{filled(0), filled(1), filled(-1), filled(0.5)}

	for name, mutate := range models {
		t.Run(name, func(t *testing.T) {
			m, _ := newLogistic(t, mutate)
			for _, x := range vectors {
				p := m.Predict(x)
				if math.IsNaN(p) || p < 0 || p > 1 {
					t.Errorf("Predict(%v) = %v, want value in [0,1]", x, p)
				}
			}
		})
	}
}

func TestPredictLogitClampReportsInstability(t *testing.T) {
	m, rec := newLogistic(t, func(c *config.PredictorConfig) {
		c.Weights = []float64{100, 0, 0, 0, 0, 0, 0, 0}
	})

	p := m.Predict(filled(1))
	if p >= 1 || p < 0.99 {
		t.Errorf("Expected a saturated but finite score, got %v", p)
	}
	if !rec.has(core.ErrNumericInstability) {
		t.Error("Expected a numeric instability anomaly for a clamped logit")
	}
}

func TestPredictMalformedVectorReturnsLastScore(t *testing.T) {
	m, rec := newLogistic(t, nil)

	valid := m.Predict(filled(0.3))
	before := m.Snapshot()

	got := m.Predict(core.FeatureVector{0.1, 0.2, 0.3})
	if got != valid {
		t.Errorf("Expected previous score %v for a short vector, got %v", valid, got)
	}
	if !rec.has(core.ErrInvalidFeatureVector) {
		t.Error("Expected an invalid feature vector anomaly")
	}
	if !reflect.DeepEqual(before, m.Snapshot()) {
		t.Error("State must be untouched after a rejected call")
	}
}

func TestPredictNonFiniteVectorRejected(t *testing.T) {
	m, rec := newLogistic(t, nil)

	x := filled(0.2)
	x[3] = math.NaN()
	if got := m.Predict(x); got != config.DefaultConfig().Predictor.Prior {
		t.Errorf("Expected the prior score before any valid prediction, got %v", got)
	}

	x[3] = math.Inf(-1)
	m.Observe(x, 1)
	if m.Snapshot().SamplesSeen != 0 {
		t.Error("Observe must not learn from a non-finite vector")
	}
	if len(rec.anomalies) != 2 {
		t.Errorf("Expected 2 anomalies, got %d", len(rec.anomalies))
	}
}

func TestObserveReturnsPreUpdatePrediction(t *testing.T) {
	m, _ := newLogistic(t, nil)
	x := filled(0.5)

	before := m.Predict(x)
	got := m.Observe(x, 1)
	if got != before {
		t.Errorf("Observe should return the pre-update prediction %v, got %v", before, got)
	}
	if after := m.Predict(x); after <= before {
		t.Errorf("Prediction should move toward label 1: before=%v after=%v", before, after)
	}
}

func TestObserveGradientStep(t *testing.T) {
	m, _ := newLogistic(t, func(c *config.PredictorConfig) {
		c.Weights = nil
		c.Bias = 0
		c.LearningRate = 0.5
		c.L2 = 0
	})
	x := filled(0)
	x[0] = 1

	// p = 0.5, grad_0 = (0.5-1)*1 = -0.5, w_0 = 0 - 0.5*(-0.5)
	m.Observe(x, 1)

	s := m.Snapshot()
	if s.Weights[0] != 0.25 {
		t.Errorf("Expected w0 = 0.25, got %v", s.Weights[0])
	}
	if s.Weights[1] != 0 {
		t.Errorf("Weights with zero input must not move, got %v", s.Weights[1])
	}
	if s.Bias != 0.25 {
		t.Errorf("Expected bias 0.25, got %v", s.Bias)
	}
	if s.SamplesSeen != 1 {
		t.Errorf("Expected 1 sample seen, got %d", s.SamplesSeen)
	}
}

func TestObserveL2ShrinksWeights(t *testing.T) {
	m, _ := newLogistic(t, func(c *config.PredictorConfig) {
		c.Weights = []float64{2, 0, 0, 0, 0, 0, 0, 0}
		c.Bias = 0
		c.LearningRate = 0.1
		c.L2 = 0.5
	})

	// x is all zeros, so only the L2 term moves w0: 2 - 0.1*(0.5*2)
	m.Observe(filled(0), 0)
	if got := m.Snapshot().Weights[0]; math.Abs(got-1.9) > 1e-12 {
		t.Errorf("Expected w0 = 1.9 after L2 shrink, got %v", got)
	}
}

func TestObserveRejectsBadLabel(t *testing.T) {
	m, rec := newLogistic(t, nil)

	m.Observe(filled(0.5), 0.7)
	if m.Snapshot().SamplesSeen != 0 {
		t.Error("Observe must not learn from a non-binary label")
	}
	if !rec.has(core.ErrInvalidFeatureVector) {
		t.Error("Expected an anomaly for a non-binary label")
	}
}

func TestObserveDiscardsDivergingUpdate(t *testing.T) {
	m, rec := newLogistic(t, func(c *config.PredictorConfig) {
		c.Weights = []float64{1e308, 0, 0, 0, 0, 0, 0, 0}
		c.LearningRate = 1e308
		c.L2 = 10
	})
	before := m.Snapshot()

	m.Observe(filled(0), 1)

	if !reflect.DeepEqual(before, m.Snapshot()) {
		t.Error("A diverging update must leave the parameters untouched")
	}
	if !rec.has(core.ErrNumericInstability) {
		t.Error("Expected a numeric instability anomaly")
	}
}

func TestNewLogisticWeightCountMismatch(t *testing.T) {
	cfg := config.DefaultConfig().Predictor
	cfg.Weights = []float64{1, 2, 3}

	_, err := NewLogistic(cfg, testDim, nil)
	if !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration, got %v", err)
	}
}

func TestSnapshotDoesNotAlias(t *testing.T) {
	m, _ := newLogistic(t, nil)

	s := m.Snapshot()
	s.Weights[0] = 999
	if m.Snapshot().Weights[0] == 999 {
		t.Error("Snapshot must return a copy of the weights")
	}
}

func TestMLPDeterministicInit(t *testing.T) {
	cfg := config.DefaultConfig().Predictor
	cfg.Model = config.ModelMLP

	a, err := New(cfg, testDim, core.NewRNG(7, "predictor"), nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	b, _ := New(cfg, testDim, core.NewRNG(7, "predictor"), nil)
	c, _ := New(cfg, testDim, core.NewRNG(8, "predictor"), nil)

	if !reflect.DeepEqual(a.Snapshot(), b.Snapshot()) {
		t.Error("Same seed must produce identical networks")
	}
	if reflect.DeepEqual(a.Snapshot(), c.Snapshot()) {
		t.Error("Different seeds should produce different networks")
	}
	if got := len(a.Snapshot().Weights); got != cfg.Hidden*(testDim+1) {
		t.Errorf("Expected %d weights, got %d", cfg.Hidden*(testDim+1), got)
	}
}

func TestMLPLearnsAndStaysBounded(t *testing.T) {
	cfg := config.DefaultConfig().Predictor
	cfg.Model = config.ModelMLP
	cfg.LearningRate = 0.2

	m, err := NewMLP(cfg, testDim, core.NewRNG(42, "predictor"), nil)
	if err != nil {
		t.Fatalf("NewMLP() failed: %v", err)
	}

	x := filled(0.8)
	start := m.Predict(x)
	for i := 0; i < 200; i++ {
		p := m.Observe(x, 1)
		if p < 0 || p > 1 || math.IsNaN(p) {
			t.Fatalf("Observe returned %v at step %d", p, i)
		}
	}
	if end := m.Predict(x); end <= start {
		t.Errorf("MLP should learn toward label 1: start=%v end=%v", start, end)
	}
	if m.Snapshot().SamplesSeen != 200 {
		t.Errorf("Expected 200 samples, got %d", m.Snapshot().SamplesSeen)
	}
}

func TestMLPMalformedVector(t *testing.T) {
	cfg := config.DefaultConfig().Predictor
	cfg.Model = config.ModelMLP
	rec := &recorder{}

	m, err := NewMLP(cfg, testDim, core.NewRNG(1, "predictor"), rec)
	if err != nil {
		t.Fatalf("NewMLP() failed: %v", err)
	}
	valid := m.Predict(filled(0.4))
	if got := m.Predict(filled(0.4)[:5]); got != valid {
		t.Errorf("Expected previous score %v, got %v", valid, got)
	}
	if !rec.has(core.ErrInvalidFeatureVector) {
		t.Error("Expected an invalid feature vector anomaly")
	}
}

func TestNewMLPRequiresRNG(t *testing.T) {
	cfg := config.DefaultConfig().Predictor
	cfg.Model = config.ModelMLP

	if _, err := NewMLP(cfg, testDim, nil, nil); !errors.Is(err, core.ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration without an rng, got %v", err)
	}
}
