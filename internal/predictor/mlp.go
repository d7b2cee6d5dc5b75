package predictor

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/core"
)

// MLP is a single-hidden-layer network (ReLU hidden, sigmoid output)
// trained by backpropagation with the same SGD+L2 discipline as Logistic.
type MLP struct {
	dim    int
	hidden int

	w1 [][]float64 // hidden x dim
	b1 []float64
	w2 []float64 // hidden
	b2 float64

	lr    float64
	l2    float64
	limit float64
	seen  uint64
	last  float64
	rep   reporter

	// scratch buffers reused across calls
	pre []float64
	act []float64
}

// NewMLP creates a network with He-scaled uniform weights drawn from rng.
// The same rng seed always yields the same initial network.
func NewMLP(cfg config.PredictorConfig, dim int, rng *rand.Rand, rep core.Reporter) (*MLP, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dim < 1 {
		return nil, fmt.Errorf("predictor: %w: dimension must be positive, got %d", core.ErrConfiguration, dim)
	}
	if rng == nil {
		return nil, fmt.Errorf("predictor: %w: mlp needs a seeded rng", core.ErrConfiguration)
	}
	hidden := cfg.Hidden

	m := &MLP{
		dim:    dim,
		hidden: hidden,
		w1:     make([][]float64, hidden),
		b1:     make([]float64, hidden),
		w2:     make([]float64, hidden),
		b2:     cfg.Bias,
		lr:     cfg.LearningRate,
		l2:     cfg.L2,
		limit:  cfg.LogitClamp,
		last:   cfg.Prior,
		rep:    reporter{rep: rep},
		pre:    make([]float64, hidden),
		act:    make([]float64, hidden),
	}

	inLimit := math.Sqrt(6 / float64(dim))
	outLimit := math.Sqrt(6 / float64(hidden))
	for j := 0; j < hidden; j++ {
		m.w1[j] = make([]float64, dim)
		for i := range m.w1[j] {
			m.w1[j][i] = (rng.Float64()*2 - 1) * inLimit
		}
		m.w2[j] = (rng.Float64()*2 - 1) * outLimit
	}
	return m, nil
}

// Dim returns the expected vector length.
func (m *MLP) Dim() int {
	return m.dim
}

// Predict returns the network output, or the last known-good score if x is invalid.
func (m *MLP) Predict(x core.FeatureVector) float64 {
	if err := checkVector(x, m.dim); err != nil {
		m.rep.report(err)
		return m.last
	}
	p, ok := m.forward(x)
	if ok {
		m.last = p
	}
	return m.last
}

// Observe returns the pre-update prediction and takes one backpropagation step.
func (m *MLP) Observe(x core.FeatureVector, label float64) float64 {
	if err := checkVector(x, m.dim); err != nil {
		m.rep.report(err)
		return m.last
	}
	if err := checkLabel(label); err != nil {
		m.rep.report(err)
		return m.last
	}

	p, ok := m.forward(x)
	if !ok {
		return m.last
	}
	m.last = p

	dz := p - label

	w2 := make([]float64, m.hidden)
	b1 := make([]float64, m.hidden)
	w1 := make([][]float64, m.hidden)
	for j := 0; j < m.hidden; j++ {
		w2[j] = m.w2[j] - m.lr*(dz*m.act[j]+m.l2*m.w2[j])

		var dh float64
		if m.pre[j] > 0 {
			dh = dz * m.w2[j]
		}
		b1[j] = m.b1[j] - m.lr*dh
		w1[j] = make([]float64, m.dim)
		for i := 0; i < m.dim; i++ {
			w1[j][i] = m.w1[j][i] - m.lr*(dh*x[i]+m.l2*m.w1[j][i])
		}
	}
	b2 := m.b2 - m.lr*dz

	if !allFinite(w2, b1, []float64{b2}) || !allFinite(w1...) {
		m.rep.report(fmt.Errorf("%w: update discarded, parameters would diverge", core.ErrNumericInstability))
		return p
	}
	m.w1, m.b1, m.w2, m.b2 = w1, b1, w2, b2
	m.seen++
	return p
}

// Snapshot returns a copy of the parameters. Weights holds the output
// layer first, then the hidden layer row by row.
func (m *MLP) Snapshot() core.PredictorState {
	w := make([]float64, 0, m.hidden*(m.dim+1))
	w = append(w, m.w2...)
	for _, row := range m.w1 {
		w = append(w, row...)
	}
	return core.PredictorState{
		Weights:      w,
		Bias:         m.b2,
		LearningRate: m.lr,
		L2:           m.l2,
		SamplesSeen:  m.seen,
	}
}

// forward fills the scratch buffers and returns the output probability.
func (m *MLP) forward(x core.FeatureVector) (float64, bool) {
	z := m.b2
	for j := 0; j < m.hidden; j++ {
		s := m.b1[j]
		for i, w := range m.w1[j] {
			s += w * x[i]
		}
		m.pre[j] = s
		m.act[j] = math.Max(0, s)
		z += m.w2[j] * m.act[j]
	}
	if math.IsNaN(z) {
		m.rep.report(fmt.Errorf("%w: logit is NaN", core.ErrNumericInstability))
		return 0, false
	}
	z, clamped := clampLogit(z, m.limit)
	if clamped {
		m.rep.report(fmt.Errorf("%w: logit clamped to ±%v", core.ErrNumericInstability, m.limit))
	}
	return sigmoid(z), true
}
