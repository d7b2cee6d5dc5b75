package predictor

import (
	"fmt"
	"math"

	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/core"
)

// Logistic is a linear logistic unit, p = sigmoid(w·x + b), trained by SGD
// with L2 regularization on the weights (not the bias).
type Logistic struct {
	weights []float64
	bias    float64
	lr      float64
	l2      float64
	limit   float64 // logit clamp
	seen    uint64
	last    float64 // last known-good score
	rep     reporter
}

// NewLogistic creates a logistic model starting from the configured
// (pretrained) weights. Empty weights start from zero.
func NewLogistic(cfg config.PredictorConfig, dim int, rep core.Reporter) (*Logistic, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dim < 1 {
		return nil, fmt.Errorf("predictor: %w: dimension must be positive, got %d", core.ErrConfiguration, dim)
	}
	weights := make([]float64, dim)
	if len(cfg.Weights) > 0 {
		if len(cfg.Weights) != dim {
			return nil, fmt.Errorf("predictor: %w: %d weights for %d features",
				core.ErrConfiguration, len(cfg.Weights), dim)
		}
		copy(weights, cfg.Weights)
	}
	return &Logistic{
		weights: weights,
		bias:    cfg.Bias,
		lr:      cfg.LearningRate,
		l2:      cfg.L2,
		limit:   cfg.LogitClamp,
		last:    cfg.Prior,
		rep:     reporter{rep: rep},
	}, nil
}

// Dim returns the expected vector length.
func (m *Logistic) Dim() int {
	return len(m.weights)
}

// Predict returns sigmoid(w·x + b), or the last known-good score if x is invalid.
func (m *Logistic) Predict(x core.FeatureVector) float64 {
	if err := checkVector(x, len(m.weights)); err != nil {
		m.rep.report(err)
		return m.last
	}
	m.last = m.forward(x)
	return m.last
}

// Observe returns the pre-update prediction and takes one SGD step:
// w_i -= lr * ((p-y)*x_i + l2*w_i), b -= lr * (p-y).
// An update that would leave a non-finite parameter is discarded.
func (m *Logistic) Observe(x core.FeatureVector, label float64) float64 {
	if err := checkVector(x, len(m.weights)); err != nil {
		m.rep.report(err)
		return m.last
	}
	if err := checkLabel(label); err != nil {
		m.rep.report(err)
		return m.last
	}

	p := m.forward(x)
	m.last = p

	errTerm := p - label
	next := make([]float64, len(m.weights))
	for i, w := range m.weights {
		next[i] = w - m.lr*(errTerm*x[i]+m.l2*w)
	}
	nextBias := m.bias - m.lr*errTerm

	if !allFinite(next, []float64{nextBias}) {
		m.rep.report(fmt.Errorf("%w: update discarded, parameters would diverge", core.ErrNumericInstability))
		return p
	}
	m.weights = next
	m.bias = nextBias
	m.seen++
	return p
}

// Snapshot returns a copy of the model parameters.
func (m *Logistic) Snapshot() core.PredictorState {
	w := make([]float64, len(m.weights))
	copy(w, m.weights)
	return core.PredictorState{
		Weights:      w,
		Bias:         m.bias,
		LearningRate: m.lr,
		L2:           m.l2,
		SamplesSeen:  m.seen,
	}
}

func (m *Logistic) forward(x core.FeatureVector) float64 {
	z := m.bias
	for i, w := range m.weights {
		z += w * x[i]
	}
	if math.IsNaN(z) {
		m.rep.report(fmt.Errorf("%w: logit is NaN", core.ErrNumericInstability))
		return m.last
	}
	z, clamped := clampLogit(z, m.limit)
	if clamped {
		m.rep.report(fmt.Errorf("%w: logit clamped to ±%v", core.ErrNumericInstability, m.limit))
	}
	return sigmoid(z)
}
