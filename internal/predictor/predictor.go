// Package predictor implements the online risk model: a small logistic
// unit (or single-hidden-layer network) trained one sample at a time.
package predictor

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/core"
)

// component names the predictor in anomaly reports.
const component = "predictor"

// Predictor maps a feature vector to a risk score in [0,1].
// Implementations never panic and never return NaN: invalid input yields
// the last known-good score and an anomaly report.
type Predictor interface {
	// Predict returns the current score for x without learning.
	Predict(x core.FeatureVector) float64

	// Observe returns the pre-update prediction for x, then takes one SGD
	// step toward label (0 or 1).
	Observe(x core.FeatureVector, label float64) float64

	// Dim returns the expected feature vector length.
	Dim() int

	// Snapshot returns a copy of the model parameters.
	Snapshot() core.PredictorState
}

// New builds the model selected by cfg.Model. The rng is only used by
// models with random initialization.
func New(cfg config.PredictorConfig, dim int, rng *rand.Rand, rep core.Reporter) (Predictor, error) {
	switch cfg.Model {
	case config.ModelMLP:
		return NewMLP(cfg, dim, rng, rep)
	default:
		return NewLogistic(cfg, dim, rep)
	}
}

// sigmoid is the logistic function with z already clamped by the caller.
func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// clampLogit limits z to [-limit, limit] and reports whether it had to.
func clampLogit(z, limit float64) (float64, bool) {
	if z > limit {
		return limit, true
	}
	if z < -limit {
		return -limit, true
	}
	return z, false
}

// checkVector rejects vectors of the wrong length or with non-finite values.
func checkVector(x core.FeatureVector, dim int) error {
	if len(x) != dim {
		return fmt.Errorf("%w: length %d, want %d", core.ErrInvalidFeatureVector, len(x), dim)
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: element %d is %v", core.ErrInvalidFeatureVector, i, v)
		}
	}
	return nil
}

// checkLabel rejects labels other than 0 and 1.
func checkLabel(y float64) error {
	if y != 0 && y != 1 {
		return fmt.Errorf("%w: label %v is not 0 or 1", core.ErrInvalidFeatureVector, y)
	}
	return nil
}

func allFinite(vals ...[]float64) bool {
	for _, vs := range vals {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// reporter wraps a core.Reporter with the predictor's component name.
type reporter struct {
	rep core.Reporter
}

// report forwards err, classified by the sentinel it wraps.
func (r reporter) report(err error) {
	if r.rep == nil {
		return
	}
	kind := core.ErrInvalidFeatureVector
	if errors.Is(err, core.ErrNumericInstability) {
		kind = core.ErrNumericInstability
	}
	r.rep.Report(core.Anomaly{Kind: kind, Component: component, Detail: err.Error()})
}
