package core

import "errors"

// Error taxonomy for the engine. Everything except ErrConfiguration is
// recovered locally and only ever reaches a Reporter.
var (
	// ErrInvalidFeatureVector marks a vector of the wrong length or with non-finite values.
	ErrInvalidFeatureVector = errors.New("invalid feature vector")

	// ErrNumericInstability marks logits or weights that would overflow.
	ErrNumericInstability = errors.New("predictor numeric instability")

	// ErrConfiguration marks inverted or overlapping thresholds and bounds.
	// It is fatal, and only returned before a session starts.
	ErrConfiguration = errors.New("configuration error")

	// ErrModeMisuse marks an adaptive call issued in a frozen mode.
	ErrModeMisuse = errors.New("mode misuse")
)

// Anomaly is a recovered runtime error handed to the logging collaborator.
type Anomaly struct {
	Kind      error
	Component string
	Detail    string
	AtMs      uint64
}

// Error implements error so anomalies can be logged or wrapped directly.
func (a Anomaly) Error() string {
	if a.Detail == "" {
		return a.Component + ": " + a.Kind.Error()
	}
	return a.Component + ": " + a.Kind.Error() + ": " + a.Detail
}

// Unwrap exposes the sentinel kind to errors.Is.
func (a Anomaly) Unwrap() error {
	return a.Kind
}

// Reporter receives anomalies. Implementations must not panic.
type Reporter interface {
	Report(a Anomaly)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(a Anomaly)

// Report calls f(a).
func (f ReporterFunc) Report(a Anomaly) {
	f(a)
}

// NopReporter discards all anomalies.
type NopReporter struct{}

// Report does nothing.
func (NopReporter) Report(Anomaly) {}
