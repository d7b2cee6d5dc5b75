package session

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/arcade-pacer/internal/core"
)

// DefaultDedupeMs is how long repeats of the same anomaly are folded
// into a counter instead of being logged again.
const DefaultDedupeMs = 5000

type anomalyKey struct {
	component string
	kind      string
}

type anomalyLog struct {
	lastAt     uint64
	suppressed int
}

// LogReporter writes anomalies as structured warnings. Repeats of the same
// kind from the same component within the dedupe window are counted and
// reported with the next line that gets through.
type LogReporter struct {
	logger  *log.Logger
	window  uint64
	entries map[anomalyKey]*anomalyLog
}

// NewLogReporter creates a reporter logging to logger. A zero window
// logs every anomaly.
func NewLogReporter(logger *log.Logger, windowMs uint64) *LogReporter {
	return &LogReporter{
		logger:  logger,
		window:  windowMs,
		entries: make(map[anomalyKey]*anomalyLog),
	}
}

// Report implements core.Reporter.
func (r *LogReporter) Report(a core.Anomaly) {
	key := anomalyKey{component: a.Component, kind: kindName(a.Kind)}
	e, seen := r.entries[key]
	if !seen {
		e = &anomalyLog{}
		r.entries[key] = e
	} else if a.AtMs >= e.lastAt && a.AtMs-e.lastAt < r.window {
		e.suppressed++
		return
	}

	keyvals := []any{"component", a.Component, "kind", key.kind, "at_ms", a.AtMs}
	if a.Detail != "" {
		keyvals = append(keyvals, "detail", a.Detail)
	}
	if e.suppressed > 0 {
		keyvals = append(keyvals, "repeated", e.suppressed)
	}
	if errors.Is(a.Kind, core.ErrConfiguration) {
		r.logger.Error("anomaly", keyvals...)
	} else {
		r.logger.Warn("anomaly", keyvals...)
	}
	e.lastAt = a.AtMs
	e.suppressed = 0
}

func kindName(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}
