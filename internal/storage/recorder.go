package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/arcade-pacer/internal/core"
	"github.com/vovakirdan/arcade-pacer/internal/session"
)

// Input kinds stored in the inputs table.
const (
	InputEvent = "event"
	InputTick  = "tick"
)

// TickInput is the payload of a recorded tick.
type TickInput struct {
	AtMs uint64        `yaml:"at_ms"`
	Raw  core.RawStats `yaml:"raw"`
	Ctx  core.Context  `yaml:"ctx"`
}

// Input is one recorded engine input. Exactly one of Event and Tick is
// meaningful, depending on Kind.
type Input struct {
	Seq   int
	Kind  string
	AtMs  uint64
	Event core.GameplayEvent
	Tick  TickInput
}

// AnomalyRecord is a stored anomaly. The error kind is kept as text.
type AnomalyRecord struct {
	AtMs      uint64
	Component string
	Kind      string
	Detail    string
}

// Recorder writes one session's inputs and outputs inside a single
// transaction. It satisfies the simulator's Sink, and Handler plugs it
// into the session bus. Nothing is visible to readers until Close.
type Recorder struct {
	tx        *sql.Tx
	sessionID string

	input     *sql.Stmt
	telemetry *sql.Stmt
	tip       *sql.Stmt
	anomaly   *sql.Stmt

	inputSeq, telemetrySeq, tipSeq, anomalySeq int
	err                                        error
	closed                                     bool
}

// NewRecorder starts recording for a session created with CreateSession.
func (s *Store) NewRecorder(sessionID string) (*Recorder, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("storage: cannot begin recording: %w", err)
	}
	r := &Recorder{tx: tx, sessionID: sessionID}

	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&r.input, `INSERT INTO inputs (session_id, seq, kind, at_ms, payload) VALUES (?, ?, ?, ?, ?)`},
		{&r.telemetry, `INSERT INTO telemetry (session_id, seq, at_ms, score, level,
			spawn_interval_mul, speed_mul, hit_window_mul, wrong_add, junk_add, features)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`},
		{&r.tip, `INSERT INTO tips (session_id, seq, at_ms, reason, message) VALUES (?, ?, ?, ?, ?)`},
		{&r.anomaly, `INSERT INTO anomalies (session_id, seq, at_ms, component, kind, detail) VALUES (?, ?, ?, ?, ?, ?)`},
	}
	for _, st := range stmts {
		prepared, err := tx.Prepare(st.query)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("storage: cannot prepare recorder: %w", err)
		}
		*st.dst = prepared
	}
	return r, nil
}

// Event records a gameplay event.
func (r *Recorder) Event(ev core.GameplayEvent) error {
	return r.writeInput(InputEvent, ev.AtMs, ev)
}

// Tick records a periodic tick.
func (r *Recorder) Tick(nowMs uint64, raw core.RawStats, ctx core.Context) error {
	return r.writeInput(InputTick, nowMs, TickInput{AtMs: nowMs, Raw: raw, Ctx: ctx})
}

func (r *Recorder) writeInput(kind string, at uint64, payload any) error {
	if err := r.usable(); err != nil {
		return err
	}
	data, err := yaml.Marshal(payload)
	if err != nil {
		return r.fail(fmt.Errorf("storage: cannot encode %s: %w", kind, err))
	}
	r.inputSeq++
	if _, err := r.input.Exec(r.sessionID, r.inputSeq, kind, int64(at), string(data)); err != nil {
		return r.fail(fmt.Errorf("storage: cannot save %s: %w", kind, err))
	}
	return nil
}

// Handler returns a bus handler that records telemetry, tips and
// anomalies. Write errors are kept and surface from Err and Close.
func (r *Recorder) Handler() session.Handler {
	return func(evt session.Event) {
		if r.usable() != nil {
			return
		}
		var err error
		switch e := evt.(type) {
		case session.TelemetryEvent:
			row := e.Row
			m := row.Multipliers
			r.telemetrySeq++
			_, err = r.telemetry.Exec(r.sessionID, r.telemetrySeq, int64(row.AtMs), row.Score, int(row.Level),
				m.SpawnIntervalMul, m.SpeedMul, m.HitWindowMul, m.WrongAdd, m.JunkAdd, encodeFeatures(row.Features))
		case session.TipEvent:
			r.tipSeq++
			_, err = r.tip.Exec(r.sessionID, r.tipSeq, int64(e.Tip.AtMs), string(e.Tip.ReasonCode), e.Tip.Message)
		case session.AnomalyEvent:
			a := e.Anomaly
			kind := ""
			if a.Kind != nil {
				kind = a.Kind.Error()
			}
			r.anomalySeq++
			_, err = r.anomaly.Exec(r.sessionID, r.anomalySeq, int64(a.AtMs), a.Component, kind, a.Detail)
		}
		if err != nil {
			r.fail(fmt.Errorf("storage: cannot save output: %w", err))
		}
	}
}

func (r *Recorder) usable() error {
	if r.closed {
		return fmt.Errorf("storage: recorder is closed")
	}
	return r.err
}

func (r *Recorder) fail(err error) error {
	if r.err == nil {
		r.err = err
	}
	return err
}

// Err returns the first write error.
func (r *Recorder) Err() error {
	return r.err
}

// Close commits everything recorded so far. After a write error the
// transaction is rolled back and that error is returned.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	for _, st := range []*sql.Stmt{r.input, r.telemetry, r.tip, r.anomaly} {
		st.Close()
	}
	if r.err != nil {
		r.tx.Rollback()
		return r.err
	}
	if err := r.tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit recording: %w", err)
	}
	return nil
}

// Abort discards everything recorded so far.
func (r *Recorder) Abort() error {
	if r.closed {
		return nil
	}
	r.closed = true
	for _, st := range []*sql.Stmt{r.input, r.telemetry, r.tip, r.anomaly} {
		st.Close()
	}
	return r.tx.Rollback()
}

// Inputs loads a session's inputs in the order they were fed.
func (s *Store) Inputs(sessionID string) ([]Input, error) {
	rows, err := s.db.Query(
		`SELECT seq, kind, at_ms, payload FROM inputs WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query inputs: %w", err)
	}
	defer rows.Close()

	var out []Input
	for rows.Next() {
		var (
			in      Input
			at      int64
			payload string
		)
		if err := rows.Scan(&in.Seq, &in.Kind, &at, &payload); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		in.AtMs = uint64(at)
		switch in.Kind {
		case InputEvent:
			err = yaml.Unmarshal([]byte(payload), &in.Event)
		case InputTick:
			err = yaml.Unmarshal([]byte(payload), &in.Tick)
		default:
			err = fmt.Errorf("unknown input kind %q", in.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("storage: input %d: %w", in.Seq, err)
		}
		out = append(out, in)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

// Telemetry loads a session's telemetry rows in tick order.
func (s *Store) Telemetry(sessionID string) ([]core.TelemetryRow, error) {
	rows, err := s.db.Query(
		`SELECT at_ms, score, level, spawn_interval_mul, speed_mul, hit_window_mul,
			wrong_add, junk_add, features
		 FROM telemetry WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query telemetry: %w", err)
	}
	defer rows.Close()

	var out []core.TelemetryRow
	for rows.Next() {
		var (
			row      core.TelemetryRow
			at       int64
			level    int
			features string
		)
		m := &row.Multipliers
		if err := rows.Scan(&at, &row.Score, &level, &m.SpawnIntervalMul, &m.SpeedMul,
			&m.HitWindowMul, &m.WrongAdd, &m.JunkAdd, &features); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		row.AtMs = uint64(at)
		row.Level = uint8(level)
		if row.Features, err = decodeFeatures(features); err != nil {
			return nil, fmt.Errorf("storage: telemetry at %d: %w", row.AtMs, err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

// Tips loads a session's coach messages in emission order.
func (s *Store) Tips(sessionID string) ([]core.CoachMessage, error) {
	rows, err := s.db.Query(
		`SELECT at_ms, reason, message FROM tips WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query tips: %w", err)
	}
	defer rows.Close()

	var out []core.CoachMessage
	for rows.Next() {
		var (
			tip    core.CoachMessage
			at     int64
			reason string
		)
		if err := rows.Scan(&at, &reason, &tip.Message); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		tip.AtMs = uint64(at)
		tip.ReasonCode = core.ReasonCode(reason)
		out = append(out, tip)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

// Anomalies loads a session's recovered errors.
func (s *Store) Anomalies(sessionID string) ([]AnomalyRecord, error) {
	rows, err := s.db.Query(
		`SELECT at_ms, component, kind, detail FROM anomalies WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query anomalies: %w", err)
	}
	defer rows.Close()

	var out []AnomalyRecord
	for rows.Next() {
		var (
			a  AnomalyRecord
			at int64
		)
		if err := rows.Scan(&at, &a.Component, &a.Kind, &a.Detail); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		a.AtMs = uint64(at)
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

// encodeFeatures stores a vector as space-separated shortest round-trip
// floats, so a decoded vector is bit-identical.
func encodeFeatures(v core.FeatureVector) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func decodeFeatures(s string) (core.FeatureVector, error) {
	fields := strings.Fields(s)
	v := make(core.FeatureVector, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		v[i] = x
	}
	return v, nil
}
