package replay

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/arcade-pacer/internal/config"
	"github.com/vovakirdan/arcade-pacer/internal/core"
	"github.com/vovakirdan/arcade-pacer/internal/session"
	"github.com/vovakirdan/arcade-pacer/internal/sim"
	"github.com/vovakirdan/arcade-pacer/internal/storage"
)

// countingSink forwards to the recorder and counts events.
type countingSink struct {
	rec    *storage.Recorder
	events int
}

func (c *countingSink) Event(ev core.GameplayEvent) error {
	c.events++
	return c.rec.Event(ev)
}

func (c *countingSink) Tick(nowMs uint64, raw core.RawStats, ctx core.Context) error {
	return c.rec.Tick(nowMs, raw, ctx)
}

// Record stores sess under its ID, with cfg as the replay config, and
// calls drive with a sink that records every input. Outputs are taken
// from the session bus. The recording is committed when drive returns
// without error; otherwise the session row is removed as well, so a
// failed run never shows up as a recording.
func Record(store *storage.Store, sess *session.Session, cfg config.Config, source string, drive func(sink sim.Sink) error) error {
	data, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("replay: encode config: %w", err)
	}
	sc := sess.Config()
	err = store.CreateSession(storage.SessionMeta{
		ID:      sess.ID(),
		Profile: sc.Profile,
		Mode:    sess.Mode(),
		Seed:    sess.Seed(),
		Source:  source,
		Config:  string(data),
	})
	if err != nil {
		return err
	}

	rec, err := store.NewRecorder(sess.ID())
	if err != nil {
		return discard(store, sess.ID(), err)
	}
	var sum storage.Summary
	sess.Subscribe(rec.Handler())
	sess.Subscribe(func(evt session.Event) {
		if e, ok := evt.(session.MultipliersEvent); ok {
			sum.Ticks++
			sum.FinalScore = e.Score
			sum.FinalLevel = e.Level
		}
	})

	sink := &countingSink{rec: rec}
	if err := drive(sink); err != nil {
		rec.Abort()
		return discard(store, sess.ID(), err)
	}
	if err := rec.Close(); err != nil {
		return discard(store, sess.ID(), err)
	}
	sum.Events = sink.events
	return store.FinishSession(sess.ID(), sum)
}

// discard deletes a session whose recording failed and returns cause.
func discard(store *storage.Store, id string, cause error) error {
	if err := store.DeleteSession(id); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
