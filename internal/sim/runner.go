package sim

import (
	"fmt"
	"math"

	"github.com/vovakirdan/arcade-pacer/internal/core"
	"github.com/vovakirdan/arcade-pacer/internal/registry"
	"github.com/vovakirdan/arcade-pacer/internal/session"
)

// Sink receives every input fed to the session, in order. The recorder
// in the storage package implements it.
type Sink interface {
	Event(ev core.GameplayEvent) error
	Tick(nowMs uint64, raw core.RawStats, ctx core.Context) error
}

// Result summarizes a run.
type Result struct {
	DurationMs uint64
	Ticks      int
	Events     int
	Hits       uint32
	Misses     uint32
	Timeouts   uint32
	Tips       []core.CoachMessage
	Final      session.Frame
	GameOver   bool
}

// feeder forwards inputs to the sink and then the session.
type feeder struct {
	sess *session.Session
	sink Sink
	err  error
}

func (f *feeder) event(ev core.GameplayEvent) {
	if f.sink != nil && f.err == nil {
		if err := f.sink.Event(ev); err != nil {
			f.err = fmt.Errorf("sim: record event: %w", err)
		}
	}
	f.sess.OnEvent(ev)
}

func (f *feeder) tick(now uint64, raw core.RawStats, ctx core.Context) session.Frame {
	if f.sink != nil && f.err == nil {
		if err := f.sink.Tick(now, raw, ctx); err != nil {
			f.err = fmt.Errorf("sim: record tick: %w", err)
		}
	}
	return f.sess.Tick(now, raw, ctx)
}

// Runner plays a synthetic player against a session in simulated time.
type Runner struct {
	feed   feeder
	arena  registry.Arena
	player *Player
	tickMs uint64

	nextTick  uint64
	resolveAt float64
	pending   outcome

	raw        core.RawStats
	hp         float64
	feverUntil uint64
	over       bool
	result     Result
}

// NewRunner creates a runner. tickMs is the engine tick period.
func NewRunner(sess *session.Session, arena registry.Arena, player *Player, tickMs uint64, sink Sink) (*Runner, error) {
	if tickMs == 0 {
		return nil, fmt.Errorf("sim: tick period must be positive")
	}
	if !(arena.SpawnIntervalMs > 0) || !(arena.TargetLifeMs > 0) {
		return nil, fmt.Errorf("sim: arena needs positive spawn interval and target life")
	}
	r := &Runner{
		feed:     feeder{sess: sess, sink: sink},
		arena:    arena,
		player:   player,
		tickMs:   tickMs,
		nextTick: tickMs,
		hp:       1,
	}
	r.spawn(arena.SpawnIntervalMs)
	return r, nil
}

// spawn schedules the next target at time t.
func (r *Runner) spawn(t float64) {
	boss := r.bossActive(uint64(t))
	r.pending = r.player.face(r.arena, r.feed.sess.Multipliers(), boss, uint64(t))
	r.resolveAt = t + r.pending.afterMs
}

// Next advances to the next engine tick, feeding every event resolved
// before it, and returns the tick's frame.
func (r *Runner) Next() session.Frame {
	now := r.nextTick
	for !r.over && r.resolveAt <= float64(now) {
		r.resolve()
	}

	r.raw.HP = r.hp
	r.raw.ElapsedMs = now
	r.raw.FeverOn = now < r.feverUntil
	ctx := core.Context{
		BossActive: r.bossActive(now),
		FeverOn:    r.raw.FeverOn,
		Phase:      r.raw.Phase,
	}
	frame := r.feed.tick(now, r.raw, ctx)
	if frame.Tip != nil {
		r.result.Tips = append(r.result.Tips, *frame.Tip)
	}
	r.result.Ticks++
	r.result.DurationMs = now
	r.result.Final = frame
	r.nextTick += r.tickMs
	return frame
}

// resolve emits the pending target's event and schedules the next one.
func (r *Runner) resolve() {
	o := r.pending
	at := uint64(math.Round(r.resolveAt))

	if !o.silent {
		clean := o.kind == core.EventHit && !o.target.IsDecoy()
		switch {
		case clean:
			r.raw.Hits++
			r.raw.Combo++
			r.hp = math.Min(1, r.hp+r.arena.HitHeal)
		case o.kind == core.EventHit:
			r.raw.Hits++
			r.raw.Combo = 0
			r.hp = math.Max(0, r.hp-r.arena.MissDamage)
		case o.kind == core.EventMiss:
			r.raw.Misses++
			r.raw.Combo = 0
			r.hp = math.Max(0, r.hp-r.arena.MissDamage)
		default:
			r.raw.Timeouts++
			r.raw.Combo = 0
			r.hp = math.Max(0, r.hp-r.arena.MissDamage)
		}
		if r.arena.FeverCombo > 0 && r.raw.Combo >= r.arena.FeverCombo && at >= r.feverUntil {
			r.feverUntil = at + r.arena.FeverLengthMs
		}

		r.feed.event(core.GameplayEvent{
			Kind:       o.kind,
			ReactionMs: o.rt,
			Target:     o.target,
			ComboAfter: r.raw.Combo,
			HP:         r.hp,
			Phase:      r.raw.Phase,
			FeverOn:    at < r.feverUntil,
			AtMs:       at,
		})
		r.result.Events++
		if r.hp <= 0 {
			r.over = true
			r.result.GameOver = true
			return
		}
	}

	gap := r.arena.SpawnIntervalMs * r.feed.sess.Multipliers().SpawnIntervalMul
	r.spawn(r.resolveAt + math.Max(gap, 50))
}

// bossActive reports whether t falls inside a boss phase and tracks the
// phase counter.
func (r *Runner) bossActive(t uint64) bool {
	if r.arena.BossEveryMs == 0 || t < r.arena.BossEveryMs {
		return false
	}
	n := t / r.arena.BossEveryMs
	r.raw.Phase = uint8(min(n, math.MaxUint8))
	return t-n*r.arena.BossEveryMs < r.arena.BossLengthMs
}

// Over reports whether the player ran out of HP.
func (r *Runner) Over() bool {
	return r.over
}

// Err returns the first sink error, if any.
func (r *Runner) Err() error {
	return r.feed.err
}

// Run advances until durationMs of simulated time or game over.
func (r *Runner) Run(durationMs uint64) (Result, error) {
	for !r.over && r.nextTick <= durationMs {
		r.Next()
	}
	return r.Result(), r.Err()
}

// Result returns the summary so far.
func (r *Runner) Result() Result {
	res := r.result
	res.Hits, res.Misses, res.Timeouts = r.raw.Hits, r.raw.Misses, r.raw.Timeouts
	return res
}
