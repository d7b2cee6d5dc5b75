package sim

import (
	"bytes"
	"embed"
	"fmt"
	"math"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/arcade-pacer/internal/core"
	"github.com/vovakirdan/arcade-pacer/internal/session"
)

//go:embed scenarios/*.yaml
var scenarioFS embed.FS

// Script is a fixed, replayable sequence of gameplay events.
type Script struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	StartHP     float64 `yaml:"start_hp"`
	Phases      []Phase `yaml:"phases"`
}

// Phase emits Repeat events, one every EveryMs, each followed by a tick.
type Phase struct {
	Repeat       int              `yaml:"repeat"`
	EveryMs      uint64           `yaml:"every_ms"`
	Kind         core.EventKind   `yaml:"kind"`
	Pattern      []core.EventKind `yaml:"pattern"` // Cycled instead of Kind when set
	Target       core.TargetKind  `yaml:"target"`
	ReactionMs   float64          `yaml:"reaction_ms"`
	ReactionStep float64          `yaml:"reaction_step"` // Added per event
	HPStep       float64          `yaml:"hp_step"`       // Added per event
	Boss         bool             `yaml:"boss"`
	Fever        bool             `yaml:"fever"`
}

// Step is one expanded script entry.
type Step struct {
	Event core.GameplayEvent
	Raw   core.RawStats
	Ctx   core.Context
}

// ParseScript decodes and validates a YAML script.
func ParseScript(data []byte) (Script, error) {
	s := Script{StartHP: 1}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return s, fmt.Errorf("sim: parse script: %w", err)
	}
	return s, s.Validate()
}

// LoadScript reads a script from a file, or a built-in by name when no
// such file exists.
func LoadScript(nameOrPath string) (Script, error) {
	data, err := os.ReadFile(nameOrPath)
	if err == nil {
		return ParseScript(data)
	}
	if s, berr := Builtin(nameOrPath); berr == nil {
		return s, nil
	}
	return Script{}, fmt.Errorf("sim: load script %s: %w", nameOrPath, err)
}

// Builtin returns an embedded scenario.
func Builtin(name string) (Script, error) {
	data, err := scenarioFS.ReadFile(path.Join("scenarios", name+".yaml"))
	if err != nil {
		return Script{}, fmt.Errorf("sim: unknown scenario %q", name)
	}
	return ParseScript(data)
}

// BuiltinNames lists the embedded scenarios, sorted.
func BuiltinNames() []string {
	entries, err := scenarioFS.ReadDir("scenarios")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Validate checks the script's shape.
func (s Script) Validate() error {
	if len(s.Phases) == 0 {
		return fmt.Errorf("sim: script %q has no phases", s.Name)
	}
	if s.StartHP < 0 || s.StartHP > 1 {
		return fmt.Errorf("sim: script %q start_hp must be in [0,1]", s.Name)
	}
	for i, p := range s.Phases {
		if p.Repeat < 1 || p.EveryMs == 0 {
			return fmt.Errorf("sim: script %q phase %d needs repeat >= 1 and every_ms > 0", s.Name, i)
		}
	}
	return nil
}

// Steps expands the script into its event/tick sequence.
func (s Script) Steps() []Step {
	var (
		steps []Step
		raw   = core.RawStats{HP: s.StartHP}
		now   uint64
	)
	for _, p := range s.Phases {
		for i := 0; i < p.Repeat; i++ {
			now += p.EveryMs
			kind := p.Kind
			if len(p.Pattern) > 0 {
				kind = p.Pattern[i%len(p.Pattern)]
			}
			rt := 0.0
			if kind != core.EventTimeout {
				rt = p.ReactionMs + float64(i)*p.ReactionStep
			}

			switch kind {
			case core.EventHit:
				raw.Hits++
			case core.EventMiss:
				raw.Misses++
			default:
				raw.Timeouts++
			}
			if kind == core.EventHit && !p.Target.IsDecoy() {
				raw.Combo++
			} else {
				raw.Combo = 0
			}
			raw.HP = math.Max(0, math.Min(1, raw.HP+p.HPStep))
			raw.ElapsedMs = now
			raw.FeverOn = p.Fever

			steps = append(steps, Step{
				Event: core.GameplayEvent{
					Kind:       kind,
					ReactionMs: rt,
					Target:     p.Target,
					ComboAfter: raw.Combo,
					HP:         raw.HP,
					Phase:      raw.Phase,
					FeverOn:    p.Fever,
					AtMs:       now,
				},
				Raw: raw,
				Ctx: core.Context{BossActive: p.Boss, FeverOn: p.Fever, Phase: raw.Phase},
			})
		}
	}
	return steps
}

// Play feeds the script to sess and returns one frame per step.
func Play(sess *session.Session, s Script, sink Sink) ([]session.Frame, error) {
	f := feeder{sess: sess, sink: sink}
	steps := s.Steps()
	frames := make([]session.Frame, 0, len(steps))
	for _, st := range steps {
		f.event(st.Event)
		frames = append(frames, f.tick(st.Event.AtMs, st.Raw, st.Ctx))
	}
	return frames, f.err
}
