// Package registry provides a global registry for game profiles.
// Profiles register themselves in init() functions, allowing the CLI to
// discover them without hardcoded dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/arcade-pacer/internal/config"
)

// Profile adapts the engine to one kind of game. A profile is static
// tuning data; it holds no session state.
type Profile interface {
	// ID returns a unique identifier (e.g., "reflex", "rhythm").
	// Used for CLI flags and stored with every recorded session.
	ID() string

	// Title returns a human-readable name for display.
	Title() string

	// Description is a one-line summary for listings.
	Description() string

	// Tune applies per-game overrides on top of the loaded config.
	Tune(cfg *config.Config)

	// Arena describes the game's baseline pacing before multipliers.
	Arena() Arena
}

// Arena is the baseline pacing of a game. The director's multipliers
// scale these values at runtime.
type Arena struct {
	SpawnIntervalMs float64 // Time between targets
	TargetLifeMs    float64 // Time before an untouched target times out
	HitWindowMs     float64 // Tolerance around the ideal hit moment
	WrongShare      float64 // Share of wrong-lane targets
	JunkShare       float64 // Share of junk targets
	BossEveryMs     uint64  // Boss phase period, 0 = no bosses
	BossLengthMs    uint64
	FeverCombo      uint32 // Combo that triggers fever, 0 = no fever
	FeverLengthMs   uint64
	MissDamage      float64 // HP lost per failure
	HitHeal         float64 // HP regained per clean hit
}

// Info contains metadata about a registered profile.
type Info struct {
	ID          string
	Title       string
	Description string
}

// Factory creates a new instance of a profile.
type Factory func() Profile

var (
	factories = make(map[string]Factory)
	infos     = make(map[string]Info)
	mu        sync.RWMutex
)

// Register adds a profile factory to the registry.
// Panics if a profile with the same ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: profile %q already registered", id))
	}

	factories[id] = f

	p := f()
	infos[id] = Info{ID: id, Title: p.Title(), Description: p.Description()}
}

// List returns all registered profiles, sorted by ID.
func List() []Info {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Info, 0, len(infos))
	for _, info := range infos {
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a profile by its ID.
func Create(id string) (Profile, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown profile %q", id)
	}

	return f(), nil
}

// Exists checks if a profile with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
