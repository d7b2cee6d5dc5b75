package registry

import (
	"testing"

	"github.com/vovakirdan/arcade-pacer/internal/config"
)

type stubProfile struct{ id string }

func (s stubProfile) ID() string { return s.id }
func (s stubProfile) Title() string { return "Stub " + s.id }
func (s stubProfile) Description() string { return "test profile" }
func (s stubProfile) Tune(cfg *config.Config) {}
func (s stubProfile) Arena() Arena { return Arena{SpawnIntervalMs: 1000} }

func TestRegisterAndCreate(t *testing.T) {
	Register("zz-stub", func() Profile { return stubProfile{id: "zz-stub"} })

	if !Exists("zz-stub") {
		t.Fatal("Registered profile not found")
	}
	p, err := Create("zz-stub")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if p.ID() != "zz-stub" {
		t.Errorf("Expected ID zz-stub, got %s", p.ID())
	}

	list := List()
	if last := list[len(list)-1]; last.ID != "zz-stub" || last.Title != "Stub zz-stub" {
		t.Errorf("Expected sorted listing ending with the stub, got %+v", list)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("zz-dup", func() Profile { return stubProfile{id: "zz-dup"} })

	defer func() {
		if recover() == nil {
			t.Error("Expected a panic on duplicate registration")
		}
	}()
	Register("zz-dup", func() Profile { return stubProfile{id: "zz-dup"} })
}

func TestCreateUnknown(t *testing.T) {
	if _, err := Create("no-such-profile"); err == nil {
		t.Error("Expected an error for an unknown profile")
	}
}
