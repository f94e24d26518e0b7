package commands

import (
	"errors"
	"testing"

	"github.com/sipeed/taskclaw/pkg/access"
)

func TestRegistry_LookupRequiresSlash(t *testing.T) {
	r := NewRegistry([]Definition{{Name: "ai_help"}})

	if _, ok := r.Lookup("/ai_help"); !ok {
		t.Fatalf("Lookup(/ai_help) not found")
	}
	if _, ok := r.Lookup("ai_help"); ok {
		t.Fatalf("Lookup without slash should miss")
	}
	if _, ok := r.Lookup("/AI_HELP"); ok {
		t.Fatalf("Lookup should be case-sensitive")
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := NewRegistry([]Definition{{Name: "pause_task"}})

	err := r.Register(Definition{Name: "/pause_task"})
	if !errors.Is(err, ErrDuplicateCommand) {
		t.Fatalf("Register duplicate err = %v, want ErrDuplicateCommand", err)
	}
	if got := len(r.definitions()); got != 1 {
		t.Fatalf("definitions = %d, want 1", got)
	}
}

func TestNewRegistry_PanicsOnDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate table entry")
		}
	}()
	NewRegistry([]Definition{{Name: "a"}, {Name: "a"}})
}

func TestRegistry_RegisterEmptyName(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(Definition{Name: "/"}); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestRegistry_AvailableKeepsTableOrder(t *testing.T) {
	r := NewRegistry([]Definition{
		{Name: "b", Roles: []access.Role{access.RoleUser}},
		{Name: "pm_only", Roles: []access.Role{access.RolePM}},
		{Name: "a", Roles: []access.Role{access.RoleUser}},
	})

	got := r.Available(&access.User{Roles: []access.Role{access.RoleUser}})
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "a" {
		t.Fatalf("Available = %+v, want [b a]", got)
	}

	if got := r.Available(nil); len(got) != 0 {
		t.Fatalf("Available(nil) = %+v, want none", got)
	}
}

func TestDefinition_Token(t *testing.T) {
	r := NewRegistry([]Definition{{Name: "/list_tasks"}})
	def, ok := r.Lookup("/list_tasks")
	if !ok || def.Name != "list_tasks" || def.Token() != "/list_tasks" {
		t.Fatalf("def = %+v, ok = %v", def, ok)
	}
}
