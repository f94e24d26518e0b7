package infra

import (
	"strings"
	"testing"
)

func TestResolveHomeDir_EnvOverride(t *testing.T) {
	t.Setenv("TASKCLAW_HOME", "/srv/taskclaw")
	if got := ResolveHomeDir(); got != "/srv/taskclaw" {
		t.Fatalf("ResolveHomeDir() = %q", got)
	}
}

func TestResolveHomeDir_Default(t *testing.T) {
	t.Setenv("TASKCLAW_HOME", "  ")
	if got := ResolveHomeDir(); !strings.HasSuffix(got, ".taskclaw") {
		t.Fatalf("ResolveHomeDir() = %q, want ~/.taskclaw", got)
	}
}
