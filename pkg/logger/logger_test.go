package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	prev := GetLevel()
	t.Cleanup(func() { SetLevel(prev) })

	SetLevel(WARN)
	InfoC("commands", "should be dropped")
	WarnC("commands", "kept")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Fatalf("info line leaked through WARN level: %q", out)
	}
	if !strings.Contains(out, "[WARN] commands: kept") {
		t.Fatalf("missing warn line: %q", out)
	}
}

func TestFormatFields_SortedKeys(t *testing.T) {
	got := formatFields(map[string]any{"task_id": 5, "author": "bob", "command": "/pause_task"})
	want := "{author=bob, command=/pause_task, task_id=5}"
	if got != want {
		t.Fatalf("formatFields() = %q, want %q", got, want)
	}
}

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel("debug")
	if !ok || lvl != DEBUG {
		t.Fatalf("ParseLevel(debug) = %v, %v", lvl, ok)
	}
	if _, ok := ParseLevel("chatty"); ok {
		t.Fatalf("ParseLevel(chatty) should fail")
	}
}
