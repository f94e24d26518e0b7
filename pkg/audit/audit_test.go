package audit

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestLogger(t *testing.T, path string) *Logger {
	t.Helper()
	l, err := Open(Config{
		Enabled:       true,
		LogFilePath:   path,
		RetentionDays: 30,
		SecretKey:     []byte("test-secret-key-32-bytes-long!!"),
	})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestOpen_DisabledReturnsNil(t *testing.T) {
	l, err := Open(Config{Enabled: false})
	if err != nil || l != nil {
		t.Fatalf("Open(disabled) = %v, %v", l, err)
	}
	if err := l.Log(Event{Action: "/pause_task"}); err != nil {
		t.Fatalf("nil logger Log() error: %v", err)
	}
}

func TestLogger_LogAndVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l := openTestLogger(t, path)

	for _, ev := range []Event{
		{EventType: EventTypeCommand, Actor: "user:3", Action: "/pause_task", Resource: "task:5", Outcome: "handled", Success: true},
		{EventType: EventTypeCommand, Actor: "user:4", Action: "/approve_task", Resource: "task:5", Outcome: "denied"},
		{EventType: EventTypeRateLimitHit, Actor: "user:4", Resource: "task:5"},
	} {
		if err := l.Log(ev); err != nil {
			t.Fatalf("Log() error: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	if n := strings.Count(string(data), "\n"); n != 3 {
		t.Fatalf("expected 3 lines, got %d", n)
	}
	if err := l.Verify(); err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
}

func TestLogger_VerifyDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l := openTestLogger(t, path)

	l.Log(Event{EventType: EventTypeCommand, Actor: "user:3", Action: "/pause_task", Outcome: "denied"})
	l.Log(Event{EventType: EventTypeCommand, Actor: "user:3", Action: "/resume_task", Outcome: "handled", Success: true})

	data, _ := os.ReadFile(path)
	tampered := strings.Replace(string(data), `"outcome":"denied"`, `"outcome":"handled"`, 1)
	if err := os.WriteFile(path, []byte(tampered), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := l.Verify(); !errors.Is(err, ErrChainBroken) {
		t.Fatalf("Verify() = %v, want ErrChainBroken", err)
	}
}

func TestOpen_ResumesChainAndPersistsKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	cfg := Config{Enabled: true, LogFilePath: path}

	first, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	first.Log(Event{EventType: EventTypeCommand, Action: "/list_tasks", Success: true})
	first.Close()

	if _, err := os.Stat(path + ".key"); err != nil {
		t.Fatalf("key file not written: %v", err)
	}

	second, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer second.Close()
	second.Log(Event{EventType: EventTypeCommand, Action: "/ai_help", Success: true})

	if err := second.Verify(); err != nil {
		t.Fatalf("Verify() after reopen: %v", err)
	}
}

func TestLogger_CleanupDropsOldEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l := openTestLogger(t, path)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Log(Event{Timestamp: now.AddDate(0, 0, -45), EventType: EventTypeCommand, Action: "/old"})
	l.Log(Event{Timestamp: now.AddDate(0, 0, -1), EventType: EventTypeCommand, Action: "/recent"})

	if err := l.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error: %v", err)
	}

	events, err := readEvents(path)
	if err != nil {
		t.Fatalf("readEvents: %v", err)
	}
	if len(events) != 1 || events[0].Action != "/recent" {
		t.Fatalf("events after cleanup = %+v", events)
	}
	if err := l.Verify(); err != nil {
		t.Fatalf("Verify() after cleanup: %v", err)
	}
}
