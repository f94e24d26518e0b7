// Package audit keeps a tamper-evident trail of chat commands. Each line is
// a JSON event carrying an HMAC of its content and the previous line's hash.
package audit

import (
	"bufio"
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type EventType string

const (
	EventTypeCommand       EventType = "command"
	EventTypeRateLimitHit  EventType = "rate_limit_hit"
	EventTypeCommandFailed EventType = "command_failed"
)

type Event struct {
	Timestamp    time.Time      `json:"timestamp"`
	EventType    EventType      `json:"event_type"`
	Actor        string         `json:"actor,omitempty"`    // user:<id>
	Action       string         `json:"action"`             // command token
	Resource     string         `json:"resource,omitempty"` // task:<id>
	Outcome      string         `json:"outcome,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	Success      bool           `json:"success"`
	Error        string         `json:"error,omitempty"`
	Hash         string         `json:"hash,omitempty"`
	PreviousHash string         `json:"previous_hash,omitempty"`
}

type Config struct {
	Enabled       bool
	LogFilePath   string
	RetentionDays int
	// SecretKey signs events. When empty a key is read from, or created
	// at, LogFilePath + ".key".
	SecretKey []byte
}

// Logger appends events to the audit file. A nil *Logger is a no-op.
type Logger struct {
	config   Config
	file     *os.File
	mu       sync.Mutex
	lastHash string
	now      func() time.Time
}

var ErrChainBroken = errors.New("audit chain broken")

// Open prepares the audit file and resumes the hash chain from its last
// line. It returns (nil, nil) when auditing is disabled.
func Open(config Config) (*Logger, error) {
	if !config.Enabled {
		return nil, nil
	}
	if config.LogFilePath == "" {
		return nil, fmt.Errorf("audit log path is required")
	}

	if err := os.MkdirAll(filepath.Dir(config.LogFilePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	if len(config.SecretKey) == 0 {
		key, err := loadOrCreateKey(config.LogFilePath + ".key")
		if err != nil {
			return nil, err
		}
		config.SecretKey = key
	}

	last, err := lastHash(config.LogFilePath)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(config.LogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	return &Logger{config: config, file: file, lastHash: last, now: time.Now}, nil
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Log appends event to the chain.
func (l *Logger) Log(event Event) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("audit logger closed")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC()
	}

	event.PreviousHash = l.lastHash
	event.Hash = l.computeHash(event)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}

	l.lastHash = event.Hash
	return nil
}

func (l *Logger) computeHash(event Event) string {
	signData := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%v|%s",
		event.Timestamp.Format(time.RFC3339Nano),
		event.EventType,
		event.Actor,
		event.Action,
		event.Resource,
		event.Outcome,
		event.Success,
		event.PreviousHash,
	)

	h := hmac.New(sha256.New, l.config.SecretKey)
	h.Write([]byte(signData))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify re-reads the audit file and checks every hash and link. The
// first line's previous hash is not checked since Cleanup may have
// dropped its predecessor.
func (l *Logger) Verify() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := readEvents(l.config.LogFilePath)
	if err != nil {
		return err
	}

	var prev string
	for i, event := range events {
		if i > 0 && event.PreviousHash != prev {
			return fmt.Errorf("line %d: %w", i+1, ErrChainBroken)
		}
		if !hmac.Equal([]byte(event.Hash), []byte(l.computeHash(event))) {
			return fmt.Errorf("line %d: event hash mismatch: %w", i+1, ErrChainBroken)
		}
		prev = event.Hash
	}
	return nil
}

// Cleanup drops events older than the retention period.
func (l *Logger) Cleanup() error {
	if l == nil || l.config.RetentionDays <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := readEvents(l.config.LogFilePath)
	if err != nil {
		return err
	}

	cutoff := l.now().AddDate(0, 0, -l.config.RetentionDays)
	var buf bytes.Buffer
	for _, event := range events {
		if !event.Timestamp.After(cutoff) {
			continue
		}
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal audit event: %w", err)
		}
		buf.Write(append(data, '\n'))
	}

	return os.WriteFile(l.config.LogFilePath, buf.Bytes(), 0o600)
}

func readEvents(path string) ([]Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	var events []Event
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var event Event
		if err := json.Unmarshal([]byte(text), &event); err != nil {
			return nil, fmt.Errorf("failed to parse event at line %d: %w", line, err)
		}
		events = append(events, event)
	}
	return events, scanner.Err()
}

func lastHash(path string) (string, error) {
	events, err := readEvents(path)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "", nil
	}
	return events[len(events)-1].Hash, nil
}

func loadOrCreateKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		key, decErr := hex.DecodeString(strings.TrimSpace(string(data)))
		if decErr != nil || len(key) == 0 {
			return nil, fmt.Errorf("invalid audit key file %s", path)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read audit key: %w", err)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate audit key: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write audit key: %w", err)
	}
	return key, nil
}
