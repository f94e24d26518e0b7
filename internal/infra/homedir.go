package infra

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveHomeDir returns the effective home directory for TaskClaw.
// TASKCLAW_HOME wins when set; otherwise ~/.taskclaw.
func ResolveHomeDir() string {
	if envHome := strings.TrimSpace(os.Getenv("TASKCLAW_HOME")); envHome != "" {
		return envHome
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return filepath.Join(os.TempDir(), ".taskclaw")
	}
	return filepath.Join(home, ".taskclaw")
}
