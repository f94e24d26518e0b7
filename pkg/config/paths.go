package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sipeed/taskclaw/internal/infra"
)

const EnvTaskClawConfig = "TASKCLAW_CONFIG"

type RuntimePaths struct {
	HomeDir    string
	ConfigPath string
	LogPath    string
}

func ResolveRuntimePaths() RuntimePaths {
	if configPath := expandHome(strings.TrimSpace(os.Getenv(EnvTaskClawConfig))); configPath != "" {
		return buildRuntimePaths(filepath.Dir(configPath), configPath)
	}

	homeDir := expandHome(infra.ResolveHomeDir())
	return buildRuntimePaths(homeDir, filepath.Join(homeDir, "config.json"))
}

func buildRuntimePaths(homeDir, configPath string) RuntimePaths {
	return RuntimePaths{
		HomeDir:    homeDir,
		ConfigPath: configPath,
		LogPath:    filepath.Join(homeDir, "taskclaw.log"),
	}
}
