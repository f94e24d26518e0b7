package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Store      StoreConfig      `json:"store" label:"Store"`
	Gateway    GatewayConfig    `json:"gateway" label:"Gateway"`
	Chat       ChatConfig       `json:"chat" label:"Chat Commands"`
	RateLimits RateLimitsConfig `json:"rate_limits" label:"Rate Limits"`
	Reminders  RemindersConfig  `json:"reminders" label:"Deadline Reminders"`
	LLM        LLMConfig        `json:"llm" label:"LLM"`
	Audit      AuditConfig      `json:"audit" label:"Command Audit"`
	Log        LogConfig        `json:"log" label:"Logging"`
	mu         sync.RWMutex
}

type StoreConfig struct {
	Path string `json:"path" label:"Database Path" env:"TASKCLAW_STORE_PATH"`
}

type GatewayConfig struct {
	Host    string `json:"host" label:"Host" env:"TASKCLAW_GATEWAY_HOST"`
	Port    int    `json:"port" label:"Port" env:"TASKCLAW_GATEWAY_PORT"`
	APIKey  string `json:"api_key" label:"API Key" env:"TASKCLAW_GATEWAY_API_KEY"`
	BaseURL string `json:"base_url" label:"Public Base URL" env:"TASKCLAW_GATEWAY_BASE_URL"`
	WSPath  string `json:"ws_path" label:"WebSocket Path" env:"TASKCLAW_GATEWAY_WS_PATH"`
}

type ChatConfig struct {
	ListLimit int    `json:"list_limit" label:"List Limit" env:"TASKCLAW_CHAT_LIST_LIMIT"`
	Locale    string `json:"locale" label:"Locale" env:"TASKCLAW_CHAT_LOCALE"`
}

type RateLimitsConfig struct {
	MaxCommandsPerMinute int `json:"max_commands_per_minute" label:"Max Commands Per Minute" env:"TASKCLAW_RATE_LIMITS_MAX_COMMANDS_PER_MINUTE"` // 0 = unlimited
}

type RemindersConfig struct {
	Enabled  bool   `json:"enabled" label:"Enabled" env:"TASKCLAW_REMINDERS_ENABLED"`
	Schedule string `json:"schedule" label:"Cron Schedule" env:"TASKCLAW_REMINDERS_SCHEDULE"`
}

type LLMConfig struct {
	Model   string `json:"model" label:"Model" env:"TASKCLAW_LLM_MODEL"`
	APIKey  string `json:"api_key" label:"API Key" env:"TASKCLAW_LLM_API_KEY"`
	BaseURL string `json:"base_url" label:"Base URL" env:"TASKCLAW_LLM_BASE_URL"`
}

type AuditConfig struct {
	Enabled       bool   `json:"enabled" label:"Enabled" env:"TASKCLAW_AUDIT_ENABLED"`
	Path          string `json:"path" label:"Audit Log Path" env:"TASKCLAW_AUDIT_PATH"`
	RetentionDays int    `json:"retention_days" label:"Retention Days" env:"TASKCLAW_AUDIT_RETENTION_DAYS"`
}

type LogConfig struct {
	Level string `json:"level" label:"Level" env:"TASKCLAW_LOG_LEVEL"`
	File  string `json:"file" label:"File" env:"TASKCLAW_LOG_FILE"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

func (c *Config) RLock()   { c.mu.RLock() }
func (c *Config) RUnlock() { c.mu.RUnlock() }

// StorePath returns the sqlite database path with ~ expanded.
func (c *Config) StorePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Store.Path)
}

// AuditPath returns the audit log path with ~ expanded.
func (c *Config) AuditPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return expandHome(c.Audit.Path)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
