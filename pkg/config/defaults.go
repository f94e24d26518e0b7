package config

const (
	DefaultListLimit        = 5
	DefaultReminderSchedule = "0 9 * * *"
)

// DefaultConfig returns the default configuration for TaskClaw.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: "~/.taskclaw/taskclaw.db",
		},
		Gateway: GatewayConfig{
			Host:    "127.0.0.1",
			Port:    18795,
			BaseURL: "http://127.0.0.1:18795",
			WSPath:  "/ws",
		},
		Chat: ChatConfig{
			ListLimit: DefaultListLimit,
			Locale:    "en",
		},
		RateLimits: RateLimitsConfig{
			MaxCommandsPerMinute: 30,
		},
		Reminders: RemindersConfig{
			Enabled:  true,
			Schedule: DefaultReminderSchedule,
		},
		LLM: LLMConfig{
			Model: "gpt-4o-mini",
		},
		Audit: AuditConfig{
			Enabled:       false,
			Path:          "~/.taskclaw/audit.log",
			RetentionDays: 90,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// EffectiveListLimit returns the /list_tasks cap, falling back to the default.
func (c ChatConfig) EffectiveListLimit() int {
	if c.ListLimit <= 0 {
		return DefaultListLimit
	}
	return c.ListLimit
}
