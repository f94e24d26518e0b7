package internal

import (
	"fmt"
	"runtime"

	"github.com/sipeed/taskclaw/pkg/audit"
	"github.com/sipeed/taskclaw/pkg/chat"
	"github.com/sipeed/taskclaw/pkg/commands"
	"github.com/sipeed/taskclaw/pkg/config"
	"github.com/sipeed/taskclaw/pkg/i18n"
	"github.com/sipeed/taskclaw/pkg/logger"
	"github.com/sipeed/taskclaw/pkg/ratelimit"
	"github.com/sipeed/taskclaw/pkg/store"
	"github.com/sipeed/taskclaw/pkg/tagging"
	"github.com/sipeed/taskclaw/pkg/wizard"
)

const Logo = "📋"

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

func GetConfigPath() string {
	return config.ResolveRuntimePaths().ConfigPath
}

func LoadConfig() (*config.Config, error) {
	return config.LoadConfig(GetConfigPath())
}

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}

// GetVersion returns the version string
func GetVersion() string {
	return version
}

// SetupLogging applies the configured level and optional JSON log file.
// debug overrides the configured level.
func SetupLogging(cfg *config.Config, debug bool) error {
	if lvl, ok := logger.ParseLevel(cfg.Log.Level); ok {
		logger.SetLevel(lvl)
	}
	if debug {
		logger.SetLevel(logger.DEBUG)
	}
	if cfg.Log.File != "" {
		return logger.EnableFileLogging(cfg.Log.File)
	}
	return nil
}

// App bundles the services every subcommand builds from one config.
type App struct {
	Config     *config.Config
	Store      *store.Store
	Localizer  *i18n.Localizer
	Dispatcher *commands.Dispatcher
	Limiter    *ratelimit.Limiter
	Poster     *chat.Poster
	Wizard     *wizard.Wizard
	Audit      *audit.Logger
}

// NewApp opens the store and wires the chat command pipeline around it.
func NewApp(cfg *config.Config) (*App, error) {
	st, err := store.Open(cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	loc := i18n.New(cfg.Chat.Locale)
	reg := commands.NewRegistry(commands.TaskDefinitions(commands.Deps{
		Tasks:     st,
		Users:     st,
		BaseURL:   cfg.Gateway.PublicBaseURL(),
		ListLimit: cfg.Chat.EffectiveListLimit(),
	}))
	dispatcher := commands.NewDispatcher(reg, loc)

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Enabled:           cfg.RateLimits.MaxCommandsPerMinute > 0,
		CommandsPerMinute: cfg.RateLimits.MaxCommandsPerMinute,
	})

	trail, err := audit.Open(audit.Config{
		Enabled:       cfg.Audit.Enabled,
		LogFilePath:   cfg.AuditPath(),
		RetentionDays: cfg.Audit.RetentionDays,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("opening audit log: %w", err)
	}

	poster := chat.NewPoster(dispatcher, st, limiter, loc)
	poster.SetAudit(trail)

	return &App{
		Config:     cfg,
		Store:      st,
		Localizer:  loc,
		Dispatcher: dispatcher,
		Limiter:    limiter,
		Poster:     poster,
		Wizard:     wizard.New(st, tagging.New(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)),
		Audit:      trail,
	}, nil
}

func (a *App) Close() error {
	if err := a.Audit.Close(); err != nil {
		logger.WarnCF("app", "Audit close failed", map[string]any{"error": err.Error()})
	}
	return a.Store.Close()
}

// OpenApp loads the config and builds an App from it.
func OpenApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return NewApp(cfg)
}
