// Package gateway exposes the chat pipeline, the task wizard and the
// WebSocket channel over HTTP.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sipeed/taskclaw/pkg/chat"
	"github.com/sipeed/taskclaw/pkg/config"
	"github.com/sipeed/taskclaw/pkg/logger"
	"github.com/sipeed/taskclaw/pkg/tasks"
	"github.com/sipeed/taskclaw/pkg/wizard"
)

// version is set by the caller (main.go) via SetVersion.
var apiVersion = "dev"

func SetVersion(v string) {
	apiVersion = v
}

// Deps are the services the HTTP handlers call into. WebSocket may be nil.
type Deps struct {
	Poster    *chat.Poster
	Wizard    *wizard.Wizard
	Tasks     tasks.Store
	Users     tasks.UserDirectory
	WebSocket http.Handler
}

type Server struct {
	cfg    config.GatewayConfig
	deps   Deps
	server *http.Server
}

func NewServer(cfg config.GatewayConfig, deps Deps) *Server {
	return &Server{cfg: cfg, deps: deps}
}

// Handler returns the routed, authenticated handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ai_chat/create_task", s.handleCreateTaskRedirect)
	mux.HandleFunc("GET /ai_chat/change_task", s.handleChangeTaskRedirect)
	mux.HandleFunc("POST /api/messages", s.handleMessages)
	mux.HandleFunc("POST /api/wizard", s.handleWizard)
	mux.HandleFunc("GET /api/tasks/{id}/prefill", s.handlePrefill)
	mux.HandleFunc("POST /api/tasks/{id}/actions/{name}", s.handleTaskAction)
	if s.deps.WebSocket != nil {
		wsPath := s.cfg.WSPath
		if wsPath == "" {
			wsPath = "/ws"
		}
		mux.Handle("GET "+wsPath, s.deps.WebSocket)
	}

	publicPaths := []string{"/health", "/ai_chat/create_task"}
	return AuthMiddleware(s.cfg.APIKey, publicPaths, mux)
}

// Start begins listening on the configured host:port.
func (s *Server) Start() error {
	addr := s.cfg.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoCF("gateway", "HTTP server starting", map[string]any{"addr": addr})
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorCF("gateway", "HTTP server error", map[string]any{"error": err.Error()})
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
