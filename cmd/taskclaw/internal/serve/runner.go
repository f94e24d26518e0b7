package serve

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sipeed/taskclaw/cmd/taskclaw/internal"
	"github.com/sipeed/taskclaw/pkg/bus"
	"github.com/sipeed/taskclaw/pkg/channels"
	"github.com/sipeed/taskclaw/pkg/chat"
	"github.com/sipeed/taskclaw/pkg/gateway"
	"github.com/sipeed/taskclaw/pkg/logger"
	"github.com/sipeed/taskclaw/pkg/reminders"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleAge       = 30 * time.Minute
	shutdownTimeout      = 10 * time.Second
)

// runner owns every long-lived piece of a serving process.
type runner struct {
	app       *internal.App
	bus       *bus.MessageBus
	channels  *channels.Manager
	loop      *chat.Loop
	server    *gateway.Server
	reminders *reminders.Service

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newRunner(app *internal.App) (*runner, error) {
	cfg := app.Config
	mb := bus.NewMessageBus()

	ws := channels.NewWebSocketChannel(mb, nil)
	manager := channels.NewManager(mb)
	manager.RegisterChannel(ws)

	r := &runner{
		app:      app,
		bus:      mb,
		channels: manager,
		loop:     chat.NewLoop(mb, app.Poster, app.Store),
		server: gateway.NewServer(cfg.Gateway, gateway.Deps{
			Poster:    app.Poster,
			Wizard:    app.Wizard,
			Tasks:     app.Store,
			Users:     app.Store,
			WebSocket: ws,
		}),
	}

	if cfg.Reminders.Enabled {
		svc, err := reminders.New(app.Store, cfg.Reminders.Schedule, app.Localizer)
		if err != nil {
			return nil, err
		}
		r.reminders = svc
	}
	return r, nil
}

func (r *runner) handler() http.Handler {
	return r.server.Handler()
}

func (r *runner) start(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel

	if err := r.app.Audit.Cleanup(); err != nil {
		logger.WarnCF("serve", "Audit cleanup failed", map[string]any{"error": err.Error()})
	}

	if err := r.channels.StartAll(ctx); err != nil {
		return err
	}

	r.goRun(func() { r.loop.Run(ctx) })
	r.goRun(func() { r.app.Limiter.Run(ctx, limiterSweepInterval, limiterIdleAge) })
	if r.reminders != nil {
		r.goRun(func() { r.reminders.Run(ctx) })
	}

	return r.server.Start()
}

func (r *runner) goRun(fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn()
	}()
}

func (r *runner) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := r.server.Stop(ctx); err != nil {
		logger.ErrorCF("serve", "HTTP shutdown failed", map[string]any{"error": err.Error()})
	}
	if r.cancel != nil {
		r.cancel()
	}
	if err := r.channels.StopAll(ctx); err != nil {
		logger.ErrorCF("serve", "Channel shutdown failed", map[string]any{"error": err.Error()})
	}
	r.bus.Close()
	r.wg.Wait()

	if err := r.app.Close(); err != nil {
		logger.ErrorCF("serve", "Store close failed", map[string]any{"error": err.Error()})
	}
	logger.InfoC("serve", "Shutdown complete")
}
