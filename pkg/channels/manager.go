package channels

import (
	"context"
	"fmt"
	"sync"

	"github.com/sipeed/taskclaw/pkg/bus"
	"github.com/sipeed/taskclaw/pkg/logger"
)

// Manager starts the registered channels and routes outbound messages to
// the channel they came from.
type Manager struct {
	channels map[string]Channel
	bus      *bus.MessageBus
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.RWMutex
}

func NewManager(messageBus *bus.MessageBus) *Manager {
	return &Manager{
		channels: make(map[string]Channel),
		bus:      messageBus,
	}
}

func (m *Manager) RegisterChannel(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[ch.Name()] = ch
}

func (m *Manager) GetChannel(name string) (Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[name]
	return ch, ok
}

func (m *Manager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	logger.InfoC("channels", "Starting all channels")
	for name, ch := range m.channels {
		if err := ch.Start(ctx); err != nil {
			return fmt.Errorf("start channel %s: %w", name, err)
		}
	}

	dispatchCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.dispatchOutbound(dispatchCtx, m.done)

	logger.InfoC("channels", "All channels started")
	return nil
}

func (m *Manager) StopAll(ctx context.Context) error {
	logger.InfoC("channels", "Stopping all channels")

	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	// The dispatcher takes the read lock per message; wait without holding it.
	if cancel != nil {
		cancel()
		<-done
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for name, ch := range m.channels {
		if err := ch.Stop(ctx); err != nil {
			logger.ErrorCF("channels", "Error stopping channel", map[string]any{
				"channel": name,
				"error":   err.Error(),
			})
		}
	}
	logger.InfoC("channels", "All channels stopped")
	return nil
}

func (m *Manager) dispatchOutbound(ctx context.Context, done chan struct{}) {
	defer close(done)
	logger.InfoC("channels", "Outbound dispatcher started")

	for {
		msg, ok := m.bus.SubscribeOutbound(ctx)
		if !ok {
			logger.InfoC("channels", "Outbound dispatcher stopped")
			return
		}

		m.mu.RLock()
		ch, exists := m.channels[msg.Channel]
		m.mu.RUnlock()
		if !exists {
			logger.WarnCF("channels", "Unknown channel for outbound message", map[string]any{
				"channel": msg.Channel,
			})
			continue
		}

		if err := ch.Send(ctx, msg); err != nil {
			logger.ErrorCF("channels", "Error sending message to channel", map[string]any{
				"channel": msg.Channel,
				"chat_id": msg.ChatID,
				"error":   err.Error(),
			})
		}
	}
}
