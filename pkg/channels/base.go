package channels

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/sipeed/taskclaw/pkg/bus"
)

// Channel is a chat transport that feeds the message bus and delivers
// replies back to its clients.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg bus.OutboundMessage) error
	IsRunning() bool
}

// BaseChannel carries the bookkeeping shared by channel implementations.
type BaseChannel struct {
	name      string
	bus       *bus.MessageBus
	allowList []string
	running   atomic.Bool
}

func NewBaseChannel(name string, msgBus *bus.MessageBus, allowList []string) *BaseChannel {
	return &BaseChannel{name: name, bus: msgBus, allowList: allowList}
}

func (c *BaseChannel) Name() string { return c.name }

func (c *BaseChannel) IsRunning() bool { return c.running.Load() }

func (c *BaseChannel) setRunning(v bool) { c.running.Store(v) }

// IsAllowed reports whether login may post through this channel. An empty
// allow list admits everyone; entries may carry a leading "@".
func (c *BaseChannel) IsAllowed(login string) bool {
	if len(c.allowList) == 0 {
		return true
	}
	login = strings.TrimPrefix(login, "@")
	for _, allowed := range c.allowList {
		if strings.TrimPrefix(allowed, "@") == login {
			return true
		}
	}
	return false
}

// HandleMessage publishes a client message to the bus, dropping senders
// outside the allow list.
func (c *BaseChannel) HandleMessage(login, chatID string, taskID int64, content string, metadata map[string]string) bool {
	if !c.IsAllowed(login) {
		return false
	}
	c.bus.PublishInbound(bus.InboundMessage{
		Channel:     c.name,
		ChatID:      chatID,
		SenderLogin: login,
		TaskID:      taskID,
		Content:     content,
		Metadata:    metadata,
	})
	return true
}
