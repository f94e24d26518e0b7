package chat

import (
	"context"
	"errors"

	"github.com/sipeed/taskclaw/pkg/bus"
	"github.com/sipeed/taskclaw/pkg/logger"
	"github.com/sipeed/taskclaw/pkg/tasks"
)

const msgRateLimited = "Too many commands, try again in a minute."

// Loop feeds bus inbound messages through a Poster and publishes the
// outcome back to the originating chat.
type Loop struct {
	bus    *bus.MessageBus
	poster *Poster
	users  tasks.UserDirectory
}

func NewLoop(mb *bus.MessageBus, poster *Poster, users tasks.UserDirectory) *Loop {
	return &Loop{bus: mb, poster: poster, users: users}
}

// Run processes messages until ctx is done or the bus is closed.
func (l *Loop) Run(ctx context.Context) {
	logger.InfoC("chat", "Chat loop started")
	for {
		msg, ok := l.bus.ConsumeInbound(ctx)
		if !ok {
			logger.InfoC("chat", "Chat loop stopped")
			return
		}
		l.bus.PublishOutbound(l.Handle(ctx, msg))
	}
}

// Handle resolves the sender and posts one message.
func (l *Loop) Handle(ctx context.Context, msg bus.InboundMessage) bus.OutboundMessage {
	out := bus.OutboundMessage{Channel: msg.Channel, ChatID: msg.ChatID, TaskID: msg.TaskID}
	loc := l.poster.loc

	user, err := l.users.FindByLogin(ctx, msg.SenderLogin)
	if err != nil {
		logger.ErrorCF("chat", "User lookup failed", map[string]any{"login": msg.SenderLogin, "error": err.Error()})
		out.Kind = "error"
		out.Content = loc.T(msgFailure)
		return out
	}
	if user == nil {
		out.Kind = "error"
		out.Content = loc.T("User not found: %s", msg.SenderLogin)
		return out
	}

	res, err := l.poster.Post(ctx, Message{TaskID: msg.TaskID, Author: user, Body: msg.Content})
	switch {
	case errors.Is(err, ErrRateLimited):
		out.Kind = "error"
		out.Content = loc.T(msgRateLimited)
		return out
	case err != nil:
		logger.ErrorCF("chat", "Post failed", map[string]any{"task_id": msg.TaskID, "error": err.Error()})
		out.Kind = "error"
		out.Content = loc.T(msgFailure)
		return out
	}

	out.Kind = res.Reply.Kind.String()
	out.Content = res.Body
	if res.Failed {
		out.Kind = "error"
		out.Content = res.Reply.Text
	}
	out.Action = res.Reply.Action
	return out
}
