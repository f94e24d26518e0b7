// Package chat is the message-posting pipeline of a task thread: every
// posted message goes through the command dispatcher before it is stored.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/sipeed/taskclaw/pkg/access"
	"github.com/sipeed/taskclaw/pkg/audit"
	"github.com/sipeed/taskclaw/pkg/commands"
	"github.com/sipeed/taskclaw/pkg/i18n"
	"github.com/sipeed/taskclaw/pkg/logger"
	"github.com/sipeed/taskclaw/pkg/ratelimit"
)

var ErrRateLimited = errors.New("rate limited")

const msgFailure = "Command failed, please try again later."

// MessageStore persists user-authored thread messages.
type MessageStore interface {
	PostMessage(ctx context.Context, taskID, authorID int64, body string) (string, error)
}

type Message struct {
	TaskID int64
	Author access.Author
	Body   string
}

// Result describes what happened to a posted message. MessageID is empty
// when nothing was stored: UI actions and failed commands.
type Result struct {
	Reply     commands.Reply
	MessageID string
	Body      string
	Failed    bool
}

type Poster struct {
	dispatcher *commands.Dispatcher
	store      MessageStore
	limiter    *ratelimit.Limiter
	loc        *i18n.Localizer
	audit      *audit.Logger
}

func NewPoster(d *commands.Dispatcher, store MessageStore, limiter *ratelimit.Limiter, loc *i18n.Localizer) *Poster {
	return &Poster{dispatcher: d, store: store, limiter: limiter, loc: loc}
}

// SetAudit records every command and rate-limit hit to a. nil disables it.
func (p *Poster) SetAudit(a *audit.Logger) {
	p.audit = a
}

// Post runs msg through the dispatcher. A plain message is stored as
// posted, a text reply replaces the body, and a UI action is returned
// without storing anything.
func (p *Poster) Post(ctx context.Context, msg Message) (Result, error) {
	text := PlainText(msg.Body)

	if _, isCommand := commands.Parse(text); isCommand && !p.limiter.Allow(limiterKey(msg.Author)) {
		logger.WarnCF("chat", "Command rate limited", map[string]any{
			"task_id": msg.TaskID,
			"author":  limiterKey(msg.Author),
		})
		p.record(audit.Event{
			EventType: audit.EventTypeRateLimitHit,
			Actor:     limiterKey(msg.Author),
			Resource:  taskResource(msg.TaskID),
		})
		return Result{}, ErrRateLimited
	}

	res := p.dispatcher.Dispatch(ctx, text, msg.Author)
	if res.Err != nil {
		logger.ErrorCF("chat", "Command failed", map[string]any{
			"task_id": msg.TaskID,
			"error":   res.Err.Error(),
		})
		p.record(audit.Event{
			EventType: audit.EventTypeCommandFailed,
			Actor:     limiterKey(msg.Author),
			Action:    res.Command,
			Resource:  taskResource(msg.TaskID),
			Outcome:   res.Outcome.String(),
			Error:     res.Err.Error(),
		})
		return Result{Reply: commands.Text(p.loc.T(msgFailure)), Failed: true}, nil
	}
	if res.Outcome != commands.OutcomePassthrough {
		p.record(audit.Event{
			EventType: audit.EventTypeCommand,
			Actor:     limiterKey(msg.Author),
			Action:    res.Command,
			Resource:  taskResource(msg.TaskID),
			Outcome:   res.Outcome.String(),
			Success:   res.Outcome == commands.OutcomeHandled,
		})
	}
	reply := res.Reply

	var body string
	switch reply.Kind {
	case commands.ReplyAction:
		return Result{Reply: reply}, nil
	case commands.ReplyText:
		body = reply.Text
	default:
		body = msg.Body
	}

	var authorID int64
	if msg.Author != nil {
		authorID = msg.Author.ID()
	}
	id, err := p.store.PostMessage(ctx, msg.TaskID, authorID, body)
	if err != nil {
		return Result{}, fmt.Errorf("store message on task %d: %w", msg.TaskID, err)
	}
	return Result{Reply: reply, MessageID: id, Body: body}, nil
}

func limiterKey(a access.Author) string {
	if a == nil {
		return "anonymous"
	}
	return fmt.Sprintf("user:%d", a.ID())
}

func taskResource(taskID int64) string {
	return fmt.Sprintf("task:%d", taskID)
}

func (p *Poster) record(ev audit.Event) {
	if err := p.audit.Log(ev); err != nil {
		logger.WarnCF("chat", "Audit write failed", map[string]any{"error": err.Error()})
	}
}
