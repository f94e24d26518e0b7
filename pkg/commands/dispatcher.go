package commands

import (
	"context"
	"strings"

	"github.com/sipeed/taskclaw/pkg/access"
	"github.com/sipeed/taskclaw/pkg/i18n"
	"github.com/sipeed/taskclaw/pkg/logger"
)

type Outcome int

const (
	OutcomePassthrough Outcome = iota
	OutcomeHandled
	OutcomeUnknown
	OutcomeDenied
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHandled:
		return "handled"
	case OutcomeUnknown:
		return "unknown"
	case OutcomeDenied:
		return "denied"
	default:
		return "passthrough"
	}
}

type Result struct {
	Outcome Outcome
	Command string
	Reply   Reply
	Err     error
}

// Parsed is a message split into command token and raw arguments.
type Parsed struct {
	Command string
	Args    []string
}

// Parse reports whether text is a command. Only text whose first byte is
// '/' qualifies; the rest is split on whitespace without quoting rules.
func Parse(text string) (Parsed, bool) {
	if !strings.HasPrefix(text, "/") {
		return Parsed{}, false
	}
	parts := strings.Fields(text)
	return Parsed{Command: parts[0], Args: parts[1:]}, true
}

// Authorize reports whether author may run def.
func Authorize(def Definition, author access.Author) bool {
	return access.HasAnyRole(author, def.Roles)
}

type Dispatcher struct {
	reg *Registry
	loc *i18n.Localizer
}

// NewDispatcher snapshots reg; later Register calls on reg are not seen.
func NewDispatcher(reg *Registry, loc *i18n.Localizer) *Dispatcher {
	if reg == nil {
		reg = NewRegistry(nil)
	}
	return &Dispatcher{reg: reg.clone(), loc: loc}
}

func (d *Dispatcher) Registry() *Registry {
	return d.reg
}

func (d *Dispatcher) Dispatch(ctx context.Context, text string, author access.Author) Result {
	parsed, ok := Parse(text)
	if !ok {
		return Result{Outcome: OutcomePassthrough, Reply: PassThrough()}
	}

	def, ok := d.reg.Lookup(parsed.Command)
	if !ok {
		logger.DebugCF("commands", "Unknown command", map[string]any{"command": parsed.Command})
		return Result{
			Outcome: OutcomeUnknown,
			Command: parsed.Command,
			Reply:   Text(d.loc.T("Unknown command: %s", parsed.Command)),
		}
	}

	if !Authorize(def, author) {
		logger.InfoCF("commands", "Command denied", map[string]any{
			"command": def.Token(),
			"author":  authorID(author),
		})
		return Result{
			Outcome: OutcomeDenied,
			Command: def.Token(),
			Reply:   Text(d.loc.T("You don't have access to this command.")),
		}
	}

	if def.Handler == nil {
		return Result{
			Outcome: OutcomeHandled,
			Command: def.Token(),
			Reply:   Text(d.loc.T("Command not implemented: %s", def.Token())),
		}
	}

	reply, err := def.Handler(ctx, Request{
		Command:   parsed.Command,
		Args:      parsed.Args,
		Text:      text,
		Author:    author,
		Registry:  d.reg,
		Localizer: d.loc,
	})
	if err != nil {
		logger.ErrorCF("commands", "Command failed", map[string]any{
			"command": def.Token(),
			"author":  authorID(author),
			"error":   err.Error(),
		})
		return Result{
			Outcome: OutcomeHandled,
			Command: def.Token(),
			Reply:   Text(d.loc.T("Command failed, please try again later.")),
			Err:     err,
		}
	}

	logger.DebugCF("commands", "Command handled", map[string]any{
		"command": def.Token(),
		"author":  authorID(author),
		"reply":   reply.Kind.String(),
	})
	return Result{Outcome: OutcomeHandled, Command: def.Token(), Reply: reply}
}

// ParseAndReply is the entry point for the message-posting pipeline. The
// error is non-nil only for store faults raised inside a handler.
func (d *Dispatcher) ParseAndReply(ctx context.Context, text string, author access.Author) (Reply, error) {
	res := d.Dispatch(ctx, text, author)
	if res.Err != nil {
		return Reply{}, res.Err
	}
	return res.Reply, nil
}

func authorID(a access.Author) int64 {
	if a == nil {
		return 0
	}
	return a.ID()
}
