package commands

import (
	"context"

	"github.com/sipeed/taskclaw/pkg/access"
	"github.com/sipeed/taskclaw/pkg/i18n"
)

// Handler runs one command. User-facing failures are returned as a Reply;
// the error is reserved for store faults.
type Handler func(ctx context.Context, req Request) (Reply, error)

type Definition struct {
	Name        string // without the leading slash
	Description string
	Usage       string
	Roles       []access.Role // any-of
	Handler     Handler
}

// Token is the chat form of the command, e.g. "/pause_task".
func (d Definition) Token() string {
	return "/" + d.Name
}

type Request struct {
	Command   string   // token as typed
	Args      []string // whitespace-split, unparsed
	Text      string
	Author    access.Author
	Registry  *Registry
	Localizer *i18n.Localizer
}

// T localizes a reply string.
func (r Request) T(key string, args ...any) string {
	return r.Localizer.T(key, args...)
}
