package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sipeed/taskclaw/pkg/access"
)

var ErrDuplicateCommand = errors.New("duplicate command")

// Registry is the command table. It is filled before a Dispatcher is built;
// the Dispatcher works on its own snapshot.
type Registry struct {
	defs  []Definition
	index map[string]int
}

// NewRegistry builds a registry from a fixed table and panics on duplicate
// names, which can only come from a programming error.
func NewRegistry(defs []Definition) *Registry {
	r := &Registry{index: make(map[string]int, len(defs))}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a command to the table.
func (r *Registry) Register(def Definition) error {
	name := strings.TrimPrefix(def.Name, "/")
	if name == "" {
		return fmt.Errorf("register command: empty name")
	}
	if _, ok := r.index[name]; ok {
		return fmt.Errorf("register /%s: %w", name, ErrDuplicateCommand)
	}
	def.Name = name
	r.index[name] = len(r.defs)
	r.defs = append(r.defs, def)
	return nil
}

// Lookup resolves a token such as "/pause_task".
func (r *Registry) Lookup(token string) (Definition, bool) {
	if r == nil || !strings.HasPrefix(token, "/") {
		return Definition{}, false
	}
	i, ok := r.index[token[1:]]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// Available lists, in table order, the commands author may run.
func (r *Registry) Available(author access.Author) []Definition {
	if r == nil {
		return nil
	}
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		if Authorize(d, author) {
			out = append(out, d)
		}
	}
	return out
}

func (r *Registry) definitions() []Definition {
	if r == nil {
		return nil
	}
	return append([]Definition(nil), r.defs...)
}

func (r *Registry) clone() *Registry {
	c := &Registry{index: make(map[string]int, len(r.index))}
	c.defs = append(c.defs, r.defs...)
	for k, v := range r.index {
		c.index[k] = v
	}
	return c
}
