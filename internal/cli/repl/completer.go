package repl

import (
	"sort"
	"strings"
)

// Completer knows the command names the shell accepts.
type Completer struct {
	commands []string
	top      map[string]struct{}
}

// NewCompleter creates a Completer over command paths such as
// "snapshot latest". The first word of each path is a top-level command.
func NewCompleter(commands []string) *Completer {
	c := &Completer{top: make(map[string]struct{})}
	for _, cmd := range commands {
		fields := strings.Fields(cmd)
		if len(fields) == 0 {
			continue
		}
		c.commands = append(c.commands, strings.Join(fields, " "))
		c.top[fields[0]] = struct{}{}
	}
	sort.Strings(c.commands)
	return c
}

// Complete returns the command paths starting with prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// Known reports whether name is a top-level command.
func (c *Completer) Known(name string) bool {
	_, ok := c.top[name]
	return ok
}

// Commands returns every command path in sorted order.
func (c *Completer) Commands() []string {
	return c.commands
}
