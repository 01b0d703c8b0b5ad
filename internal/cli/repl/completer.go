package repl

import (
	"sort"
	"strings"
)

// Builtins are handled by the shell itself.
var Builtins = []string{"exit", "quit", "history", "help"}

// Completer knows the command words of the shell.
type Completer struct {
	commands []string
	top      map[string]bool
}

// NewCompleter creates a Completer for the given command lines, such as
// "apps" or "apps list". Builtins are always included.
func NewCompleter(commands []string) *Completer {
	c := &Completer{top: make(map[string]bool)}

	seen := make(map[string]bool)
	for _, cmd := range append(append([]string(nil), commands...), Builtins...) {
		cmd = strings.Join(strings.Fields(cmd), " ")
		if cmd == "" || seen[cmd] {
			continue
		}
		seen[cmd] = true
		c.commands = append(c.commands, cmd)
		first, _, _ := strings.Cut(cmd, " ")
		c.top[first] = true
	}
	sort.Strings(c.commands)
	return c
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// Known reports whether word is a top-level command.
func (c *Completer) Known(word string) bool {
	return c.top[word]
}

// Suggest returns top-level commands that start with the first letter of
// word, for "did you mean" hints.
func (c *Completer) Suggest(word string) []string {
	if word == "" {
		return nil
	}
	var out []string
	for _, cmd := range c.commands {
		if !strings.Contains(cmd, " ") && cmd[0] == word[0] {
			out = append(out, cmd)
		}
	}
	return out
}
