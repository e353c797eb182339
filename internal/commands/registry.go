package commands

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry holds registered commands, addressable by name or alias.
type Registry struct {
	mu      sync.RWMutex
	cmds    map[string]Command // primary name -> command
	aliases map[string]string  // alias -> primary name
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		cmds:    make(map[string]Command),
		aliases: make(map[string]string),
	}
}

// Register adds a command to the registry.
// Names and aliases share one namespace; a clash is an error.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if r.taken(name) {
		return fmt.Errorf("command already registered: %s", name)
	}
	for _, alias := range c.Aliases() {
		if alias == name || r.taken(alias) {
			return fmt.Errorf("command alias already registered: %s", alias)
		}
	}

	r.cmds[name] = c
	for _, alias := range c.Aliases() {
		r.aliases[alias] = name
	}
	return nil
}

func (r *Registry) taken(name string) bool {
	_, isCmd := r.cmds[name]
	_, isAlias := r.aliases[name]
	return isCmd || isAlias
}

// Find looks up a command by name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if primary, ok := r.aliases[name]; ok {
		name = primary
	}
	cmd, ok := r.cmds[name]
	return cmd, ok
}

// All returns every command once, sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Command, 0, len(r.cmds))
	for _, cmd := range r.cmds {
		all = append(all, cmd)
	}
	slices.SortFunc(all, func(a, b Command) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return all
}

// DefaultRegistry is the global command registry.
var DefaultRegistry = NewRegistry()

// Register adds a command to the default registry.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
