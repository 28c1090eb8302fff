package command

import "sync"

// Separator namespaces subcommand names and marks sub-alias shorthand.
const Separator = "."

// Registry owns the alias table and the flat command list for one running
// application. Commands are created through the registry so alias
// uniqueness is enforced at construction.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	list     []*Command

	// onRemove, when set, receives the canonical name of every disposed
	// command (the command-removed notification).
	onRemove func(name string)
}

// NewRegistry creates an empty registry. onRemove may be nil.
func NewRegistry(onRemove func(name string)) *Registry {
	return &Registry{
		commands: make(map[string]*Command),
		onRemove: onRemove,
	}
}

// New creates a root command under the given unique name. A name already
// registered to another command aborts creation with DuplicateAliasError
// and leaves the registry unchanged.
func (r *Registry) New(name string) (*Command, error) {
	return r.create(name, nil)
}

func (r *Registry) create(name string, parent *Command) (*Command, error) {
	cmd := &Command{
		registry: r,
		name:     name,
		aliases:  []string{name},
		parent:   parent,
		options:  make(map[string]bool),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, exists := r.commands[name]; exists && owner != cmd {
		return nil, &DuplicateAliasError{Alias: name, Owner: owner.name}
	}
	r.commands[name] = cmd
	r.list = append(r.list, cmd)
	return cmd, nil
}

// register claims every alias for cmd, or none of them: any collision with
// a different command aborts before the first claim. Claiming an alias the
// command already owns is a no-op.
func (r *Registry) register(aliases []string, cmd *Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, alias := range aliases {
		if owner, exists := r.commands[alias]; exists && owner != cmd {
			return &DuplicateAliasError{Alias: alias, Owner: owner.name}
		}
	}
	for _, alias := range aliases {
		r.commands[alias] = cmd
	}
	return nil
}

// unregister removes the given aliases and drops cmd from the flat list.
func (r *Registry) unregister(cmd *Command, aliases []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, alias := range aliases {
		if r.commands[alias] == cmd {
			delete(r.commands, alias)
		}
	}
	for i, c := range r.list {
		if c == cmd {
			r.list = append(r.list[:i:i], r.list[i+1:]...)
			break
		}
	}
}

// Get resolves a command by any of its aliases, or nil.
func (r *Registry) Get(name string) *Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[name]
}

// List returns a copy of the flat command list in creation order.
func (r *Registry) List() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Command(nil), r.list...)
}

func (r *Registry) notifyRemoved(name string) {
	if r.onRemove != nil {
		r.onRemove(name)
	}
}
