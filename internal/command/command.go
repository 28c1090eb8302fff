// Package command implements the command registry and the declarative
// command unit: aliases, parent/child trees, checkers, actions, and
// per-command configuration.
package command

import (
	"fmt"
	"strings"
	"sync"
)

// Checker is a pre-execution guard. A non-empty result short-circuits the
// pipeline and becomes the final output; a returned error enters the
// pipeline's recovery path.
type Checker func(argv *Argv) (string, error)

// Action is one unit of a command's business logic. Actions may call
// argv.Next to fall through to the following continuation.
type Action func(argv *Argv) (string, error)

// ErrorHandler is a custom error policy: it may produce a replacement
// result for an error recovered by the pipeline.
type ErrorHandler func(argv *Argv, err error) (string, error)

// Config holds per-command dispatch configuration. The zero value recovers
// errors with a generic localized message and applies no gating.
type Config struct {
	// Authority is the minimum actor authority required to run the command.
	Authority int
	// Permissions lists capability names required in addition to the
	// implicit command.<name> capability.
	Permissions []string
	// Handler, when set, produces the result for recovered errors.
	Handler ErrorHandler
	// Propagate re-throws recovered errors to the caller instead of
	// rendering the generic internal-error message. Ignored when Handler
	// is set.
	Propagate bool
	// CheckUnknown rejects invocations carrying options the command never
	// declared.
	CheckUnknown bool
	// CheckArgCount rejects invocations whose positional argument count
	// falls outside [MinArgs, MaxArgs]. MaxArgs zero means unbounded.
	CheckArgCount bool
	MinArgs       int
	MaxArgs       int
}

// callback pairs a registered checker or action with an identity so its
// disposer removes exactly that entry.
type callback[T any] struct {
	id uint64
	fn T
}

// Command is a declarative dispatch unit owned by a Registry.
type Command struct {
	registry *Registry
	name     string

	mu            sync.RWMutex
	aliases       []string
	parent        *Command
	children      []*Command
	config        Config
	options       map[string]bool
	userFields    []string
	channelFields []string
	checkers      []callback[Checker]
	actions       []callback[Action]
	disposers     []func()
	nextID        uint64
	disposed      bool
}

// Name returns the canonical command name (the registration key).
func (c *Command) Name() string { return c.name }

// DisplayName returns the first alias, which prepend-alias calls can change.
func (c *Command) DisplayName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.aliases[0]
}

// Aliases returns a copy of the current alias list.
func (c *Command) Aliases() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.aliases...)
}

// Parent returns the parent command, or nil for a root command.
func (c *Command) Parent() *Command {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.parent
}

// Children returns a copy of the child command list.
func (c *Command) Children() []*Command {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Command(nil), c.children...)
}

// Config returns a snapshot of the command configuration.
func (c *Command) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg := c.config
	cfg.Permissions = append([]string(nil), c.config.Permissions...)
	return cfg
}

// Configure applies fn to the command configuration under the lock.
func (c *Command) Configure(fn func(*Config)) *Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.config)
	return c
}

// Authority sets the minimum authority required to run the command.
func (c *Command) Authority(level int) *Command {
	return c.Configure(func(cfg *Config) { cfg.Authority = level })
}

// Require adds capability names the invoking actor must hold.
func (c *Command) Require(names ...string) *Command {
	return c.Configure(func(cfg *Config) {
		cfg.Permissions = append(cfg.Permissions, names...)
	})
}

// Option declares option names the command understands, used by the
// unknown-option strictness check.
func (c *Command) Option(names ...string) *Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range names {
		c.options[name] = true
	}
	return c
}

// UserFields declares user record fields the dispatcher must load before
// the pipeline runs.
func (c *Command) UserFields(names ...string) *Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userFields = append(c.userFields, names...)
	return c
}

// ChannelFields declares channel record fields the dispatcher must load.
func (c *Command) ChannelFields(names ...string) *Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channelFields = append(c.channelFields, names...)
	return c
}

// RequiredUserFields returns the declared user field names.
func (c *Command) RequiredUserFields() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.userFields...)
}

// RequiredChannelFields returns the declared channel field names.
func (c *Command) RequiredChannelFields() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.channelFields...)
}

// KnownOption reports whether the command declared the named option.
func (c *Command) KnownOption(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.options[name]
}

// Before registers a pre-execution checker and returns a disposer removing
// exactly that checker. Checkers are prepended by default so later
// registrations guard earlier ones; pass tail=true to append instead.
func (c *Command) Before(fn Checker, tail bool) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	entry := callback[Checker]{id: c.nextID, fn: fn}
	if tail {
		c.checkers = append(c.checkers, entry)
	} else {
		c.checkers = append([]callback[Checker]{entry}, c.checkers...)
	}
	id := entry.id
	return func() { c.removeChecker(id) }
}

// Action appends a business-logic callback and returns a disposer removing
// exactly that callback.
func (c *Command) Action(fn Action) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	entry := callback[Action]{id: c.nextID, fn: fn}
	c.actions = append(c.actions, entry)
	id := entry.id
	return func() { c.removeAction(id) }
}

// OnDispose attaches an external cleanup hook (e.g. a permission link
// disposer) that runs when the command is disposed.
func (c *Command) OnDispose(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposers = append(c.disposers, fn)
}

// Checkers returns the current checker list in execution order.
func (c *Command) Checkers() []Checker {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Checker, len(c.checkers))
	for i, entry := range c.checkers {
		out[i] = entry.fn
	}
	return out
}

// Actions returns the current action list in execution order.
func (c *Command) Actions() []Action {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Action, len(c.actions))
	for i, entry := range c.actions {
		out[i] = entry.fn
	}
	return out
}

func (c *Command) removeChecker(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, entry := range c.checkers {
		if entry.id == id {
			c.checkers = append(c.checkers[:i:i], c.checkers[i+1:]...)
			return
		}
	}
}

func (c *Command) removeAction(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, entry := range c.actions {
		if entry.id == id {
			c.actions = append(c.actions[:i:i], c.actions[i+1:]...)
			return
		}
	}
}

// resolveAlias expands sub-alias shorthand: a name starting with the
// separator is resolved relative to the parent's name. A root command
// simply drops the separator.
func (c *Command) resolveAlias(name string) string {
	if !strings.HasPrefix(name, Separator) {
		return name
	}
	if parent := c.Parent(); parent != nil {
		return parent.name + name
	}
	return strings.TrimPrefix(name, Separator)
}

// Alias registers additional names for the command. Re-adding an alias the
// command already owns is a no-op; colliding with a different command is a
// construction error and leaves the registry unchanged.
func (c *Command) Alias(names ...string) error {
	return c.addAliases(names, false)
}

// AliasPrepend behaves like Alias but moves the alias to the front of the
// alias list, changing DisplayName.
func (c *Command) AliasPrepend(names ...string) error {
	return c.addAliases(names, true)
}

func (c *Command) addAliases(names []string, prepend bool) error {
	resolved := make([]string, len(names))
	for i, raw := range names {
		resolved[i] = c.resolveAlias(raw)
	}
	if err := c.registry.register(resolved, c); err != nil {
		return err
	}
	for _, name := range resolved {
		c.mu.Lock()
		if i := indexOf(c.aliases, name); i >= 0 {
			if prepend && i > 0 {
				c.aliases = append(c.aliases[:i], c.aliases[i+1:]...)
				c.aliases = append([]string{name}, c.aliases...)
			}
		} else if prepend {
			c.aliases = append([]string{name}, c.aliases...)
		} else {
			c.aliases = append(c.aliases, name)
		}
		c.mu.Unlock()
	}
	return nil
}

// Subcommand creates a child command namespaced under this command's name.
func (c *Command) Subcommand(name string) (*Command, error) {
	full := c.name + Separator + name
	child, err := c.registry.create(full, c)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.children = append(c.children, child)
	c.mu.Unlock()
	return child, nil
}

// Dispose tears the command down: it runs registered cleanup hooks, emits a
// command-removed notification, recursively disposes children, unregisters
// every alias, and detaches from the parent. Safe to call more than once.
func (c *Command) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	disposers := c.disposers
	children := append([]*Command(nil), c.children...)
	aliases := append([]string(nil), c.aliases...)
	parent := c.parent
	c.disposers = nil
	c.checkers = nil
	c.actions = nil
	c.children = nil
	c.mu.Unlock()

	for _, dispose := range disposers {
		dispose()
	}

	c.registry.notifyRemoved(c.name)

	for _, child := range children {
		child.Dispose()
	}

	c.registry.unregister(c, aliases)

	if parent != nil {
		parent.detach(c)
	}
}

func (c *Command) detach(child *Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cc := range c.children {
		if cc == child {
			c.children = append(c.children[:i:i], c.children[i+1:]...)
			return
		}
	}
}

func indexOf(list []string, name string) int {
	for i, item := range list {
		if item == name {
			return i
		}
	}
	return -1
}

// DuplicateAliasError is the fatal construction error produced when an alias
// already belongs to a different command.
type DuplicateAliasError struct {
	Alias string
	Owner string
}

func (e *DuplicateAliasError) Error() string {
	return fmt.Sprintf("duplicate command alias %q (already registered to %q)", e.Alias, e.Owner)
}
