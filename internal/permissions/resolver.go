// Package permissions implements capability resolution for command dispatch:
// a provider registry answering leaf capability checks, two condition-edged
// graphs (inheritance and dependency), and the closure algorithm deciding
// whether a held permission set satisfies a required one.
package permissions

import (
	"sort"
	"strconv"
	"strings"

	"github.com/timescam/koishi/internal/session"
)

// Resolver composes the provider registry with the inherit and depend
// graphs. Construct one per running application and share it across
// invocations; all methods are safe for concurrent use.
type Resolver struct {
	providers providerRegistry
	inherits  *Graph
	depends   *Graph

	// notify is invoked after every topology change so derived caches
	// elsewhere can invalidate. May be nil.
	notify func()
}

// NewResolver creates a Resolver seeded with the built-in authority.* and
// bot.* providers. The notify callback fires whenever the permission
// topology changes; pass nil if nobody listens.
func NewResolver(notify func()) *Resolver {
	r := &Resolver{
		inherits: NewGraph(),
		depends:  NewGraph(),
		notify:   notify,
	}
	r.Provide("authority.*", checkAuthority)
	r.Provide("bot.*", checkBot)
	return r
}

// checkAuthority backs the authority.* provider: true when no authenticated
// actor is attached, or the actor's authority meets the numeric suffix.
func checkAuthority(name string, s *session.Session) (bool, error) {
	if s == nil || s.User == nil {
		return true, nil
	}
	level, err := strconv.Atoi(strings.TrimPrefix(name, "authority."))
	if err != nil {
		return false, nil
	}
	return s.User.Authority >= level, nil
}

// checkBot backs the bot.* provider: true when the active transport actor
// declares support for the capability named by the suffix.
func checkBot(name string, s *session.Session) (bool, error) {
	if s == nil || s.Bot == nil {
		return false, nil
	}
	return s.Bot.Supports(strings.TrimPrefix(name, "bot.")), nil
}

// Provide registers or replaces the provider for a name pattern.
func (r *Resolver) Provide(pattern string, fn Provider) {
	r.providers.provide(pattern, fn)
}

// Check reports whether the session satisfies the named capability.
func (r *Resolver) Check(name string, s *session.Session) bool {
	return r.providers.check(name, s)
}

// Inherit records that holding parent implies holding child whenever one of
// the conditions holds. The edge is stored from child to parent so that an
// inherit-subgraph traversal from a capability climbs to every grantor.
// With no conditions given the edge is unconditionally traversable. The
// returned disposer unlinks the registered conditions.
func (r *Resolver) Inherit(child, parent string, conds ...Condition) func() {
	return r.link(r.inherits, child, parent, conds)
}

// Depend records that exercising dependent requires also holding dependency.
func (r *Resolver) Depend(dependent, dependency string, conds ...Condition) func() {
	return r.link(r.depends, dependent, dependency, conds)
}

func (r *Resolver) link(g *Graph, source, target string, conds []Condition) func() {
	if len(conds) == 0 {
		conds = []Condition{Always()}
	}
	disposers := make([]func(), len(conds))
	for i, cond := range conds {
		disposers[i] = g.Link(source, target, cond)
	}
	r.changed()
	return func() {
		for _, dispose := range disposers {
			dispose()
		}
		r.changed()
	}
}

// Authority links name as a child of authority.<level> in the inherit graph,
// so any actor meeting that authority level automatically holds name.
// A negative level is silently ignored.
func (r *Resolver) Authority(level int, name string) func() {
	if level < 0 {
		return func() {}
	}
	return r.Inherit(name, "authority."+strconv.Itoa(level))
}

// Test reports whether the held permission set satisfies every capability in
// required, following depend edges transitively and accepting any inherited
// parent of a dependency. Provider checks for parents are memoized for the
// duration of the call; the first unsatisfiable dependency short-circuits
// the result to false.
func (r *Resolver) Test(held map[string]bool, required []string, s *session.Session) bool {
	cache := make(map[string]bool)

	for dependency := range r.depends.Subgraph(required, s) {
		parents := r.inherits.Subgraph([]string{dependency}, s)

		satisfied := false
		for parent := range parents {
			if held[parent] {
				satisfied = true
				break
			}
		}
		if satisfied {
			continue
		}

		for parent := range parents {
			ok, seen := cache[parent]
			if !seen {
				ok = r.Check(parent, s)
				cache[parent] = ok
			}
			if ok {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

// List returns the sorted union of source nodes appearing in either graph,
// for introspection.
func (r *Resolver) List() []string {
	seen := make(map[string]bool)
	for _, name := range r.inherits.Sources() {
		seen[name] = true
	}
	for _, name := range r.depends.Sources() {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Resolver) changed() {
	if r.notify != nil {
		r.notify()
	}
}
