package permissions

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/timescam/koishi/internal/session"
)

// Provider answers whether a session satisfies a leaf capability. Providers
// may be registered for an exact name or a prefix-wildcard pattern ending in
// "*" (e.g. "authority.*" matches "authority.3").
type Provider func(name string, s *session.Session) (bool, error)

type providerEntry struct {
	pattern string
	fn      Provider
}

// providerRegistry maps capability-name patterns to predicates. All matching
// predicates must succeed for a capability to hold (logical AND).
type providerRegistry struct {
	mu      sync.RWMutex
	entries []providerEntry
}

// provide registers or replaces the predicate for pattern.
func (r *providerRegistry) provide(pattern string, fn Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, entry := range r.entries {
		if entry.pattern == pattern {
			r.entries[i].fn = fn
			return
		}
	}
	r.entries = append(r.entries, providerEntry{pattern: pattern, fn: fn})
}

// check evaluates every predicate matching name. Exact-pattern matches run
// before wildcard-prefix matches to keep dispatch order deterministic.
// Evaluation short-circuits on the first failing predicate; with no matching
// predicate at all the answer is false (closed-world default deny). A
// predicate error or panic is contained here: it is logged and the check
// fails, but it never propagates to the caller.
func (r *providerRegistry) check(name string, s *session.Session) bool {
	matched := false
	for _, entry := range r.matches(name) {
		matched = true
		ok, err := runProvider(entry, name, s)
		if err != nil {
			slog.Warn("permission provider failed",
				"pattern", entry.pattern,
				"name", name,
				"error", err,
			)
			return false
		}
		if !ok {
			return false
		}
	}
	return matched
}

// matches returns the entries applicable to name, exact patterns first, each
// class in registration order. Snapshot taken under the read lock so a
// concurrent provide cannot interleave with evaluation.
func (r *providerRegistry) matches(name string) []providerEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exact, wildcard []providerEntry
	for _, entry := range r.entries {
		if entry.pattern == name {
			exact = append(exact, entry)
		} else if prefix, ok := strings.CutSuffix(entry.pattern, "*"); ok && strings.HasPrefix(name, prefix) {
			wildcard = append(wildcard, entry)
		}
	}
	return append(exact, wildcard...)
}

// runProvider invokes a predicate with panic containment.
func runProvider(entry providerEntry, name string, s *session.Session) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	return entry.fn(name, s)
}
