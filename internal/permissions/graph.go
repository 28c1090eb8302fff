package permissions

import (
	"sync"

	"github.com/timescam/koishi/internal/session"
)

// condEntry wraps a condition so a disposer can remove exactly the instance
// it registered (func values are not comparable).
type condEntry struct {
	fn Condition
}

// Graph is a directed graph over capability names whose edges carry
// dynamically evaluated conditions. Any string is a valid node; absence of
// edges simply means no relationship.
//
// Reads (traversal) vastly outnumber writes (link/unlink), so the adjacency
// map is guarded by a read-write mutex. Traversal copies each node's edge
// set under the read lock and evaluates conditions outside it, so a link or
// unlink from another invocation mid-traversal may or may not be observed.
// Permission state is "current at call time", not transactionally isolated.
type Graph struct {
	mu    sync.RWMutex
	edges map[string]map[string][]*condEntry
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{edges: make(map[string]map[string][]*condEntry)}
}

// Link appends a condition to the (source, target) edge, creating the edge
// if absent. It returns a disposer removing exactly that condition instance.
func (g *Graph) Link(source, target string, cond Condition) func() {
	entry := &condEntry{fn: cond}

	g.mu.Lock()
	targets, ok := g.edges[source]
	if !ok {
		targets = make(map[string][]*condEntry)
		g.edges[source] = targets
	}
	targets[target] = append(targets[target], entry)
	g.mu.Unlock()

	return func() { g.unlink(source, target, entry) }
}

// unlink removes one condition instance from the (source, target) edge. The
// edge itself persists even when its condition list becomes empty; an edge
// with no conditions is never traversable until a new condition is linked.
func (g *Graph) unlink(source, target string, entry *condEntry) {
	g.mu.Lock()
	defer g.mu.Unlock()

	targets, ok := g.edges[source]
	if !ok {
		return
	}
	conds := targets[target]
	for i, c := range conds {
		if c == entry {
			targets[target] = append(conds[:i:i], conds[i+1:]...)
			return
		}
	}
}

// Sources returns every node that has at least one outgoing edge entry.
func (g *Graph) Sources() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	sources := make([]string, 0, len(g.edges))
	for source := range g.edges {
		sources = append(sources, source)
	}
	return sources
}

// Subgraph performs a breadth-first traversal from the given start nodes and
// returns the set of reachable nodes, including the start nodes themselves.
// An edge is followed when at least one of its conditions evaluates true;
// conditions are evaluated lazily on every call because they depend on the
// session. The visited set makes the traversal cycle-safe.
func (g *Graph) Subgraph(start []string, s *session.Session) map[string]bool {
	visited := make(map[string]bool)
	queue := append([]string(nil), start...)

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if visited[node] {
			continue
		}
		visited[node] = true

		for target, conds := range g.snapshot(node) {
			if visited[target] {
				continue
			}
			if traversable(conds, s) {
				queue = append(queue, target)
			}
		}
	}
	return visited
}

// snapshot copies the outgoing edges of node under the read lock so that
// condition evaluation happens without holding it.
func (g *Graph) snapshot(node string) map[string][]Condition {
	g.mu.RLock()
	defer g.mu.RUnlock()
	targets, ok := g.edges[node]
	if !ok {
		return nil
	}
	out := make(map[string][]Condition, len(targets))
	for target, conds := range targets {
		fns := make([]Condition, len(conds))
		for i, c := range conds {
			fns[i] = c.fn
		}
		out[target] = fns
	}
	return out
}

// traversable reports whether an edge with the given conditions can be
// followed. An edge with zero remaining conditions is never traversable;
// this is an explicit rule, not the vacuous result of folding an empty list.
func traversable(conds []Condition, s *session.Session) bool {
	if len(conds) == 0 {
		return false
	}
	for _, cond := range conds {
		if cond(s) {
			return true
		}
	}
	return false
}
