package permissions

import (
	"testing"

	"github.com/timescam/koishi/internal/session"
)

func TestGraphLinkAndSubgraph(t *testing.T) {
	g := NewGraph()
	g.Link("a", "b", Always())
	g.Link("b", "c", Always())

	reachable := g.Subgraph([]string{"a"}, nil)
	for _, node := range []string{"a", "b", "c"} {
		if !reachable[node] {
			t.Fatalf("expected %q to be reachable from a", node)
		}
	}
	if reachable["d"] {
		t.Fatalf("unrelated node reported reachable")
	}
}

func TestGraphEdgeConditionsAreOred(t *testing.T) {
	g := NewGraph()
	g.Link("a", "b", Never())
	g.Link("a", "b", Always())

	if !g.Subgraph([]string{"a"}, nil)["b"] {
		t.Fatalf("edge with one passing condition must be traversable")
	}

	g2 := NewGraph()
	g2.Link("a", "b", Never())
	g2.Link("a", "b", Never())
	if g2.Subgraph([]string{"a"}, nil)["b"] {
		t.Fatalf("edge with only failing conditions must not be traversable")
	}
}

func TestGraphEmptyEdgeNeverTraversable(t *testing.T) {
	g := NewGraph()
	dispose := g.Link("a", "b", Always())
	dispose()

	if g.Subgraph([]string{"a"}, nil)["b"] {
		t.Fatalf("edge with zero conditions must not be traversable")
	}

	// Re-linking reactivates the same edge.
	g.Link("a", "b", Always())
	if !g.Subgraph([]string{"a"}, nil)["b"] {
		t.Fatalf("re-linked edge must be traversable again")
	}
}

func TestGraphDisposerRemovesOnlyItsCondition(t *testing.T) {
	g := NewGraph()
	disposeFirst := g.Link("a", "b", Always())
	disposeSecond := g.Link("a", "b", Always())

	disposeFirst()
	if !g.Subgraph([]string{"a"}, nil)["b"] {
		t.Fatalf("second condition must survive disposal of the first")
	}

	// Disposing twice is harmless.
	disposeFirst()
	disposeSecond()
	if g.Subgraph([]string{"a"}, nil)["b"] {
		t.Fatalf("edge must deactivate once every condition is disposed")
	}
}

func TestGraphSubgraphHandlesCycles(t *testing.T) {
	g := NewGraph()
	g.Link("a", "b", Always())
	g.Link("b", "a", Always())
	g.Link("b", "c", Always())

	reachable := g.Subgraph([]string{"a"}, nil)
	if len(reachable) != 3 {
		t.Fatalf("expected 3 reachable nodes, got %d", len(reachable))
	}
}

func TestGraphConditionsSeeSession(t *testing.T) {
	g := NewGraph()
	g.Link("a", "b", func(s *session.Session) bool {
		return s != nil && s.Platform == "discord"
	})

	if g.Subgraph([]string{"a"}, nil)["b"] {
		t.Fatalf("condition must fail for nil session")
	}
	s := &session.Session{Platform: "discord"}
	if !g.Subgraph([]string{"a"}, s)["b"] {
		t.Fatalf("condition must pass for matching session")
	}
}

func TestGraphSources(t *testing.T) {
	g := NewGraph()
	g.Link("a", "b", Always())
	g.Link("c", "d", Always())

	sources := g.Sources()
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	seen := map[string]bool{}
	for _, name := range sources {
		seen[name] = true
	}
	if !seen["a"] || !seen["c"] {
		t.Fatalf("unexpected sources %v", sources)
	}
}
