package permissions

import (
	"sort"
	"testing"

	"github.com/timescam/koishi/internal/session"
)

type fakeBot struct {
	platform     string
	capabilities map[string]bool
}

func (b *fakeBot) Platform() string { return b.platform }

func (b *fakeBot) Supports(capability string) bool { return b.capabilities[capability] }

func sessionWithAuthority(level int) *session.Session {
	return &session.Session{User: &session.User{ID: "u1", Authority: level}}
}

func TestAuthorityProvider(t *testing.T) {
	r := NewResolver(nil)

	tests := []struct {
		name    string
		session *session.Session
		cap     string
		want    bool
	}{
		{"nil session is unrestricted", nil, "authority.4", true},
		{"nil user is unrestricted", &session.Session{}, "authority.4", true},
		{"sufficient authority", sessionWithAuthority(3), "authority.2", true},
		{"equal authority", sessionWithAuthority(2), "authority.2", true},
		{"insufficient authority", sessionWithAuthority(1), "authority.2", false},
		{"non-numeric suffix", sessionWithAuthority(5), "authority.admin", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Check(tt.cap, tt.session); got != tt.want {
				t.Fatalf("Check(%q) = %v, want %v", tt.cap, got, tt.want)
			}
		})
	}
}

func TestBotProvider(t *testing.T) {
	r := NewResolver(nil)
	bot := &fakeBot{platform: "discord", capabilities: map[string]bool{"sendMessage": true}}

	if !r.Check("bot.sendMessage", &session.Session{Bot: bot}) {
		t.Fatalf("supported bot capability must pass")
	}
	if r.Check("bot.deleteMessage", &session.Session{Bot: bot}) {
		t.Fatalf("unsupported bot capability must fail")
	}
	if r.Check("bot.sendMessage", &session.Session{}) {
		t.Fatalf("bot capability without a bot must fail")
	}
}

func TestTestAcceptsHeldPermission(t *testing.T) {
	r := NewResolver(nil)
	held := map[string]bool{"cmd.echo": true}

	if !r.Test(held, []string{"cmd.echo"}, nil) {
		t.Fatalf("directly held permission must satisfy")
	}
	if r.Test(map[string]bool{}, []string{"cmd.echo"}, &session.Session{User: &session.User{}}) {
		t.Fatalf("unheld permission with no grantors must not satisfy")
	}
}

func TestTestClimbsInheritance(t *testing.T) {
	r := NewResolver(nil)
	r.Inherit("cmd.echo", "group.admin")

	held := map[string]bool{"group.admin": true}
	if !r.Test(held, []string{"cmd.echo"}, nil) {
		t.Fatalf("holding the parent must grant the child")
	}
	// The relation is one-way: holding the child says nothing about the parent.
	if r.Test(map[string]bool{"cmd.echo": true}, []string{"group.admin"}, &session.Session{User: &session.User{}}) {
		t.Fatalf("holding the child must not grant the parent")
	}
}

func TestTestInheritanceIsTransitive(t *testing.T) {
	r := NewResolver(nil)
	r.Inherit("cmd.echo", "group.mod")
	r.Inherit("group.mod", "group.admin")

	if !r.Test(map[string]bool{"group.admin": true}, []string{"cmd.echo"}, nil) {
		t.Fatalf("grandparent grantor must satisfy")
	}
}

func TestTestFollowsDependencies(t *testing.T) {
	r := NewResolver(nil)
	r.Depend("cmd.deploy", "cmd.build")

	held := map[string]bool{"cmd.deploy": true}
	s := &session.Session{User: &session.User{Authority: 0}}
	if r.Test(held, []string{"cmd.deploy"}, s) {
		t.Fatalf("unmet dependency must fail the whole test")
	}

	held["cmd.build"] = true
	if !r.Test(held, []string{"cmd.deploy"}, s) {
		t.Fatalf("holding every dependency must satisfy")
	}
}

func TestTestDependencyAcceptsInheritedParent(t *testing.T) {
	r := NewResolver(nil)
	r.Depend("cmd.deploy", "cmd.build")
	r.Inherit("cmd.build", "group.ci")

	held := map[string]bool{"cmd.deploy": true, "group.ci": true}
	s := &session.Session{User: &session.User{Authority: 0}}
	if !r.Test(held, []string{"cmd.deploy"}, s) {
		t.Fatalf("inherited parent of a dependency must satisfy it")
	}
}

func TestTestAuthorityLinkGrantsCapability(t *testing.T) {
	r := NewResolver(nil)
	r.Authority(2, "cmd.ban")

	s := sessionWithAuthority(3)
	held := map[string]bool{}
	if !r.Test(held, []string{"cmd.ban"}, s) {
		t.Fatalf("sufficient authority must grant the linked capability")
	}
	if r.Test(held, []string{"cmd.ban"}, sessionWithAuthority(1)) {
		t.Fatalf("insufficient authority must not grant the linked capability")
	}
}

func TestAuthorityNegativeLevelIsNoop(t *testing.T) {
	r := NewResolver(nil)
	dispose := r.Authority(-1, "cmd.hidden")
	dispose()

	if r.Test(map[string]bool{}, []string{"cmd.hidden"}, sessionWithAuthority(99)) {
		t.Fatalf("a negative authority level must not create a link")
	}
}

func TestTestConditionalInheritance(t *testing.T) {
	r := NewResolver(nil)
	r.Inherit("cmd.echo", "group.admin", func(s *session.Session) bool {
		return s != nil && s.Platform == "discord"
	})

	held := map[string]bool{"group.admin": true}
	userSession := func(platform string) *session.Session {
		return &session.Session{User: &session.User{}, Platform: platform}
	}
	if !r.Test(held, []string{"cmd.echo"}, userSession("discord")) {
		t.Fatalf("conditional edge must grant when the condition holds")
	}
	if r.Test(held, []string{"cmd.echo"}, userSession("telegram")) {
		t.Fatalf("conditional edge must not grant when the condition fails")
	}
}

func TestTestShortCircuitsOnFirstUnsatisfiable(t *testing.T) {
	r := NewResolver(nil)
	r.Authority(1, "cmd.bar")
	dispose := r.Depend("cmd.bar", "cmd.foo")

	s := sessionWithAuthority(1)
	held := map[string]bool{"cmd.foo": true}
	if !r.Test(held, []string{"cmd.bar"}, s) {
		t.Fatalf("test must pass while the dependency edge is active")
	}

	// Removing the dependency edge leaves cmd.foo out of the closure, and
	// cmd.bar alone is still satisfied through its authority link.
	dispose()
	if !r.Test(map[string]bool{}, []string{"cmd.bar"}, s) {
		t.Fatalf("test must still pass once the dependency edge is removed")
	}

	// The inverse: an active dependency nobody satisfies fails the test even
	// though the required capability itself is granted.
	r.Depend("cmd.bar", "cmd.baz")
	if r.Test(map[string]bool{}, []string{"cmd.bar"}, s) {
		t.Fatalf("an unsatisfiable dependency must fail the test")
	}
}

func TestTestIsIdempotent(t *testing.T) {
	r := NewResolver(nil)
	r.Inherit("cmd.echo", "group.admin")
	r.Depend("cmd.echo", "cmd.log")
	r.Inherit("cmd.log", "group.admin")

	held := map[string]bool{"group.admin": true}
	s := sessionWithAuthority(1)
	first := r.Test(held, []string{"cmd.echo"}, s)
	second := r.Test(held, []string{"cmd.echo"}, s)
	if first != second {
		t.Fatalf("repeated test with identical inputs diverged: %v then %v", first, second)
	}
	if !first {
		t.Fatalf("expected the test to pass")
	}
}

func TestListReturnsSortedUnion(t *testing.T) {
	r := NewResolver(nil)
	r.Inherit("cmd.b", "group.admin")
	r.Depend("cmd.a", "cmd.b")

	names := r.List()
	if !sort.StringsAreSorted(names) {
		t.Fatalf("List must be sorted, got %v", names)
	}
	seen := map[string]bool{}
	for _, name := range names {
		seen[name] = true
	}
	if !seen["cmd.a"] || !seen["cmd.b"] {
		t.Fatalf("List missing expected sources: %v", names)
	}
}

func TestResolverNotifiesOnTopologyChange(t *testing.T) {
	changes := 0
	r := NewResolver(func() { changes++ })

	dispose := r.Inherit("cmd.echo", "group.admin")
	if changes != 1 {
		t.Fatalf("expected 1 notification after link, got %d", changes)
	}
	dispose()
	if changes != 2 {
		t.Fatalf("expected 2 notifications after unlink, got %d", changes)
	}
}
