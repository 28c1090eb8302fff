package permissions

import (
	"errors"
	"testing"

	"github.com/timescam/koishi/internal/session"
)

func TestProviderRegistryDefaultDeny(t *testing.T) {
	var r providerRegistry
	if r.check("anything", nil) {
		t.Fatalf("capability with no matching provider must be denied")
	}
}

func TestProviderRegistryExactMatch(t *testing.T) {
	var r providerRegistry
	r.provide("cmd.echo", func(string, *session.Session) (bool, error) {
		return true, nil
	})

	if !r.check("cmd.echo", nil) {
		t.Fatalf("exact provider must grant its capability")
	}
	if r.check("cmd.other", nil) {
		t.Fatalf("exact provider must not match other names")
	}
}

func TestProviderRegistryWildcardMatch(t *testing.T) {
	var r providerRegistry
	r.provide("cmd.*", func(name string, _ *session.Session) (bool, error) {
		return name == "cmd.echo", nil
	})

	if !r.check("cmd.echo", nil) {
		t.Fatalf("wildcard provider must match names under its prefix")
	}
	if r.check("cmd.other", nil) {
		t.Fatalf("wildcard provider answered false, check must deny")
	}
	if r.check("other.echo", nil) {
		t.Fatalf("wildcard provider must not match outside its prefix")
	}
}

func TestProviderRegistryAllMatchesMustAgree(t *testing.T) {
	var r providerRegistry
	r.provide("cmd.echo", func(string, *session.Session) (bool, error) {
		return true, nil
	})
	r.provide("cmd.*", func(string, *session.Session) (bool, error) {
		return false, nil
	})

	if r.check("cmd.echo", nil) {
		t.Fatalf("one failing provider must veto the capability")
	}
}

func TestProviderRegistryShortCircuits(t *testing.T) {
	var r providerRegistry
	called := false
	r.provide("cmd.echo", func(string, *session.Session) (bool, error) {
		return false, nil
	})
	r.provide("cmd.*", func(string, *session.Session) (bool, error) {
		called = true
		return true, nil
	})

	r.check("cmd.echo", nil)
	if called {
		t.Fatalf("providers after the first failure must not run")
	}
}

func TestProviderRegistryReplacesByPattern(t *testing.T) {
	var r providerRegistry
	r.provide("cmd.echo", func(string, *session.Session) (bool, error) {
		return false, nil
	})
	r.provide("cmd.echo", func(string, *session.Session) (bool, error) {
		return true, nil
	})

	if !r.check("cmd.echo", nil) {
		t.Fatalf("re-registering a pattern must replace the previous provider")
	}
}

func TestProviderRegistryContainsErrors(t *testing.T) {
	var r providerRegistry
	r.provide("cmd.echo", func(string, *session.Session) (bool, error) {
		return true, errors.New("backend unavailable")
	})

	if r.check("cmd.echo", nil) {
		t.Fatalf("a failing provider must deny, not grant")
	}
}

func TestProviderRegistryContainsPanics(t *testing.T) {
	var r providerRegistry
	r.provide("cmd.echo", func(string, *session.Session) (bool, error) {
		panic("boom")
	})

	if r.check("cmd.echo", nil) {
		t.Fatalf("a panicking provider must deny, not grant")
	}
}
