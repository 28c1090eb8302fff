package permissions

import (
	"testing"

	"github.com/timescam/koishi/internal/session"
)

func TestCompileExpr(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		session *session.Session
		want    bool
	}{
		{
			"authority comparison",
			"authority >= 2",
			sessionWithAuthority(3),
			true,
		},
		{
			"authority too low",
			"authority >= 2",
			sessionWithAuthority(1),
			false,
		},
		{
			"platform match",
			`platform == "discord"`,
			&session.Session{Platform: "discord"},
			true,
		},
		{
			"combined clauses",
			`authority >= 1 && guild == "g1"`,
			&session.Session{User: &session.User{Authority: 2}, GuildID: "g1"},
			true,
		},
		{
			"nil session sees zero values",
			`user == ""`,
			nil,
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := CompileExpr(tt.src)
			if err != nil {
				t.Fatalf("CompileExpr(%q) failed: %v", tt.src, err)
			}
			if got := cond(tt.session); got != tt.want {
				t.Fatalf("condition %q = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestCompileExprRejectsInvalid(t *testing.T) {
	if _, err := CompileExpr("authority >="); err == nil {
		t.Fatalf("expected a compile error for a malformed expression")
	}
	if _, err := CompileExpr("authority + 1"); err == nil {
		t.Fatalf("expected a compile error for a non-boolean expression")
	}
}

func TestValueConditions(t *testing.T) {
	if !Always()(nil) || !Value(true)(nil) {
		t.Fatalf("Always and Value(true) must hold")
	}
	if Never()(nil) || Value(false)(nil) {
		t.Fatalf("Never and Value(false) must not hold")
	}
}
