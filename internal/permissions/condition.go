package permissions

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/timescam/koishi/internal/session"
)

// Condition guards a graph edge. An edge is traversable when at least one of
// its conditions evaluates true for the session at hand.
type Condition func(s *session.Session) bool

// Always returns a condition that is true for every session.
func Always() Condition {
	return func(*session.Session) bool { return true }
}

// Never returns a condition that is false for every session.
func Never() Condition {
	return func(*session.Session) bool { return false }
}

// Value returns a condition fixed to the given boolean.
func Value(v bool) Condition {
	if v {
		return Always()
	}
	return Never()
}

// ExprEnv defines the variables available to edge condition expressions.
type ExprEnv struct {
	Authority int    `expr:"authority"`
	UserID    string `expr:"user"`
	Platform  string `expr:"platform"`
	Channel   string `expr:"channel"`
	Guild     string `expr:"guild"`
}

// envFor builds the expression environment from a session. A nil session or
// absent user yields zero values rather than a failure.
func envFor(s *session.Session) ExprEnv {
	var env ExprEnv
	if s == nil {
		return env
	}
	env.Platform = s.Platform
	env.Channel = s.ChannelID
	env.Guild = s.GuildID
	if s.User != nil {
		env.Authority = s.User.Authority
		env.UserID = s.User.ID
	}
	return env
}

// CompileExpr compiles a boolean expression into an edge condition.
// Expressions see the session through the ExprEnv variables, e.g.
// "authority >= 2 && platform == 'discord'".
func CompileExpr(src string) (Condition, error) {
	program, err := expr.Compile(src, expr.Env(ExprEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling condition %q: %w", src, err)
	}
	return exprCondition(src, program), nil
}

func exprCondition(src string, program *vm.Program) Condition {
	return func(s *session.Session) bool {
		out, err := expr.Run(program, envFor(s))
		if err != nil {
			slog.Warn("condition evaluation failed", "expr", src, "error", err)
			return false
		}
		result, ok := out.(bool)
		return ok && result
	}
}
