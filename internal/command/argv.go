package command

import "github.com/timescam/koishi/internal/session"

// NextFn is a queued pipeline continuation. It receives the active Next so
// it can hand control to the following step.
type NextFn func(next Next) (string, error)

// Next advances the pipeline cursor. Calling it with a non-nil callback
// splices the callback into the continuation queue ahead of the terminal
// fallback before advancing; calling it with nil just advances.
type Next func(fn NextFn) (string, error)

// Argv is the parsed-argument context for one invocation. It is produced by
// an external parser collaborator, owned by the invocation that created it,
// and mutable across pipeline stages.
type Argv struct {
	Command *Command
	Args    []string
	Options map[string]any
	Session *session.Session

	// Error carries a parse failure. The pipeline fails fast and returns
	// it as-is when non-empty.
	Error string

	// Source is the raw invocation text, used when rendering error logs.
	Source string

	// Next is installed by the pipeline for the duration of the acting
	// stage. Actions call it to fall through to the next continuation.
	Next Next
}
