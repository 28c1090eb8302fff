// Package pipeline runs a resolved invocation through its command's
// checkers and actions, drives the caller-extensible continuation queue,
// and recovers from command errors according to the command's policy.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/timescam/koishi/internal/command"
	"github.com/timescam/koishi/internal/events"
	"github.com/timescam/koishi/internal/session"
)

// DefaultMaxDepth bounds the continuation queue. Overflowing it signals
// runaway recursive Next usage and is never recovered.
const DefaultMaxDepth = 64

// MaxDepthError reports that the continuation queue grew past its limit.
type MaxDepthError struct {
	Depth int
}

func (e *MaxDepthError) Error() string {
	return fmt.Sprintf("continuation queue exceeded maximum depth %d", e.Depth)
}

// Translator renders localized text for session errors and the generic
// internal-error message.
type Translator interface {
	Text(path string, params map[string]any) string
}

// Runner executes invocations. One Runner serves all concurrent
// invocations; per-invocation state lives on the Argv.
type Runner struct {
	translator Translator
	bus        *events.Bus

	// MaxDepth overrides DefaultMaxDepth when positive.
	MaxDepth int
}

// NewRunner creates a Runner publishing command-error events on bus.
func NewRunner(translator Translator, bus *events.Bus) *Runner {
	return &Runner{translator: translator, bus: bus}
}

func (r *Runner) maxDepth() int {
	if r.MaxDepth > 0 {
		return r.MaxDepth
	}
	return DefaultMaxDepth
}

// Execute runs argv through its command: strictness validation, checkers in
// registration order, then the continuation queue of actions followed by
// the caller-supplied fallback. The first non-empty result short-circuits;
// exhaustion yields an empty result. Errors raised inside the static action
// list (or a checker) are recovered per the command's error policy; errors
// from appended continuations or the fallback always propagate.
func (r *Runner) Execute(argv *command.Argv, fallback command.NextFn) (string, error) {
	// A parse error recorded by the collaborator short-circuits everything.
	if argv.Error != "" {
		return argv.Error, nil
	}
	cmd := argv.Command

	if msg := r.validate(argv); msg != "" {
		return msg, nil
	}

	for _, checker := range cmd.Checkers() {
		result, err := runChecker(checker, argv)
		if err != nil {
			return r.recoverError(argv, err, true)
		}
		if result != "" {
			return result, nil
		}
	}

	actions := cmd.Actions()
	// A command with no actions resolves immediately with an empty result;
	// the queue machinery and the fallback are never engaged.
	if len(actions) == 0 {
		return "", nil
	}

	queue := make([]command.NextFn, 0, len(actions)+1)
	for _, action := range actions {
		action := action
		queue = append(queue, func(command.Next) (string, error) {
			return action(argv)
		})
	}
	hasFallback := fallback != nil
	if hasFallback {
		queue = append(queue, fallback)
	}

	// Errors originating at an index past the static action count belong
	// to the caller's scope and are not eligible for local recovery.
	staticLen := len(actions)
	cursor := 0
	errIndex := -1

	var next command.Next
	next = func(fn command.NextFn) (string, error) {
		if fn != nil {
			if len(queue) >= r.maxDepth() {
				return "", &MaxDepthError{Depth: r.maxDepth()}
			}
			// Splice ahead of the terminal fallback while it is still
			// pending. Once the cursor has reached the fallback's slot the
			// fallback is running (or done) and must not re-enter the
			// queue, so late additions go at the end.
			if hasFallback && cursor < len(queue) {
				last := queue[len(queue)-1]
				queue = append(queue[:len(queue)-1], fn, last)
			} else {
				queue = append(queue, fn)
			}
		}
		if cursor >= len(queue) {
			return "", nil
		}
		i := cursor
		cursor++
		result, err := runContinuation(queue[i], next)
		if err != nil && errIndex < 0 {
			errIndex = i
		}
		return result, err
	}

	argv.Next = next
	defer func() { argv.Next = nil }()

	for cursor < len(queue) {
		result, err := next(nil)
		if err != nil {
			return r.recoverError(argv, err, errIndex < staticLen)
		}
		if result != "" {
			return result, nil
		}
	}
	return "", nil
}

// validate applies the command's strictness configuration before any
// checker runs. It returns localized rejection text, or "".
func (r *Runner) validate(argv *command.Argv) string {
	cfg := argv.Command.Config()

	if cfg.CheckUnknown {
		for name := range argv.Options {
			if !argv.Command.KnownOption(name) {
				return r.translator.Text("internal.unknown-option", map[string]any{"option": name})
			}
		}
	}
	if cfg.CheckArgCount {
		if len(argv.Args) < cfg.MinArgs {
			return r.translator.Text("internal.insufficient-arguments", nil)
		}
		if cfg.MaxArgs > 0 && len(argv.Args) > cfg.MaxArgs {
			return r.translator.Text("internal.redundant-arguments", nil)
		}
	}
	return ""
}

// recoverError classifies an execution error. Depth overflows and errors
// from outside the static action list always propagate; session errors
// render to localized text; anything else is logged, reported on the bus,
// and resolved by the command's error policy.
func (r *Runner) recoverError(argv *command.Argv, err error, recoverable bool) (string, error) {
	var depthErr *MaxDepthError
	if errors.As(err, &depthErr) {
		return "", err
	}
	if !recoverable {
		return "", err
	}

	var sessErr *session.Error
	if errors.As(err, &sessErr) {
		return r.translator.Text(sessErr.Path, sessErr.Params), nil
	}

	name := argv.Command.Name()
	slog.Error("command execution failed",
		"command", name,
		"args", argv.Args,
		"options", argv.Options,
		"source", argv.Source,
		"error", err,
	)
	if r.bus != nil {
		r.bus.Publish(events.Event{
			Topic:   events.TopicCommandError,
			Command: name,
			Fields: map[string]any{
				"error":  err.Error(),
				"source": argv.Source,
			},
		})
	}

	cfg := argv.Command.Config()
	if cfg.Handler != nil {
		return cfg.Handler(argv, err)
	}
	if cfg.Propagate {
		return "", err
	}
	return r.translator.Text("internal.error", nil), nil
}

// runChecker invokes a checker with panic containment.
func runChecker(fn command.Checker, argv *command.Argv) (result string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = ""
			err = fmt.Errorf("checker panic: %v", rec)
		}
	}()
	return fn(argv)
}

// runContinuation invokes a queued continuation with panic containment.
func runContinuation(fn command.NextFn, next command.Next) (result string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = ""
			err = fmt.Errorf("action panic: %v", rec)
		}
	}()
	if fn == nil {
		return "", nil
	}
	return fn(next)
}
