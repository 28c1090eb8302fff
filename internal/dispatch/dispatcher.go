// Package dispatch coordinates one invocation end to end: permission gating
// through the resolver, pipeline execution, and activity reporting.
package dispatch

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/timescam/koishi/internal/command"
	"github.com/timescam/koishi/internal/events"
	"github.com/timescam/koishi/internal/permissions"
	"github.com/timescam/koishi/internal/pipeline"
)

// Dispatcher gates and executes resolved invocations. One Dispatcher serves
// the whole application.
type Dispatcher struct {
	registry   *command.Registry
	resolver   *permissions.Resolver
	runner     *pipeline.Runner
	translator pipeline.Translator
	bus        *events.Bus
}

// New wires a Dispatcher from its collaborators.
func New(
	registry *command.Registry,
	resolver *permissions.Resolver,
	runner *pipeline.Runner,
	translator pipeline.Translator,
	bus *events.Bus,
) *Dispatcher {
	return &Dispatcher{
		registry:   registry,
		resolver:   resolver,
		runner:     runner,
		translator: translator,
		bus:        bus,
	}
}

// Registry exposes the command registry for introspection surfaces.
func (d *Dispatcher) Registry() *command.Registry { return d.registry }

// Resolver exposes the permission resolver for introspection surfaces.
func (d *Dispatcher) Resolver() *permissions.Resolver { return d.resolver }

// Command creates a root command and registers its command.<name>
// capability: the capability inherits from the given authority level, so
// actors at that level (or holding the capability through another inherit
// path) may run it. The permission link is torn down with the command.
func (d *Dispatcher) Command(name string, authority int) (*command.Command, error) {
	cmd, err := d.registry.New(name)
	if err != nil {
		return nil, err
	}
	cmd.Authority(authority)

	capability := "command." + cmd.Name()
	cmd.Require(capability)
	cmd.OnDispose(d.resolver.Authority(authority, capability))
	return cmd, nil
}

// Dispatch gates argv against the permission resolver and runs it through
// the execution pipeline. The returned string is the renderable output
// fragment; it is empty when the command produced no output.
func (d *Dispatcher) Dispatch(argv *command.Argv, fallback command.NextFn) (string, error) {
	if argv.Command == nil {
		return "", fmt.Errorf("dispatch: argv carries no resolved command")
	}
	start := time.Now()
	invocationID := uuid.New().String()
	cfg := argv.Command.Config()

	// Authority gate: resolved against the invoking actor through the
	// built-in authority.* provider (absent actor passes).
	if cfg.Authority > 0 {
		gate := "authority." + strconv.Itoa(cfg.Authority)
		if !d.resolver.Check(gate, argv.Session) {
			return d.translator.Text("internal.low-authority", nil), nil
		}
	}

	// Capability gate: declared permissions tested against the held set.
	if len(cfg.Permissions) > 0 {
		if !d.resolver.Test(d.heldSet(argv), cfg.Permissions, argv.Session) {
			return d.translator.Text("internal.denied", map[string]any{
				"permission": strings.Join(cfg.Permissions, ", "),
			}), nil
		}
	}

	output, err := d.runner.Execute(argv, fallback)

	status := "ok"
	if err != nil {
		status = "error"
	}
	d.bus.Publish(events.Event{
		Topic:   events.TopicCommandExecuted,
		Command: argv.Command.Name(),
		Fields: map[string]any{
			"invocation_id": invocationID,
			"status":        status,
			"duration_ms":   time.Since(start).Milliseconds(),
		},
	})
	slog.Info("command dispatched",
		"invocation_id", invocationID,
		"command", argv.Command.Name(),
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return output, err
}

// heldSet builds the capability set the invoking actor holds directly:
// stored grants plus the authority.<level> capability.
func (d *Dispatcher) heldSet(argv *command.Argv) map[string]bool {
	held := make(map[string]bool)
	if argv.Session == nil || argv.Session.User == nil {
		return held
	}
	user := argv.Session.User
	for _, name := range user.Permissions {
		held[name] = true
	}
	held["authority."+strconv.Itoa(user.Authority)] = true
	return held
}
