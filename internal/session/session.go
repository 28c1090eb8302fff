// Package session defines the per-invocation context shared across the
// command pipeline and the permission resolver.
package session

import "fmt"

// User is the authenticated actor behind an invocation. A nil *User on a
// Session means the invocation is unrestricted (infinite authority).
type User struct {
	ID        string
	Name      string
	Authority int

	// Permissions holds capability names granted directly to this user,
	// loaded from storage by the dispatcher before gating.
	Permissions []string
}

// Bot is the transport actor delivering the invocation. Implementations are
// platform adapters and live outside this module.
type Bot interface {
	// Platform returns the transport platform identifier (e.g. "discord").
	Platform() string
	// Supports reports whether the bot implements the named capability
	// (e.g. "sendMessage"). Backs the built-in bot.* provider.
	Supports(capability string) bool
}

// Session carries the invoking context for a single incoming message.
// It is owned by the invocation that created it and never shared across
// concurrent invocations.
type Session struct {
	User      *User
	Bot       Bot
	Platform  string
	ChannelID string
	GuildID   string
}

// Error is a recoverable, user-facing command failure. It carries a
// localization path and parameters and is always rendered to text by the
// pipeline, never surfaced as a raw fault.
type Error struct {
	Path   string
	Params map[string]any
}

// NewError creates a session error for the given localization path.
func NewError(path string, params map[string]any) *Error {
	return &Error{Path: path, Params: params}
}

func (e *Error) Error() string {
	if len(e.Params) == 0 {
		return fmt.Sprintf("session error: %s", e.Path)
	}
	return fmt.Sprintf("session error: %s (%d params)", e.Path, len(e.Params))
}
