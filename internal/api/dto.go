// Package api implements the Fiber HTTP API for the dispatch engine:
// structured command dispatch, command and permission introspection, user
// and grant administration, and the websocket activity stream.
package api

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LoginRequest is the payload for POST /api/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}

// DispatchRequest is the payload for POST /api/dispatch. The command and
// its arguments arrive pre-parsed; text parsing belongs to the transport
// collaborator, not this API.
type DispatchRequest struct {
	Command string         `json:"command"`
	Args    []string       `json:"args"`
	Options map[string]any `json:"options"`

	// Error carries a parse failure recorded by the collaborator; the
	// pipeline returns it as-is.
	Error  string `json:"error,omitempty"`
	Source string `json:"source,omitempty"`

	// UserID identifies the invoking actor; empty means unauthenticated
	// (unrestricted authority).
	UserID    string `json:"user_id,omitempty"`
	Platform  string `json:"platform,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
}

// DispatchResponse carries the rendered command output.
type DispatchResponse struct {
	Output string `json:"output"`
	Empty  bool   `json:"empty"`
}

// CommandResponse describes one registered command.
type CommandResponse struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Aliases     []string `json:"aliases"`
	Parent      string   `json:"parent,omitempty"`
	Children    []string `json:"children,omitempty"`
	Authority   int      `json:"authority"`
	Permissions []string `json:"permissions,omitempty"`
}

// CreateLinkRequest is the payload for POST /api/permissions/links.
type CreateLinkRequest struct {
	Kind   string `json:"kind"` // "inherit" or "depend"
	Source string `json:"source"`
	Target string `json:"target"`
	When   string `json:"when,omitempty"`
}

// TestPermissionsRequest is the payload for POST /api/permissions/test.
type TestPermissionsRequest struct {
	Held     []string `json:"held"`
	Required []string `json:"required"`
	UserID   string   `json:"user_id,omitempty"`
}

// TestPermissionsResponse carries the closure test verdict.
type TestPermissionsResponse struct {
	Satisfied bool `json:"satisfied"`
}

// CreateUserRequest is the payload for POST /api/users.
type CreateUserRequest struct {
	Platform  string `json:"platform"`
	Name      string `json:"name"`
	Authority int    `json:"authority"`
}

// UpdateUserRequest is the payload for PUT /api/users/:id.
type UpdateUserRequest struct {
	Name      *string `json:"name"`
	Authority *int    `json:"authority"`
}

// CreateGrantRequest is the payload for POST /api/users/:id/grants.
type CreateGrantRequest struct {
	Permission string `json:"permission"`
}
