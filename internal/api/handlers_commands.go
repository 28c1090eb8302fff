package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/timescam/koishi/internal/command"
)

// ListCommands returns every registered command.
func (s *Server) ListCommands(c *fiber.Ctx) error {
	list := s.dispatcher.Registry().List()
	out := make([]CommandResponse, 0, len(list))
	for _, cmd := range list {
		out = append(out, commandResponse(cmd))
	}
	return c.JSON(out)
}

// GetCommand returns one command resolved by any of its aliases.
func (s *Server) GetCommand(c *fiber.Ctx) error {
	cmd := s.dispatcher.Registry().Get(c.Params("name"))
	if cmd == nil {
		return fiber.NewError(fiber.StatusNotFound, "command not found")
	}
	return c.JSON(commandResponse(cmd))
}

// DisposeCommand tears down a command and its subtree.
func (s *Server) DisposeCommand(c *fiber.Ctx) error {
	cmd := s.dispatcher.Registry().Get(c.Params("name"))
	if cmd == nil {
		return fiber.NewError(fiber.StatusNotFound, "command not found")
	}
	cmd.Dispose()
	return c.JSON(fiber.Map{"status": "disposed"})
}

func commandResponse(cmd *command.Command) CommandResponse {
	cfg := cmd.Config()
	resp := CommandResponse{
		Name:        cmd.Name(),
		DisplayName: cmd.DisplayName(),
		Aliases:     cmd.Aliases(),
		Authority:   cfg.Authority,
		Permissions: cfg.Permissions,
	}
	if parent := cmd.Parent(); parent != nil {
		resp.Parent = parent.Name()
	}
	for _, child := range cmd.Children() {
		resp.Children = append(resp.Children, child.Name())
	}
	return resp
}
