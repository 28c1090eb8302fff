package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/timescam/koishi/internal/models"
	"github.com/timescam/koishi/internal/permissions"
	"github.com/timescam/koishi/internal/session"
)

// ListPermissions returns every capability name appearing as a source in
// either permission graph.
func (s *Server) ListPermissions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"permissions": s.dispatcher.Resolver().List()})
}

// CreateLink registers a permission graph edge at runtime.
func (s *Server) CreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Source == "" || req.Target == "" {
		return fiber.NewError(fiber.StatusBadRequest, "source and target are required")
	}

	cond := permissions.Always()
	if req.When != "" {
		compiled, err := permissions.CompileExpr(req.When)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid condition: "+err.Error())
		}
		cond = compiled
	}

	resolver := s.dispatcher.Resolver()
	switch req.Kind {
	case "inherit":
		resolver.Inherit(req.Source, req.Target, cond)
	case "depend":
		resolver.Depend(req.Source, req.Target, cond)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "kind must be \"inherit\" or \"depend\"")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "linked"})
}

// TestPermissions runs the resolver's closure test for an explicit held set
// against a required set, optionally in the context of a stored user.
func (s *Server) TestPermissions(c *fiber.Ctx) error {
	var req TestPermissionsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	sess := &session.Session{}
	if req.UserID != "" {
		var user models.User
		if err := s.db.First(&user, "id = ?", req.UserID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		sess.User = &session.User{ID: user.ID, Name: user.Name, Authority: user.Authority}
	}

	held := make(map[string]bool, len(req.Held))
	for _, name := range req.Held {
		held[name] = true
	}

	satisfied := s.dispatcher.Resolver().Test(held, req.Required, sess)
	return c.JSON(TestPermissionsResponse{Satisfied: satisfied})
}
