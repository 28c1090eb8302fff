package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func (s *Server) registerRoutes() {
	// Health check and login stay unauthenticated.
	s.App.Get("/health", s.HealthCheck)
	s.App.Post("/api/login", s.Login)

	api := s.App.Group("/api", s.authRequired())

	// Commands.
	commands := api.Group("/commands")
	commands.Get("/", s.ListCommands)
	commands.Get("/:name", s.GetCommand)
	commands.Delete("/:name", s.DisposeCommand)

	// Dispatch.
	api.Post("/dispatch", s.Dispatch)
	api.Get("/invocations", s.ListInvocations)

	// Permissions.
	permissions := api.Group("/permissions")
	permissions.Get("/", s.ListPermissions)
	permissions.Post("/links", s.CreateLink)
	permissions.Post("/test", s.TestPermissions)

	// Users and grants.
	users := api.Group("/users")
	users.Get("/", s.ListUsers)
	users.Post("/", s.CreateUser)
	users.Get("/:id", s.GetUser)
	users.Put("/:id", s.UpdateUser)
	users.Post("/:id/grants", s.CreateGrant)
	users.Delete("/:id/grants/:grantId", s.DeleteGrant)

	// WebSocket activity stream.
	s.App.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.App.Get("/ws/activity", websocket.New(s.StreamActivity))
}
