package api

import (
	"github.com/gofiber/fiber/v2"
)

// HealthCheck verifies API and database connectivity and reports the number
// of registered commands.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	var result int
	if err := s.db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"errors": []string{"database: " + err.Error()},
		})
	}

	return c.JSON(fiber.Map{
		"status":   "ok",
		"commands": len(s.dispatcher.Registry().List()),
	})
}
