package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/timescam/koishi/internal/models"
)

// ListUsers returns every stored user with their grants.
func (s *Server) ListUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := s.db.Preload("Grants").Find(&users).Error; err != nil {
		return err
	}
	return c.JSON(users)
}

// CreateUser stores a new user record.
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Platform == "" {
		return fiber.NewError(fiber.StatusBadRequest, "platform is required")
	}
	if req.Authority < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "authority must not be negative")
	}

	user := models.User{
		ID:        uuid.New().String(),
		Platform:  req.Platform,
		Name:      req.Name,
		Authority: req.Authority,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// GetUser returns one user by ID.
func (s *Server) GetUser(c *fiber.Ctx) error {
	var user models.User
	if err := s.db.Preload("Grants").First(&user, "id = ?", c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}
	return c.JSON(user)
}

// UpdateUser changes a user's name or authority level.
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Authority != nil {
		if *req.Authority < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "authority must not be negative")
		}
		user.Authority = *req.Authority
	}

	if err := s.db.Save(&user).Error; err != nil {
		return err
	}
	return c.JSON(user)
}

// CreateGrant attaches a capability name directly to a user.
func (s *Server) CreateGrant(c *fiber.Ctx) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	var req CreateGrantRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Permission == "" {
		return fiber.NewError(fiber.StatusBadRequest, "permission is required")
	}

	grant := models.Grant{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		Permission: req.Permission,
	}
	if err := s.db.Create(&grant).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(grant)
}

// DeleteGrant revokes a stored grant.
func (s *Server) DeleteGrant(c *fiber.Ctx) error {
	result := s.db.Where("id = ? AND user_id = ?", c.Params("grantId"), c.Params("id")).
		Delete(&models.Grant{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "grant not found")
	}
	return c.JSON(fiber.Map{"status": "revoked"})
}
