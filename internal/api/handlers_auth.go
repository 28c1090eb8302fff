package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// adminAuthority is the authority level embedded in admin tokens.
const adminAuthority = 4

// Login verifies the admin password against the configured bcrypt hash and
// issues a bearer token carrying the admin authority claim.
func (s *Server) Login(c *fiber.Ctx) error {
	if s.auth.Secret == "" || s.auth.AdminPasswordHash == "" {
		return fiber.NewError(fiber.StatusNotFound, "login is not configured")
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "password is required")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.auth.AdminPasswordHash), []byte(req.Password)); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	claims := jwt.MapClaims{
		"sub":       "admin",
		"authority": adminAuthority,
		"iat":       time.Now().Unix(),
		"exp":       time.Now().Add(12 * time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.auth.Secret))
	if err != nil {
		return err
	}

	return c.JSON(LoginResponse{Token: token})
}
