package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"

	"github.com/timescam/koishi/internal/dispatch"
	"github.com/timescam/koishi/internal/events"
	"github.com/timescam/koishi/internal/pipeline"
)

// AuthConfig controls API authentication. With an empty Secret the API runs
// open (development mode) and the login endpoint is disabled.
type AuthConfig struct {
	Secret            string
	AdminPasswordHash string
}

// Server holds dependencies for the HTTP API.
type Server struct {
	App        *fiber.App
	db         *gorm.DB
	dispatcher *dispatch.Dispatcher
	translator pipeline.Translator
	bus        *events.Bus
	auth       AuthConfig
}

// NewServer creates a Fiber app with middleware and registers all routes.
func NewServer(
	db *gorm.DB,
	dispatcher *dispatch.Dispatcher,
	translator pipeline.Translator,
	bus *events.Bus,
	auth AuthConfig,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Koishi Dispatch API",
		ErrorHandler: globalErrorHandler,
	})

	// Middleware.
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(requestLogger())

	s := &Server{
		App:        app,
		db:         db,
		dispatcher: dispatcher,
		translator: translator,
		bus:        bus,
		auth:       auth,
	}

	s.registerRoutes()
	return s
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	slog.Info("starting HTTP server", "addr", addr)
	return s.App.Listen(addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown() error {
	slog.Info("shutting down HTTP server")
	return s.App.Shutdown()
}
