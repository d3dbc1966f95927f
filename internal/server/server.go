package server

import (
	"log"

	"pdf-rag-be/internal/bootstrap"
	"pdf-rag-be/internal/config"
	"pdf-rag-be/internal/pkg/serverutils"
	"pdf-rag-be/pkg/metrics"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		// Room for a full batch of maximum-size PDFs in one request.
		BodyLimit: cfg.Upload.MaxFileSizeMB * 1024 * 1024 * cfg.Upload.MaxFiles,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.App.CorsAllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, x-session-id",
		AllowMethods:  "GET, POST, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Type, x-session-id",
	}))

	app.Use(limiter.New(limiter.Config{
		Max: 100,
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	// Operational endpoints sit outside the session scope.
	app.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"status": "All Working!"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Use(serverutils.SessionMiddleware(container.SessionStore, container.Metrics))

	// Routes
	container.RagController.RegisterRoutes(app)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}
