package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"word-garden/internal/config"
)

// HealthChecker reports whether the store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewApp builds the fiber application with every API route registered.
// health may be nil.
func NewApp(cfg *config.ServerConfig, svc *Services, health HealthChecker) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "word-garden",
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})

	app.Use(RequestID())
	app.Use(RequestLogger())
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	if cfg != nil && cfg.AllowOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if health != nil {
			if err := health.HealthCheck(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	users := &userHandler{accounts: svc.Accounts, ranking: svc.Ranking}
	users.register(api.Group("/users"))

	words := &wordHandler{words: svc.Words, learning: svc.Learning}
	words.register(api.Group("/words"))

	learning := &learningHandler{learning: svc.Learning}
	learning.register(api.Group("/learning"))

	game := &gameHandler{shop: svc.Shop, achievements: svc.Achievements, goals: svc.Goals}
	game.register(api.Group("/game"))

	return app
}
