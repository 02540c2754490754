package routers

import (
	"image-optimizer/internal/delivery/http/handlers"
	"image-optimizer/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

func SetupOptimizeRoutes(app *fiber.App, h *handlers.OptimizeHandler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": constants.StatusOK})
	})
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api/v1")
	api.Post("/optimize", h.Optimize)
	api.Get("/formats", h.Formats)
	api.Get("/runs", h.ListRuns)
	api.Get("/runs/:id", h.GetRun)
	api.Get("/jobs/:id", h.GetJob)
	api.Get("/binary/:id", h.GetBinary)
}
