package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes registers the trigger API routes on app.
func SetupRoutes(app *fiber.App, h *ApplicationHandler) {
	app.Get("/health", h.Health)

	api := app.Group("/api")
	api.Post("/scrape", h.TriggerScrape)
}
