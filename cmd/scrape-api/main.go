package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"kluster/lead-scraper/internal/config"
	"kluster/lead-scraper/internal/db"
	"kluster/lead-scraper/internal/handlers"
	"kluster/lead-scraper/internal/jobs"
	"kluster/lead-scraper/internal/middleware"
	"kluster/lead-scraper/internal/providers"
	"kluster/lead-scraper/internal/utils"
	"kluster/lead-scraper/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg)

	store, err := db.Open(context.Background(), cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open store")
	}
	defer store.Close()

	scraper := jobs.NewScraper(store, providers.NewSerper(cfg, log), providers.NewSerpAPI(cfg, log), log)
	runner := worker.NewRunner(store, scraper, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return utils.RespondWithError(c, code, err.Error())
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key",
	}))
	app.Use(middleware.RequestLogger(log))

	handlers.SetupRoutes(app, handlers.NewApplicationHandler(log, runner, cfg.SupabaseKey))

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down scrape API...")
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("Shutdown failed")
		}
	}()

	log.WithField("port", cfg.Port).Info("Starting scrape API")
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.WithError(err).Error("Server stopped")
	}
}
