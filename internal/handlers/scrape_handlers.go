package handlers

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"kluster/lead-scraper/internal/middleware"
	"kluster/lead-scraper/internal/models"
	"kluster/lead-scraper/internal/utils"
	"kluster/lead-scraper/internal/worker"
)

// ScrapeRequest is the body of POST /api/scrape.
type ScrapeRequest struct {
	JobID string `json:"jobId" validate:"required,uuid"`
}

// ScrapeResponse is returned for a completed job.
type ScrapeResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
	API     string `json:"api"`
}

// Health reports that the service is up.
// GET /health
func (h *ApplicationHandler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "ok",
		"message": "Scrape API is healthy",
	})
}

// authorized accepts the service key as a bearer token or in X-API-Key.
// Either header matching is enough.
func (h *ApplicationHandler) authorized(c *fiber.Ctx) bool {
	if h.ServiceKey == "" {
		return false
	}
	matches := func(v string) bool {
		return subtle.ConstantTimeCompare([]byte(v), []byte(h.ServiceKey)) == 1
	}
	if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") && matches(strings.TrimPrefix(auth, "Bearer ")) {
		return true
	}
	return matches(c.Get("X-API-Key"))
}

// TriggerScrape runs one scrape job synchronously.
// POST /api/scrape
func (h *ApplicationHandler) TriggerScrape(c *fiber.Ctx) error {
	log := h.Logger.WithField("request_id", c.Locals(middleware.RequestIDKey))

	if !h.authorized(c) {
		log.Warn("Unauthorized scrape request")
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req ScrapeRequest
	if err := c.BodyParser(&req); err != nil {
		log.WithError(err).Warn("Invalid scrape request body")
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.JobID = utils.SanitizeInput(req.JobID)
	if err := h.validate.Struct(req); err != nil {
		return utils.RespondWithErrorData(c, fiber.StatusBadRequest, "jobId is required", utils.FormatValidationErrors(err))
	}

	jobID := uuid.MustParse(req.JobID) // validated above
	log = log.WithField("job_id", jobID)

	out, err := h.Runner.RunOne(c.UserContext(), jobID)
	if errors.Is(err, worker.ErrJobNotFound) {
		log.Warn("Scrape job not found")
		return utils.RespondWithError(c, fiber.StatusNotFound, "Job not found")
	}
	if err != nil {
		log.WithError(err).Error("Scrape job could not be run")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not run job")
	}

	if out.Status == models.JobStatusFailed {
		msg := "Scraping failed"
		if out.Err != nil {
			msg = out.Err.Error()
		}
		return utils.RespondWithErrorData(c, fiber.StatusInternalServerError, msg, fiber.Map{"count": out.Count})
	}

	log.WithFields(logrus.Fields{"count": out.Count, "api_used": out.APIUsed}).Info("Scrape job completed")
	return utils.RespondWithJSON(c, fiber.StatusOK, ScrapeResponse{
		Message: "Scraping completed",
		Count:   out.Count,
		API:     out.APIUsed,
	})
}
