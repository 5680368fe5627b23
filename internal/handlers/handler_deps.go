package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"kluster/lead-scraper/internal/jobs"
)

// JobRunner runs one scrape job by id. *worker.Runner implements it.
type JobRunner interface {
	RunOne(ctx context.Context, id uuid.UUID) (jobs.Outcome, error)
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Logger     *logrus.Logger
	Runner     JobRunner
	ServiceKey string // callers must present it; empty rejects everyone

	validate *validator.Validate
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(logger *logrus.Logger, runner JobRunner, serviceKey string) *ApplicationHandler {
	return &ApplicationHandler{
		Logger:     logger,
		Runner:     runner,
		ServiceKey: serviceKey,
		validate:   validator.New(),
	}
}
