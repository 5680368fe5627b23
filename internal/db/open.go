package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"kluster/lead-scraper/internal/config"
	"kluster/lead-scraper/internal/models"
)

// Backend is implemented by Store and PGStore.
type Backend interface {
	ListPending(ctx context.Context) ([]models.ScrapeJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ScrapeJob, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, update models.JobUpdate) error
	UpsertCompany(ctx context.Context, company models.Company) bool
	RecalculateScores(ctx context.Context, city string) error
	Close()
}

var (
	_ Backend = (*Store)(nil)
	_ Backend = (*PGStore)(nil)
)

// Open picks the Postgres backend when DATABASE_URL is set and Supabase
// otherwise.
func Open(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (Backend, error) {
	if cfg.DatabaseURL != "" {
		log.Info("Using direct Postgres store")
		pg, err := NewPG(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}

	log.Info("Using Supabase store")
	store, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	return store, nil
}
