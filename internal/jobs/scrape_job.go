package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"kluster/lead-scraper/internal/models"
	"kluster/lead-scraper/internal/providers"
)

// Store is what the workflow writes to.
type Store interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, update models.JobUpdate) error
	UpsertCompany(ctx context.Context, company models.Company) bool
	RecalculateScores(ctx context.Context, city string) error
}

// Outcome is the terminal state of one executed job.
type Outcome struct {
	JobID   uuid.UUID
	Status  models.JobStatus // completed or failed
	Count   int
	APIUsed string
	Err     error // why the job failed
}

// Scraper runs the scrape workflow for a job: mark it running, search the
// primary provider, fall back to the secondary one, store the listings and
// record the result.
type Scraper struct {
	store     Store
	primary   providers.Provider
	secondary providers.Provider
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewScraper creates a Scraper. primary is always tried first.
func NewScraper(store Store, primary, secondary providers.Provider, log logrus.FieldLogger) *Scraper {
	return &Scraper{
		store:     store,
		primary:   primary,
		secondary: secondary,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Execute processes job to a terminal state.
//
// Failures inside the workflow are recorded on the job and reported through
// the Outcome. The returned error is only set when the store could not record
// the running or failed status, in which case the job may be left running.
func (s *Scraper) Execute(ctx context.Context, job models.ScrapeJob) (Outcome, error) {
	log := s.log.WithFields(logrus.Fields{"job_id": job.ID, "query": job.Query, "city": job.City})
	log.Info("Processing job")

	if err := s.store.UpdateStatus(ctx, job.ID, models.RunningUpdate(s.now())); err != nil {
		return Outcome{}, fmt.Errorf("failed to mark job %s running: %w", job.ID, err)
	}

	count, api, err := s.scrape(ctx, job, log)
	if err != nil {
		log.WithError(err).Error("Job failed")
		if uerr := s.store.UpdateStatus(ctx, job.ID, models.FailedUpdate(s.now(), err.Error())); uerr != nil {
			return Outcome{}, fmt.Errorf("failed to mark job %s failed: %w", job.ID, uerr)
		}
		return Outcome{JobID: job.ID, Status: models.JobStatusFailed, Err: err}, nil
	}

	log.WithFields(logrus.Fields{"count": count, "api_used": api}).Info("Job completed")
	return Outcome{JobID: job.ID, Status: models.JobStatusCompleted, Count: count, APIUsed: api}, nil
}

// scrape runs the steps whose errors fail the job.
func (s *Scraper) scrape(ctx context.Context, job models.ScrapeJob, log logrus.FieldLogger) (int, string, error) {
	listings, api, err := s.search(ctx, job, log)
	if err != nil {
		return 0, "", err
	}

	if len(listings) == 0 {
		log.WithField("api_used", api).Warn("No results from any provider")
		if err := s.store.UpdateStatus(ctx, job.ID, models.CompletedUpdate(s.now(), 0, api)); err != nil {
			return 0, "", err
		}
		return 0, api, nil
	}

	now := s.now()
	stored := 0
	for _, l := range listings {
		if s.store.UpsertCompany(ctx, NewCompany(job, l, api, now)) {
			stored++
		}
	}
	log.WithFields(logrus.Fields{"stored": stored, "received": len(listings)}).Info("Companies stored")

	if err := s.store.RecalculateScores(ctx, job.City); err != nil {
		log.WithError(err).Warn("Score recalculation failed")
	}

	if err := s.store.UpdateStatus(ctx, job.ID, models.CompletedUpdate(s.now(), stored, api)); err != nil {
		return 0, "", err
	}
	return stored, api, nil
}

// search asks the primary provider and falls back to the secondary one when
// the primary has nothing. A provider error is not a reason to fall back.
func (s *Scraper) search(ctx context.Context, job models.ScrapeJob, log logrus.FieldLogger) ([]providers.Listing, string, error) {
	var api string
	for _, p := range []providers.Provider{s.primary, s.secondary} {
		api = p.Name()
		res, err := p.Search(ctx, job.Query, job.City)
		if err != nil {
			return nil, api, err
		}
		log.WithFields(logrus.Fields{
			"provider": api,
			"status":   res.Status,
			"count":    len(res.Listings),
		}).Info("Provider searched")
		if len(res.Listings) > 0 {
			return res.Listings, api, nil
		}
	}
	return nil, api, nil
}
