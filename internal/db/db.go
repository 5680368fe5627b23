package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	postgrest "github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"

	"kluster/lead-scraper/internal/config"
	"kluster/lead-scraper/internal/models"
)

const (
	jobsTable      = "scrape_jobs"
	companiesTable = "companies"
	// companies is unique on (name, city); upserts resolve against it.
	companiesConflictKey = "name,city"
	scoreFunction        = "recalculate_gmb_scores"
)

// ErrNoStore is returned when neither Supabase nor Postgres is configured.
var ErrNoStore = errors.New("SUPABASE_URL and SUPABASE_SERVICE_KEY (or DATABASE_URL) must be set")

// RESTClient is the part of the Supabase client the store needs for table
// access. Both *supabase.Client and *postgrest.Client satisfy it.
type RESTClient interface {
	From(table string) *postgrest.QueryBuilder
}

// Store reads and writes scrape jobs and companies through Supabase's
// PostgREST API.
type Store struct {
	client RESTClient
	// rpc returns a fresh client per call. postgrest-go keeps an Rpc transport
	// error in ClientError and fails every later query on that client.
	rpc func() *postgrest.Client
	log logrus.FieldLogger
}

// New connects to Supabase with the service key from cfg.
func New(cfg *config.Config, log logrus.FieldLogger) (*Store, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, ErrNoStore
	}

	client, err := supa.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Supabase client: %w", err)
	}

	log.Debug("Supabase client initialized")
	return NewWithClient(client, cfg.SupabaseURL+"/rest/v1", map[string]string{
		"apikey":        cfg.SupabaseKey,
		"Authorization": "Bearer " + cfg.SupabaseKey,
	}, log), nil
}

// NewWithClient wraps an existing client for table access, e.g. one built
// with postgrest.NewClient against a self-hosted PostgREST. RPCs are sent to
// restURL with headers.
func NewWithClient(client RESTClient, restURL string, headers map[string]string, log logrus.FieldLogger) *Store {
	return &Store{
		client: client,
		rpc: func() *postgrest.Client {
			return postgrest.NewClient(restURL, "public", headers)
		},
		log: log,
	}
}

// Close is a no-op; the REST client holds no connections of its own.
func (s *Store) Close() {}

// ListPending returns the pending jobs, oldest first.
func (s *Store) ListPending(_ context.Context) ([]models.ScrapeJob, error) {
	var jobs []models.ScrapeJob
	_, err := s.client.From(jobsTable).
		Select("*", "", false).
		Eq("status", string(models.JobStatusPending)).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}
	return jobs, nil
}

// GetByID returns the job with the given id, or nil when there is none.
func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*models.ScrapeJob, error) {
	var jobs []models.ScrapeJob // PostgREST always answers with an array
	_, err := s.client.From(jobsTable).
		Select("*", "", false).
		Eq("id", id.String()).
		Limit(1, "").
		ExecuteTo(&jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job %s: %w", id, err)
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	return &jobs[0], nil
}

// UpdateStatus applies a partial update to one job.
func (s *Store) UpdateStatus(_ context.Context, id uuid.UUID, update models.JobUpdate) error {
	_, _, err := s.client.From(jobsTable).
		Update(update, "minimal", "").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}

	s.log.WithFields(logrus.Fields{"job_id": id, "status": update.Status}).Debug("Job status updated")
	return nil
}

// UpsertCompany inserts the company or merges it into the row with the same
// (name, city). A failure is logged and reported as false so one bad row does
// not abort the batch.
func (s *Store) UpsertCompany(_ context.Context, company models.Company) bool {
	_, _, err := s.client.From(companiesTable).
		Upsert(company, companiesConflictKey, "minimal", "").
		Execute()
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"name": company.Name,
			"city": company.City,
		}).Error("Error inserting company")
		return false
	}
	return true
}

// RecalculateScores asks the database to refresh the listing scores of a city.
func (s *Store) RecalculateScores(_ context.Context, city string) error {
	rc := s.rpc()
	resp := rc.Rpc(scoreFunction, "", map[string]string{"target_city": city})
	if rc.ClientError != nil {
		return fmt.Errorf("failed to recalculate scores for %s: %w", city, rc.ClientError)
	}
	s.log.WithFields(logrus.Fields{"city": city, "response": resp}).Debug("Score recalculation requested")
	return nil
}
