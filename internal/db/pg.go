package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"kluster/lead-scraper/internal/models"
)

const jobColumns = `id, query, city, status, results_count, api_used, error_message,
	created_by, created_at, started_at, completed_at`

// Core columns are overwritten on conflict; enrichment columns keep the
// stored value when the new one is NULL.
const upsertCompanySQL = `
INSERT INTO companies (
	name, business_type, city, address, postal_code, phone, website, google_maps_url,
	rating, review_count, source_api, scraped_at, created_by,
	description, categories, latitude, longitude, opening_hours, service_options
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (name, city) DO UPDATE SET
	business_type   = EXCLUDED.business_type,
	address         = EXCLUDED.address,
	postal_code     = EXCLUDED.postal_code,
	phone           = EXCLUDED.phone,
	website         = EXCLUDED.website,
	google_maps_url = EXCLUDED.google_maps_url,
	rating          = EXCLUDED.rating,
	review_count    = EXCLUDED.review_count,
	source_api      = EXCLUDED.source_api,
	scraped_at      = EXCLUDED.scraped_at,
	created_by      = EXCLUDED.created_by,
	description     = COALESCE(EXCLUDED.description, companies.description),
	categories      = COALESCE(EXCLUDED.categories, companies.categories),
	latitude        = COALESCE(EXCLUDED.latitude, companies.latitude),
	longitude       = COALESCE(EXCLUDED.longitude, companies.longitude),
	opening_hours   = COALESCE(EXCLUDED.opening_hours, companies.opening_hours),
	service_options = COALESCE(EXCLUDED.service_options, companies.service_options);
`

// PGStore is the Store backed by a direct Postgres connection, used when
// DATABASE_URL is set instead of the Supabase REST API.
type PGStore struct {
	pool *pgxpool.Pool
	log  logrus.FieldLogger
}

// NewPG opens a pool on dsn and checks it with a ping.
func NewPG(ctx context.Context, dsn string, log logrus.FieldLogger) (*PGStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	log.Debug("Postgres pool ready")
	return &PGStore{pool: pool, log: log}, nil
}

func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func scanJob(row pgx.CollectableRow) (models.ScrapeJob, error) {
	var (
		j      models.ScrapeJob
		status string
	)
	err := row.Scan(&j.ID, &j.Query, &j.City, &status, &j.ResultsCount, &j.APIUsed,
		&j.ErrorMessage, &j.CreatedBy, &j.CreatedAt, &j.StartedAt, &j.CompletedAt)
	j.Status = models.JobStatus(status)
	return j, err
}

func (s *PGStore) ListPending(ctx context.Context) ([]models.ScrapeJob, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM scrape_jobs WHERE status = $1 ORDER BY created_at ASC`,
		string(models.JobStatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}
	jobs, err := pgx.CollectRows(rows, scanJob)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}
	return jobs, nil
}

func (s *PGStore) GetByID(ctx context.Context, id uuid.UUID) (*models.ScrapeJob, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+jobColumns+` FROM scrape_jobs WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job %s: %w", id, err)
	}
	job, err := pgx.CollectExactlyOneRow(rows, scanJob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job %s: %w", id, err)
	}
	return &job, nil
}

// updateJobSQL builds the UPDATE for the non-nil fields of u.
func updateJobSQL(id uuid.UUID, u models.JobUpdate) (string, []any) {
	sets := []string{"status = $1"}
	args := []any{string(u.Status)}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.StartedAt != nil {
		add("started_at", *u.StartedAt)
	}
	if u.CompletedAt != nil {
		add("completed_at", *u.CompletedAt)
	}
	if u.ResultsCount != nil {
		add("results_count", *u.ResultsCount)
	}
	if u.APIUsed != nil {
		add("api_used", *u.APIUsed)
	}
	if u.ErrorMessage != nil {
		add("error_message", *u.ErrorMessage)
	}
	args = append(args, id)
	sql := fmt.Sprintf("UPDATE scrape_jobs SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	return sql, args
}

func (s *PGStore) UpdateStatus(ctx context.Context, id uuid.UUID, update models.JobUpdate) error {
	sql, args := updateJobSQL(id, update)
	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	return nil
}

// jsonArg turns an absent JSON document into SQL NULL rather than JSON null.
func jsonArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func textArrayArg(values []string) any {
	if len(values) == 0 {
		return nil
	}
	return values
}

func companyArgs(c models.Company) []any {
	return []any{
		c.Name, c.BusinessType, c.City, c.Address, c.PostalCode, c.Phone, c.Website, c.GoogleMapsURL,
		c.Rating, c.ReviewCount, c.SourceAPI, c.ScrapedAt, c.CreatedBy,
		c.Description, textArrayArg(c.Categories), c.Latitude, c.Longitude,
		jsonArg(c.OpeningHours), jsonArg(c.ServiceOptions),
	}
}

func (s *PGStore) UpsertCompany(ctx context.Context, company models.Company) bool {
	if _, err := s.pool.Exec(ctx, upsertCompanySQL, companyArgs(company)...); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"name": company.Name,
			"city": company.City,
		}).Error("Error inserting company")
		return false
	}
	return true
}

func (s *PGStore) RecalculateScores(ctx context.Context, city string) error {
	if _, err := s.pool.Exec(ctx, `SELECT recalculate_gmb_scores($1)`, city); err != nil {
		return fmt.Errorf("failed to recalculate scores for %s: %w", city, err)
	}
	return nil
}
