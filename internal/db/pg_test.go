package db

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kluster/lead-scraper/internal/models"
)

func TestUpdateJobSQL(t *testing.T) {
	id := uuid.MustParse(jobID1)
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	sql, args := updateJobSQL(id, models.RunningUpdate(now))
	assert.Equal(t, "UPDATE scrape_jobs SET status = $1, started_at = $2 WHERE id = $3", sql)
	assert.Equal(t, []any{"running", now, id}, args)

	sql, args = updateJobSQL(id, models.CompletedUpdate(now, 7, "serpapi"))
	assert.Equal(t,
		"UPDATE scrape_jobs SET status = $1, completed_at = $2, results_count = $3, api_used = $4 WHERE id = $5", sql)
	assert.Equal(t, []any{"completed", now, 7, "serpapi", id}, args)

	sql, args = updateJobSQL(id, models.FailedUpdate(now, "boom"))
	assert.Equal(t, "UPDATE scrape_jobs SET status = $1, completed_at = $2, error_message = $3 WHERE id = $4", sql)
	assert.Equal(t, []any{"failed", now, "boom", id}, args)
}

func TestCompanyArgsUseSQLNullForAbsentEnrichment(t *testing.T) {
	args := companyArgs(models.Company{Name: "Acme", City: "Lyon"})
	require.Len(t, args, 19)
	assert.Nil(t, args[14]) // categories
	assert.Nil(t, args[17]) // opening_hours
	assert.Nil(t, args[18]) // service_options

	args = companyArgs(models.Company{
		Name:         "Acme",
		City:         "Lyon",
		Categories:   []string{"Plombier"},
		OpeningHours: json.RawMessage(`{"info":"24/7"}`),
	})
	assert.Equal(t, []string{"Plombier"}, args[14])
	assert.Equal(t, `{"info":"24/7"}`, args[17])
}

const testSchema = `
CREATE TABLE IF NOT EXISTS scrape_jobs (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	query TEXT NOT NULL,
	city TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	results_count INTEGER NOT NULL DEFAULT 0,
	api_used TEXT,
	error_message TEXT,
	created_by UUID,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	started_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS companies (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name TEXT NOT NULL,
	business_type TEXT NOT NULL,
	city TEXT NOT NULL,
	address TEXT,
	postal_code TEXT,
	phone TEXT,
	website TEXT,
	google_maps_url TEXT,
	rating NUMERIC(2,1),
	review_count INTEGER NOT NULL DEFAULT 0,
	source_api TEXT,
	scraped_at TIMESTAMPTZ,
	created_by UUID,
	description TEXT,
	categories TEXT[],
	latitude DOUBLE PRECISION,
	longitude DOUBLE PRECISION,
	opening_hours JSONB,
	service_options JSONB,
	UNIQUE (name, city)
);
CREATE OR REPLACE FUNCTION recalculate_gmb_scores(target_city TEXT) RETURNS VOID
LANGUAGE sql AS $$ SELECT NULL::void $$;
TRUNCATE scrape_jobs, companies;
`

// Runs against a disposable database only.
func TestPGStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	log, _ := logtest.NewNullLogger()
	store, err := NewPG(ctx, dsn, log)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.pool.Exec(ctx, testSchema)
	require.NoError(t, err)

	var id uuid.UUID
	require.NoError(t, store.pool.QueryRow(ctx,
		`INSERT INTO scrape_jobs (query, city) VALUES ('plumber', 'Lyon') RETURNING id`).Scan(&id))

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, store.UpdateStatus(ctx, id, models.CompletedUpdate(now, 1, "serper")))

	job, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.ResultsCount)

	missing, err := store.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	desc := "manual description"
	rating := 4.5
	assert.True(t, store.UpsertCompany(ctx, models.Company{
		Name: "Acme", City: "Lyon", BusinessType: "plumber", Rating: &rating,
		Description: &desc, SourceAPI: "serper", ScrapedAt: now,
	}))
	assert.True(t, store.UpsertCompany(ctx, models.Company{
		Name: "Acme", City: "Lyon", BusinessType: "plombier", ReviewCount: 9,
		SourceAPI: "serpapi", ScrapedAt: now,
	}))

	var (
		count       int
		gotType     string
		gotRating   *float64
		description *string
	)
	require.NoError(t, store.pool.QueryRow(ctx,
		`SELECT COUNT(*) OVER (), business_type, rating::float8, description FROM companies WHERE name = 'Acme'`).
		Scan(&count, &gotType, &gotRating, &description))
	assert.Equal(t, 1, count)
	assert.Equal(t, "plombier", gotType)
	assert.Nil(t, gotRating)
	require.NotNil(t, description)
	assert.Equal(t, desc, *description)

	assert.NoError(t, store.RecalculateScores(ctx, "Lyon"))
}
