package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kluster/lead-scraper/internal/jobs"
	"kluster/lead-scraper/internal/middleware"
	"kluster/lead-scraper/internal/models"
	"kluster/lead-scraper/internal/worker"
)

const testKey = "service-key"

var (
	completedJob = uuid.MustParse("0b6f5a0e-3c1d-4e8a-9f2b-7a1c2d3e4f01")
	failedJob    = uuid.MustParse("0b6f5a0e-3c1d-4e8a-9f2b-7a1c2d3e4f02")
	brokenJob    = uuid.MustParse("0b6f5a0e-3c1d-4e8a-9f2b-7a1c2d3e4f03")
)

type fakeRunner struct {
	calls []uuid.UUID
}

func (f *fakeRunner) RunOne(_ context.Context, id uuid.UUID) (jobs.Outcome, error) {
	f.calls = append(f.calls, id)
	switch id {
	case completedJob:
		return jobs.Outcome{JobID: id, Status: models.JobStatusCompleted, Count: 12, APIUsed: "serper"}, nil
	case failedJob:
		return jobs.Outcome{JobID: id, Status: models.JobStatusFailed, Err: errors.New("connection refused")}, nil
	case brokenJob:
		return jobs.Outcome{}, errors.New("store down")
	}
	return jobs.Outcome{}, fmt.Errorf("%w: %s", worker.ErrJobNotFound, id)
}

func newTestApp(runner JobRunner) *fiber.App {
	log, _ := logtest.NewNullLogger()
	app := fiber.New()
	app.Use(middleware.RequestLogger(log))
	SetupRoutes(app, NewApplicationHandler(log, runner, testKey))
	return app
}

func scrapeRequest(body string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/scrape", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestHealth(t *testing.T) {
	resp, err := newTestApp(&fakeRunner{}).Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "ok", decode(t, resp)["status"])
}

func TestTriggerScrapeAuth(t *testing.T) {
	runner := &fakeRunner{}
	app := newTestApp(runner)
	body := `{"jobId":"` + completedJob.String() + `"}`

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"no credentials", nil, fiber.StatusUnauthorized},
		{"wrong bearer", map[string]string{"Authorization": "Bearer nope"}, fiber.StatusUnauthorized},
		{"wrong api key", map[string]string{"X-API-Key": "nope"}, fiber.StatusUnauthorized},
		{"bearer", map[string]string{"Authorization": "Bearer " + testKey}, fiber.StatusOK},
		{"api key", map[string]string{"X-API-Key": testKey}, fiber.StatusOK},
		{"wrong bearer, right api key", map[string]string{"Authorization": "Bearer nope", "X-API-Key": testKey}, fiber.StatusOK},
		{"right bearer, wrong api key", map[string]string{"Authorization": "Bearer " + testKey, "X-API-Key": "nope"}, fiber.StatusOK},
		{"both wrong", map[string]string{"Authorization": "Bearer nope", "X-API-Key": "nope"}, fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(scrapeRequest(body, tt.headers))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
	assert.Len(t, runner.calls, 4)
}

func TestTriggerScrapeEmptyServiceKeyRejectsAll(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	app := fiber.New()
	SetupRoutes(app, NewApplicationHandler(log, &fakeRunner{}, ""))

	resp, err := app.Test(scrapeRequest(`{"jobId":"`+completedJob.String()+`"}`, map[string]string{"Authorization": "Bearer "}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestTriggerScrapeBadRequest(t *testing.T) {
	runner := &fakeRunner{}
	app := newTestApp(runner)
	auth := map[string]string{"X-API-Key": testKey}

	for _, body := range []string{`{}`, `{"jobId":"  "}`, `{"jobId":"not-a-uuid"}`, `{"jobId":`} {
		resp, err := app.Test(scrapeRequest(body, auth))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, body)
		assert.Equal(t, "error", decode(t, resp)["status"])
	}
	assert.Empty(t, runner.calls)
}

func TestTriggerScrapeOutcomes(t *testing.T) {
	app := newTestApp(&fakeRunner{})
	auth := map[string]string{"X-API-Key": testKey}
	body := func(id uuid.UUID) string { return `{"jobId":"` + id.String() + `"}` }

	resp, err := app.Test(scrapeRequest(body(completedJob), auth))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode(t, resp)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, map[string]interface{}{"message": "Scraping completed", "count": float64(12), "api": "serper"}, out["data"])

	resp, err = app.Test(scrapeRequest(body(failedJob), auth))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	out = decode(t, resp)
	assert.Equal(t, "connection refused", out["message"])
	assert.Equal(t, map[string]interface{}{"count": float64(0)}, out["data"])

	resp, err = app.Test(scrapeRequest(body(brokenJob), auth))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	resp, err = app.Test(scrapeRequest(body(uuid.MustParse("0b6f5a0e-3c1d-4e8a-9f2b-7a1c2d3e4fff")), auth))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Job not found", decode(t, resp)["message"])
}
