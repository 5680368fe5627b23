package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLoggerLevels(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	app := fiber.New()
	app.Use(RequestLogger(log))
	app.Get("/ok", func(c *fiber.Ctx) error {
		assert.NotEmpty(t, c.Locals(RequestIDKey))
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/missing", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusBadGateway, "upstream") })

	tests := []struct {
		path  string
		level logrus.Level
		msg   string
	}{
		{"/ok", logrus.InfoLevel, "Request completed successfully"},
		{"/missing", logrus.WarnLevel, "Request completed with client error"},
		{"/boom", logrus.ErrorLevel, "Request processing failed"},
	}
	for _, tt := range tests {
		hook.Reset()
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

		entry := hook.LastEntry()
		require.NotNil(t, entry, tt.path)
		assert.Equal(t, tt.level, entry.Level, tt.path)
		assert.Equal(t, tt.msg, entry.Message, tt.path)
		assert.Equal(t, tt.path, entry.Data["uri"])
	}
}
