package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"productdesk/internal/logger"
	"productdesk/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newApp(t *testing.T) (*fiber.App, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	app := fiber.New()
	app.Use(middleware.RequestLogger(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString(logger.RequestID(c.UserContext()))
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusInternalServerError)
	})
	return app, recorded
}

func TestRequestLogger_AssignsRequestID(t *testing.T) {
	app, recorded := newApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	requestID := resp.Header.Get(middleware.RequestIDHeader)
	assert.NotEmpty(t, requestID)

	entries := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, requestID, entries[0].ContextMap()["request_id"])
	assert.EqualValues(t, http.StatusOK, entries[0].ContextMap()["status"])
}

func TestRequestLogger_ReusesCallerRequestID(t *testing.T) {
	app, _ := newApp(t)

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-123", resp.Header.Get(middleware.RequestIDHeader))
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	app, recorded := newApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	entries := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}
