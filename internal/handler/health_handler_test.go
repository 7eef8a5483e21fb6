package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/course-market-api/internal/config"
	"github.com/noah-isme/course-market-api/internal/handler"
)

type healthEnvelope struct {
	Success bool                   `json:"success"`
	Data    handler.HealthResponse `json:"data"`
}

func TestHealthCheck(t *testing.T) {
	cases := []struct {
		name     string
		cfg      config.Config
		mailMode string
	}{
		{name: "demo mail", cfg: config.Config{AppName: "Course Market API", AppEnv: "test"}, mailMode: "demo"},
		{name: "live mail", cfg: config.Config{AppName: "Course Market API", AppEnv: "test", SendGridAPIKey: "SG.key", MailFromAddress: "noreply@market.test"}, mailMode: "live"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/api/v1/health", handler.HealthCheck(tc.cfg))

			resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil), -1)
			if err != nil {
				t.Fatalf("failed to execute request: %v", err)
			}
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)

			var payload healthEnvelope
			assert.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
			assert.True(t, payload.Success)
			assert.Equal(t, "ok", payload.Data.Status)
			assert.Equal(t, tc.cfg.AppName, payload.Data.Service)
			assert.Equal(t, tc.cfg.AppEnv, payload.Data.Environment)
			assert.Equal(t, tc.mailMode, payload.Data.MailMode)
			assert.WithinDuration(t, time.Now().UTC(), payload.Data.Timestamp, 2*time.Second)
		})
	}
}

func TestHealthCheckReportsDegradedDependency(t *testing.T) {
	cfg := config.Config{AppName: "Course Market API", AppEnv: "test"}
	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(cfg,
		handler.HealthProbe{Name: "database", Check: func(context.Context) error { return nil }},
		handler.HealthProbe{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var payload healthEnvelope
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.False(t, payload.Success)
	assert.Equal(t, "degraded", payload.Data.Status)
	assert.Equal(t, "ok", payload.Data.Checks["database"])
	assert.Equal(t, "connection refused", payload.Data.Checks["redis"])
}
