package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/course-market-api/internal/config"
	"github.com/noah-isme/course-market-api/internal/utils"
)

const healthProbeTimeout = 2 * time.Second

// HealthProbe checks one backing dependency.
type HealthProbe struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Service     string            `json:"service"`
	Environment string            `json:"environment"`
	MailMode    string            `json:"mail_mode"`
	Checks      map[string]string `json:"checks,omitempty"`
}

// HealthCheck reports the service as degraded with 503 when any probe fails.
// Mail runs in demo mode without provider credentials, which is not a failure.
func HealthCheck(cfg config.Config, probes ...HealthProbe) fiber.Handler {
	mailMode := "demo"
	if cfg.MailConfigured() {
		mailMode = "live"
	}
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			MailMode:    mailMode,
		}

		if len(probes) == 0 {
			return utils.SendSuccess(c, "service healthy", payload)
		}

		payload.Checks = runProbes(c.UserContext(), probes)
		for _, result := range payload.Checks {
			if result != "ok" {
				payload.Status = "degraded"
			}
		}
		if payload.Status != "ok" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.APIResponse{
				Success: false,
				Message: "service degraded",
				Data:    payload,
			})
		}
		return utils.SendSuccess(c, "service healthy", payload)
	}
}

func runProbes(parent context.Context, probes []HealthProbe) map[string]string {
	ctx, cancel := context.WithTimeout(parent, healthProbeTimeout)
	defer cancel()

	results := make([]string, len(probes))
	var g errgroup.Group
	for i, probe := range probes {
		g.Go(func() error {
			if err := probe.Check(ctx); err != nil {
				results[i] = err.Error()
				return nil
			}
			results[i] = "ok"
			return nil
		})
	}
	_ = g.Wait()

	checks := make(map[string]string, len(probes))
	for i, probe := range probes {
		checks[probe.Name] = results[i]
	}
	return checks
}
