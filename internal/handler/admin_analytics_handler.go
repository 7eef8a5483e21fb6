package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/service"
	"github.com/noah-isme/course-market-api/internal/utils"
)

const headerAnalyticsCache = "X-Analytics-Cache"

// AdminAnalyticsHandler serves review queue statistics to administrators.
type AdminAnalyticsHandler struct {
	analytics service.AdminAnalyticsService
	logger    zerolog.Logger
}

// NewAdminAnalyticsHandler constructs the handler.
func NewAdminAnalyticsHandler(analytics service.AdminAnalyticsService, logger zerolog.Logger) *AdminAnalyticsHandler {
	return &AdminAnalyticsHandler{
		analytics: analytics,
		logger:    logger.With().Str("component", "admin_analytics_handler").Logger(),
	}
}

// Register mounts GET on the group root.
func (h *AdminAnalyticsHandler) Register(router fiber.Router) {
	router.Get("", h.summary)
}

func (h *AdminAnalyticsHandler) summary(c *fiber.Ctx) error {
	summary, err := h.analytics.GetSummary(requestContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("review analytics unavailable")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load analytics")
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	if summary.CacheHit {
		c.Set(headerAnalyticsCache, "hit")
	} else {
		c.Set(headerAnalyticsCache, "miss")
	}

	return utils.SendSuccess(c, "review analytics", summary)
}
