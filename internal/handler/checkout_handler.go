package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/service"
	"github.com/noah-isme/course-market-api/internal/utils"
)

// CheckoutHandler prices carts.
type CheckoutHandler struct {
	service service.CheckoutService
	logger  zerolog.Logger
}

// NewCheckoutHandler constructs a checkout handler.
func NewCheckoutHandler(service service.CheckoutService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("component", "checkout_handler").Logger(),
	}
}

// Register binds checkout routes.
func (h *CheckoutHandler) Register(router fiber.Router) {
	router.Post("/quote", h.quote)
}

func (h *CheckoutHandler) quote(c *fiber.Ctx) error {
	var payload dto.QuoteRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	quote, err := h.service.Quote(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to price cart")
	}
	return utils.SendSuccess(c, "quote", quote)
}
