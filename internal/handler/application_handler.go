package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/middleware"
	"github.com/noah-isme/course-market-api/internal/service"
	"github.com/noah-isme/course-market-api/internal/utils"
)

// ApplicationHandler serves the become-an-instructor flow.
type ApplicationHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewApplicationHandler constructs an application handler.
func NewApplicationHandler(service service.SubmissionService, logger zerolog.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		service: service,
		logger:  logger.With().Str("component", "application_handler").Logger(),
	}
}

// Register binds the application routes.
func (h *ApplicationHandler) Register(router fiber.Router, submitGuards ...fiber.Handler) {
	router.Post("", append(submitGuards, h.submit)...)
	router.Get("/me", h.mine)
}

func (h *ApplicationHandler) submit(c *fiber.Ctx) error {
	var payload dto.ApplicationSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if payload.Email == "" {
		payload.Email = middleware.UserEmail(c)
	}

	created, err := h.service.SubmitApplication(requestContext(c), middleware.UserID(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit application")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "application submitted for review", created)
}

func (h *ApplicationHandler) mine(c *fiber.Ctx) error {
	application, err := h.service.MyApplication(requestContext(c), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load application")
	}
	return utils.SendSuccess(c, "instructor application", application)
}
