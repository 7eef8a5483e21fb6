package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/middleware"
	"github.com/noah-isme/course-market-api/internal/service"
)

const functionAllowHeaders = "authorization, x-client-info, apikey, content-type, x-correlation-id"

// FunctionHandler exposes the notification senders as plain JSON endpoints.
// Responses are not wrapped in the API envelope.
type FunctionHandler struct {
	notifier service.DecisionNotifier
	logger   zerolog.Logger
}

// NewFunctionHandler constructs a function handler.
func NewFunctionHandler(notifier service.DecisionNotifier, logger zerolog.Logger) *FunctionHandler {
	return &FunctionHandler{
		notifier: notifier,
		logger:   logger.With().Str("component", "function_handler").Logger(),
	}
}

// Register binds the function routes. Preflight requests are answered before guards run.
func (h *FunctionHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Options("/*", h.preflight)
	router.Post("/course-decision", h.guarded(guards, h.courseDecision)...)
	router.Post("/instructor-decision", h.guarded(guards, h.instructorDecision)...)
	router.Post("/course-published", h.guarded(guards, h.coursePublished)...)
}

func (h *FunctionHandler) guarded(guards []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	chain := make([]fiber.Handler, 0, len(guards)+2)
	chain = append(chain, corsHeaders)
	chain = append(chain, guards...)
	return append(chain, handler)
}

func corsHeaders(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Set(fiber.HeaderAccessControlAllowHeaders, functionAllowHeaders)
	return c.Next()
}

func (h *FunctionHandler) preflight(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Set(fiber.HeaderAccessControlAllowHeaders, functionAllowHeaders)
	c.Set(fiber.HeaderAccessControlAllowMethods, "POST, OPTIONS")
	return c.SendStatus(fiber.StatusOK)
}

func (h *FunctionHandler) courseDecision(c *fiber.Ctx) error {
	var payload dto.CourseDecisionFunctionRequest
	if err := c.BodyParser(&payload); err != nil {
		return functionError(c, fiber.StatusBadRequest, "invalid payload")
	}
	result, err := h.notifier.CourseDecision(requestContext(c), middleware.UserID(c), payload)
	return h.respond(c, result, err)
}

func (h *FunctionHandler) instructorDecision(c *fiber.Ctx) error {
	var payload dto.InstructorDecisionFunctionRequest
	if err := c.BodyParser(&payload); err != nil {
		return functionError(c, fiber.StatusBadRequest, "invalid payload")
	}
	result, err := h.notifier.InstructorDecision(requestContext(c), middleware.UserID(c), payload)
	return h.respond(c, result, err)
}

func (h *FunctionHandler) coursePublished(c *fiber.Ctx) error {
	var payload dto.CoursePublishedFunctionRequest
	if err := c.BodyParser(&payload); err != nil {
		return functionError(c, fiber.StatusBadRequest, "invalid payload")
	}
	result, err := h.notifier.CoursePublished(requestContext(c), middleware.UserID(c), payload)
	return h.respond(c, result, err)
}

func (h *FunctionHandler) respond(c *fiber.Ctx, result dto.DispatchResult, err error) error {
	if err != nil {
		var validationErr *service.ValidationError
		switch {
		case errors.As(err, &validationErr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "fields": validationErr.Fields})
		case errors.Is(err, service.ErrForbidden):
			return functionError(c, fiber.StatusForbidden, "insufficient permissions")
		case errors.Is(err, service.ErrCourseNotFound), errors.Is(err, service.ErrApplicationNotFound):
			return functionError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidState):
			return functionError(c, fiber.StatusConflict, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Str("path", c.Path()).Msg("notification function failed")
			return functionError(c, fiber.StatusInternalServerError, err.Error())
		}
	}
	if result.Error != "" {
		requestLogger(h.logger, c).Error().Str("event", result.Event).Str("error", result.Error).Msg("notification function could not dispatch")
		return functionError(c, fiber.StatusInternalServerError, result.Error)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func functionError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}
