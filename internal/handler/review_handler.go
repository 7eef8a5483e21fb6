package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/middleware"
	"github.com/noah-isme/course-market-api/internal/service"
	"github.com/noah-isme/course-market-api/internal/utils"
)

// ReviewHandler exposes the admin review queue.
type ReviewHandler struct {
	service service.ReviewService
	logger  zerolog.Logger
}

// NewReviewHandler constructs a review handler.
func NewReviewHandler(service service.ReviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register binds review routes onto the admin group.
func (h *ReviewHandler) Register(router fiber.Router) {
	router.Get("/courses", h.listCourses)
	router.Post("/courses/:id/review", h.reviewCourse)
	router.Get("/applications", h.listApplications)
	router.Post("/applications/:id/review", h.reviewApplication)
}

func (h *ReviewHandler) listCourses(c *fiber.Ctx) error {
	page, pageSize, err := paginationQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	response, err := h.service.ListCourses(requestContext(c), middleware.UserID(c), dto.AdminCourseListRequest{
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list courses")
	}
	return utils.OK(c, response.Items, "courses", response.Pagination)
}

func (h *ReviewHandler) listApplications(c *fiber.Ctx) error {
	page, pageSize, err := paginationQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	response, err := h.service.ListApplications(requestContext(c), middleware.UserID(c), dto.AdminApplicationListRequest{
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list applications")
	}
	return utils.OK(c, response.Items, "instructor applications", response.Pagination)
}

func (h *ReviewHandler) reviewCourse(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}
	var payload dto.ReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.ReviewCourse(requestContext(c), middleware.UserID(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to review course")
	}
	return utils.SendSuccess(c, reviewMessage(result), result)
}

func (h *ReviewHandler) reviewApplication(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid application id")
	}
	var payload dto.ReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.ReviewApplication(requestContext(c), middleware.UserID(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to review application")
	}
	return utils.SendSuccess(c, reviewMessage(result), result)
}

func reviewMessage(result dto.ReviewResponse) string {
	if result.NotificationsComplete {
		return "decision recorded"
	}
	return "decision recorded, some notifications were not delivered"
}
