package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/middleware"
	"github.com/noah-isme/course-market-api/internal/service"
	"github.com/noah-isme/course-market-api/internal/utils"
)

// CourseHandler serves instructor course submission endpoints.
type CourseHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(service service.SubmissionService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register binds the instructor course routes. submitGuards run before course creation only.
func (h *CourseHandler) Register(router fiber.Router, submitGuards ...fiber.Handler) {
	router.Get("/mine", h.listMine)
	router.Post("", append(submitGuards, h.submit)...)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
}

// RegisterAdmin binds the admin-only course removal route.
func (h *CourseHandler) RegisterAdmin(router fiber.Router) {
	router.Delete("/:id", h.delete)
}

func (h *CourseHandler) submit(c *fiber.Ctx) error {
	var payload dto.CourseSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	created, err := h.service.SubmitCourse(requestContext(c), middleware.UserID(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit course")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course submitted for review", created)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}
	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	course, err := h.service.UpdateCourse(requestContext(c), middleware.UserID(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update course")
	}
	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}
	if err := h.service.DeleteCourse(requestContext(c), middleware.UserID(c), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete course")
	}
	return utils.SendSuccess(c, "course deleted", nil)
}

func (h *CourseHandler) listMine(c *fiber.Ctx) error {
	page, pageSize, err := paginationQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	response, err := h.service.ListMyCourses(requestContext(c), middleware.UserID(c), page, pageSize)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list courses")
	}
	return utils.OK(c, response.Items, "courses", response.Pagination)
}
