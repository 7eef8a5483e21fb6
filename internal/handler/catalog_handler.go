package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/service"
	"github.com/noah-isme/course-market-api/internal/utils"
)

// CatalogHandler serves the public catalog and the admin CSV export.
type CatalogHandler struct {
	service   service.CatalogService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(service service.CatalogService, validate *validator.Validate, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "catalog_handler").Logger(),
	}
}

// Register binds the public catalog routes.
func (h *CatalogHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
}

// RegisterAdmin binds the export route onto the admin group.
func (h *CatalogHandler) RegisterAdmin(router fiber.Router) {
	router.Get("/courses/export", h.export)
}

func (h *CatalogHandler) list(c *fiber.Ctx) error {
	var query dto.CatalogQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}
	query.Sort = strings.ToLower(strings.TrimSpace(query.Sort))
	if err := h.validator.Struct(query); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid query", err.Error())
	}

	response, err := h.service.List(requestContext(c), query)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list courses")
	}
	return utils.OK(c, response.Items, "courses", fiber.Map{
		"pagination": response.Pagination,
		"cache_hit":  response.CacheHit,
	})
}

func (h *CatalogHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}
	course, err := h.service.Get(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load course")
	}
	return utils.SendSuccess(c, "course", course)
}

func (h *CatalogHandler) export(c *fiber.Ctx) error {
	status := models.ApprovalStatus(strings.ToLower(strings.TrimSpace(c.Query("status"))))
	switch status {
	case "", models.ApprovalPending, models.ApprovalApproved, models.ApprovalRejected:
	default:
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", map[string]string{"status": "must be one of: pending approved rejected"})
	}

	data, err := h.service.Export(requestContext(c), status)
	if err != nil {
		return respondError(c, h.logger, err, "failed to export courses")
	}

	filename := fmt.Sprintf("courses-%s.csv", time.Now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(data)
}
