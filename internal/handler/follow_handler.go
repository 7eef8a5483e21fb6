package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/middleware"
	"github.com/noah-isme/course-market-api/internal/service"
	"github.com/noah-isme/course-market-api/internal/utils"
)

// FollowHandler manages learner follows of instructors.
type FollowHandler struct {
	service service.FollowService
	logger  zerolog.Logger
}

// NewFollowHandler constructs a follow handler.
func NewFollowHandler(service service.FollowService, logger zerolog.Logger) *FollowHandler {
	return &FollowHandler{
		service: service,
		logger:  logger.With().Str("component", "follow_handler").Logger(),
	}
}

// Register binds the public count route. authGuards run before the follow routes only.
func (h *FollowHandler) Register(router fiber.Router, authGuards ...fiber.Handler) {
	router.Get("/:id/followers/count", h.count)
	router.Get("/:id/follow", append(authGuards, h.status)...)
	router.Post("/:id/follow", append(authGuards, h.follow)...)
	router.Delete("/:id/follow", append(authGuards, h.unfollow)...)
}

func (h *FollowHandler) follow(c *fiber.Ctx) error {
	status, err := h.service.Follow(requestContext(c), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to follow instructor")
	}
	return utils.SendSuccess(c, "following", status)
}

func (h *FollowHandler) unfollow(c *fiber.Ctx) error {
	status, err := h.service.Unfollow(requestContext(c), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to unfollow instructor")
	}
	return utils.SendSuccess(c, "unfollowed", status)
}

func (h *FollowHandler) status(c *fiber.Ctx) error {
	status, err := h.service.Status(requestContext(c), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load follow status")
	}
	return utils.SendSuccess(c, "follow status", status)
}

func (h *FollowHandler) count(c *fiber.Ctx) error {
	status, err := h.service.Status(requestContext(c), "", c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to count followers")
	}
	return utils.SendSuccess(c, "followers", status)
}
