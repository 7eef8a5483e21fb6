package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/middleware"
	"github.com/noah-isme/course-market-api/internal/service"
	"github.com/noah-isme/course-market-api/internal/utils"
)

// RoleHandler reports the caller's capabilities.
type RoleHandler struct {
	roles    service.RoleAuthority
	profiles service.ProfileService
	logger   zerolog.Logger
}

// NewRoleHandler constructs a role handler. profiles may be nil.
func NewRoleHandler(roles service.RoleAuthority, profiles service.ProfileService, logger zerolog.Logger) *RoleHandler {
	return &RoleHandler{
		roles:    roles,
		profiles: profiles,
		logger:   logger.With().Str("component", "role_handler").Logger(),
	}
}

// Register binds routes under /me.
func (h *RoleHandler) Register(router fiber.Router) {
	router.Get("/roles", h.myRoles)
}

func (h *RoleHandler) myRoles(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	ctx := requestContext(c)

	roles, err := h.roles.CapabilitiesOf(ctx, userID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load roles")
	}

	// The token's contact details keep the email directory current.
	if h.profiles != nil {
		if err := h.profiles.Sync(ctx, userID, middleware.UserEmail(c), middleware.UserName(c)); err != nil {
			requestLogger(h.logger, c).Warn().Err(err).Msg("profile sync failed")
		}
	}

	return utils.SendSuccess(c, "roles", dto.RolesResponse{UserID: userID, Roles: roles.Strings()})
}
