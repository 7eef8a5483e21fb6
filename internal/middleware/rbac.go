package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/utils"
)

// CapabilityReader is the slice of the role authority the middleware needs.
type CapabilityReader interface {
	Authorize(ctx context.Context, userID string, required models.Role) error
}

// RequireUser rejects requests that carry no authenticated subject.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserID(c) == "" {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		return c.Next()
	}
}

// RequireCapability lets the request through when the caller holds any of roles.
// Roles are read from the store on every request; a failed lookup denies access.
func RequireCapability(authority CapabilityReader, logger zerolog.Logger, roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == "" {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		ctx := ContextWithCorrelation(c.UserContext(), GetCorrelationID(c))
		var lastErr error
		for _, role := range roles {
			err := authority.Authorize(ctx, userID, role)
			if err == nil {
				return c.Next()
			}
			lastErr = err
		}

		if lastErr != nil && !errors.Is(lastErr, context.Canceled) {
			logger.Debug().Err(lastErr).Str("user_id", userID).Str("path", c.Path()).Msg("capability check denied")
		}
		return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
	}
}
