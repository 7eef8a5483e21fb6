package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/config"
	"github.com/noah-isme/course-market-api/internal/handler"
	"github.com/noah-isme/course-market-api/internal/middleware"
	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CatalogHandler      *handler.CatalogHandler
	CheckoutHandler     *handler.CheckoutHandler
	FollowHandler       *handler.FollowHandler
	RoleHandler         *handler.RoleHandler
	NotificationHandler *handler.NotificationHandler
	ApplicationHandler  *handler.ApplicationHandler
	CourseHandler       *handler.CourseHandler
	UploadHandler       *handler.UploadHandler
	ReviewHandler       *handler.ReviewHandler
	ActivityHandler     *handler.ActivityHandler
	AnalyticsHandler    *handler.AdminAnalyticsHandler
	FunctionHandler     *handler.FunctionHandler

	// HealthProbes back the health endpoint's dependency checks.
	HealthProbes []handler.HealthProbe

	JWTMiddleware fiber.Handler
	Authority     middleware.CapabilityReader
	// SubmissionLimiter guards course and application submissions.
	SubmissionLimiter fiber.Handler
	Logger            zerolog.Logger
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	var submitGuards []fiber.Handler
	if deps.SubmissionLimiter != nil {
		submitGuards = append(submitGuards, deps.SubmissionLimiter)
	}

	// Public storefront
	if deps.CatalogHandler != nil {
		deps.CatalogHandler.Register(api.Group("/courses"))
	}
	if deps.CheckoutHandler != nil {
		deps.CheckoutHandler.Register(api.Group("/checkout"))
	}
	if deps.FollowHandler != nil {
		deps.FollowHandler.Register(api.Group("/instructors"), jwtMiddleware, middleware.RequireUser())
	}

	// Signed-in users
	if deps.RoleHandler != nil {
		deps.RoleHandler.Register(api.Group("/me", jwtMiddleware, middleware.RequireUser()))
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", jwtMiddleware, middleware.RequireUser()))
	}
	if deps.ApplicationHandler != nil {
		deps.ApplicationHandler.Register(api.Group("/instructor-applications", jwtMiddleware, middleware.RequireUser()), submitGuards...)
	}

	// Instructor area
	if deps.Authority != nil {
		instructorOnly := middleware.RequireCapability(deps.Authority, deps.Logger, models.RoleInstructor)
		if deps.CourseHandler != nil {
			deps.CourseHandler.Register(api.Group("/instructor/courses", jwtMiddleware, instructorOnly), submitGuards...)
		}
		if deps.UploadHandler != nil {
			deps.UploadHandler.Register(api.Group("/uploads", jwtMiddleware, instructorOnly))
		}
	}

	// Admin area
	if deps.Authority != nil {
		adminOnly := middleware.RequireCapability(deps.Authority, deps.Logger, models.RoleAdmin)
		admin := app.Group("/api/admin", jwtMiddleware, adminOnly)
		if deps.ReviewHandler != nil {
			deps.ReviewHandler.Register(admin)
		}
		if deps.CatalogHandler != nil {
			deps.CatalogHandler.RegisterAdmin(admin)
		}
		if deps.CourseHandler != nil {
			deps.CourseHandler.RegisterAdmin(admin.Group("/courses"))
		}
		if deps.ActivityHandler != nil {
			deps.ActivityHandler.Register(admin.Group("/activity"))
		}
		if deps.AnalyticsHandler != nil {
			deps.AnalyticsHandler.Register(admin.Group("/analytics"))
		}

		// Notification senders answer their own preflight before authentication.
		if deps.FunctionHandler != nil {
			deps.FunctionHandler.Register(app.Group("/functions/v1"), jwtMiddleware, adminOnly)
		}
	}
}
