package middleware

import (
	"io"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// FunctionsPrefix is served by its own preflight handler instead of the shared CORS middleware.
const FunctionsPrefix = "/functions/"

const accessLogFormat = "${time} ${status} ${latency} ${method} ${path} cid=${locals:" + LocalCorrelationID + "}\n"

// Config customises the middleware registration pipeline.
type Config struct {
	Logger         *zerolog.Logger
	AllowedOrigins []string
	// AccessLog receives one plain line per request. Defaults to stdout.
	AccessLog io.Writer
}

// Register installs the middleware chain shared by every route: panic
// recovery, correlation ids, privileged-request metrics, the access log and
// CORS for everything outside the notification functions.
func Register(app *fiber.App, cfg Config) {
	appLogger := zerolog.New(io.Discard)
	if cfg.Logger != nil {
		appLogger = *cfg.Logger
	}
	accessLog := cfg.AccessLog
	if accessLog == nil {
		accessLog = os.Stdout
	}

	origins := "*"
	if len(cfg.AllowedOrigins) > 0 {
		origins = strings.Join(cfg.AllowedOrigins, ",")
	}

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			appLogger.Error().
				Str("correlation_id", GetCorrelationID(c)).
				Str("path", c.Path()).
				Interface("panic", e).
				Msg("request panicked")
		},
	}))
	app.Use(CorrelationID())
	app.Use(Observability(appLogger))
	app.Use(logger.New(logger.Config{
		Format: accessLogFormat,
		Output: accessLog,
		// SSE streams are not access-logged.
		Next: func(c *fiber.Ctx) bool {
			return strings.HasSuffix(c.Path(), "/notifications/stream")
		},
	}))
	app.Use(cors.New(cors.Config{
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), FunctionsPrefix)
		},
		AllowOrigins:  origins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		ExposeHeaders: "X-Correlation-ID, Retry-After, X-Analytics-Cache",
	}))
}
