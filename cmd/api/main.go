package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/config"
	"github.com/noah-isme/course-market-api/internal/database"
	"github.com/noah-isme/course-market-api/internal/handler"
	"github.com/noah-isme/course-market-api/internal/middleware"
	"github.com/noah-isme/course-market-api/internal/pricing"
	"github.com/noah-isme/course-market-api/internal/repository"
	"github.com/noah-isme/course-market-api/internal/router"
	"github.com/noah-isme/course-market-api/internal/service"
	cloud "github.com/noah-isme/course-market-api/pkg/cloudinary"
	"github.com/noah-isme/course-market-api/pkg/mailer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL, database.Pool{
		MaxOpenConns:    cfg.DatabaseMaxOpenConn,
		MaxIdleConns:    cfg.DatabaseMaxIdleConn,
		ConnMaxLifetime: cfg.DatabaseConnMaxLife,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to access database pool: %v", err)
	}
	probes := []handler.HealthProbe{{Name: "database", Check: sqlDB.PingContext}}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, catalog cache and cross-node notifications disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
			probes = append(probes, handler.HealthProbe{Name: "redis", Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}})
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, falling back to local notification fan-out")
			natsConn = nil
		} else {
			defer natsConn.Drain()
			probes = append(probes, handler.HealthProbe{Name: "nats", Check: func(context.Context) error {
				if !natsConn.IsConnected() {
					return fmt.Errorf("nats status %s", natsConn.Status())
				}
				return nil
			}})
		}
	}

	discounts := pricing.DefaultDiscounts()
	if cfg.DiscountCodes != "" {
		discounts, err = pricing.ParseDiscounts(cfg.DiscountCodes)
		if err != nil {
			log.Fatalf("invalid discount codes: %v", err)
		}
	}

	var storage service.FileStorage
	if cfg.CloudinaryConfigured() {
		storage, err = cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
	} else {
		storage = service.NewLogStorage(cfg.AppBaseURL+"/uploads", logger)
	}

	sender := mailer.NewSendGrid(mailer.Config{
		APIKey:      cfg.SendGridAPIKey,
		FromAddress: cfg.MailFromAddress,
		FromName:    cfg.MailFromName,
	}, logger)
	if !sender.Configured() {
		logger.Warn().Msg("mail provider not configured, notifications run in demo mode")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	roleRepo := repository.NewUserRoleRepository(db)
	followRepo := repository.NewFollowRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	uploadRepo := repository.NewUploadRepository(db)
	analyticsRepo := repository.NewAdminAnalyticsRepository(db)

	roles := service.NewRoleAuthority(roleRepo, logger)
	activity := service.NewActivityService(activityRepo, logger)
	catalog := service.NewCatalogService(courseRepo, redisClient, cfg.CatalogCacheTTL, logger)
	notifications := service.NewNotificationService(notificationRepo, redisClient, cfg.NotificationChannel, natsConn, validate, logger)
	dispatcher := service.NewNotificationDispatcher(notifications, followRepo, profileRepo, sender, service.DispatcherConfig{
		Concurrency: cfg.DispatchConcurrency,
		MailTimeout: cfg.MailTimeout,
		AppBaseURL:  cfg.AppBaseURL,
	}, logger)
	submissions := service.NewSubmissionService(courseRepo, applicationRepo, profileRepo, roles, activity, catalog, validate, logger)
	reviews := service.NewReviewService(courseRepo, applicationRepo, roles, dispatcher, activity, catalog, validate, logger)
	notifier := service.NewDecisionNotifier(courseRepo, applicationRepo, roles, dispatcher, validate, logger)
	checkout := service.NewCheckoutService(courseRepo, discounts, validate, logger)
	follows := service.NewFollowService(followRepo, logger)
	profiles := service.NewProfileService(profileRepo, logger)
	uploads := service.NewUploadService(storage, uploadRepo, cfg.UploadMaxSizeMB, logger)
	analytics := service.NewAdminAnalyticsService(analyticsRepo, redisClient, cfg.AnalyticsCacheTTL, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifications.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowedOrigins: cfg.AllowedOrigins})
	router.Register(app, cfg, router.Dependencies{
		CatalogHandler:      handler.NewCatalogHandler(catalog, validate, logger),
		CheckoutHandler:     handler.NewCheckoutHandler(checkout, logger),
		FollowHandler:       handler.NewFollowHandler(follows, logger),
		RoleHandler:         handler.NewRoleHandler(roles, profiles, logger),
		NotificationHandler: handler.NewNotificationHandler(notifications, logger, 25*time.Second),
		ApplicationHandler:  handler.NewApplicationHandler(submissions, logger),
		CourseHandler:       handler.NewCourseHandler(submissions, logger),
		UploadHandler:       handler.NewUploadHandler(uploads, logger),
		ReviewHandler:       handler.NewReviewHandler(reviews, logger),
		ActivityHandler:     handler.NewActivityHandler(activity, logger),
		AnalyticsHandler:    handler.NewAdminAnalyticsHandler(analytics, logger),
		FunctionHandler:     handler.NewFunctionHandler(notifier, logger),
		HealthProbes:        probes,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		Authority:           roles,
		SubmissionLimiter:   middleware.RateLimit("submissions", cfg.SubmissionRateLimit, cfg.SubmissionRateWindow),
		Logger:              logger,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
