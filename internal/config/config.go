package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName    string
	AppEnv     string
	AppPort    string
	AppBaseURL string

	DatabaseURL         string
	DatabaseMaxOpenConn int
	DatabaseMaxIdleConn int
	DatabaseConnMaxLife time.Duration
	RedisURL            string
	NATSURL     string
	// NotificationChannel prefixes the Redis channel and NATS subject used for cross-node fan-out.
	NotificationChannel string

	JWTSecret string

	AllowedOrigins []string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxSizeMB        int

	SendGridAPIKey  string
	MailFromAddress string
	MailFromName    string
	MailTimeout     time.Duration

	DispatchConcurrency int
	CatalogCacheTTL     time.Duration
	AnalyticsCacheTTL   time.Duration
	DiscountCodes       string

	SubmissionRateLimit  int
	SubmissionRateWindow time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// MailConfigured reports whether outbound email will be attempted.
func (c Config) MailConfigured() bool {
	return c.SendGridAPIKey != "" && c.MailFromAddress != ""
}

// CloudinaryConfigured reports whether uploads go to Cloudinary.
func (c Config) CloudinaryConfigured() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MARKET")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Course Market API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.base_url", "http://localhost:3000")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("notification.channel", "course-market")
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("cloudinary.folder", "course-market/thumbnails")
	v.SetDefault("upload.max_size_mb", 5)
	v.SetDefault("mail.from_name", "Course Market")
	v.SetDefault("mail.timeout", "10s")
	v.SetDefault("dispatch.concurrency", 8)
	v.SetDefault("catalog.cache_ttl", "2m")
	v.SetDefault("analytics.cache_ttl", "5m")
	v.SetDefault("submission.rate_limit", 10)
	v.SetDefault("submission.rate_window", "1m")

	mailTimeout, err := parseDuration(v, "mail.timeout")
	if err != nil {
		return Config{}, err
	}
	catalogTTL, err := parseDuration(v, "catalog.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	analyticsTTL, err := parseDuration(v, "analytics.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	connMaxLife, err := parseDuration(v, "database.conn_max_lifetime")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "submission.rate_window")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		AppBaseURL:             strings.TrimRight(v.GetString("app.base_url"), "/"),
		DatabaseURL:            v.GetString("database.url"),
		DatabaseMaxOpenConn:    v.GetInt("database.max_open_conns"),
		DatabaseMaxIdleConn:    v.GetInt("database.max_idle_conns"),
		DatabaseConnMaxLife:    connMaxLife,
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		NotificationChannel:    v.GetString("notification.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		AllowedOrigins:         splitList(v.GetString("cors.allowed_origins")),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		SendGridAPIKey:         v.GetString("sendgrid.api_key"),
		MailFromAddress:        v.GetString("mail.from_address"),
		MailFromName:           v.GetString("mail.from_name"),
		MailTimeout:            mailTimeout,
		DispatchConcurrency:    v.GetInt("dispatch.concurrency"),
		CatalogCacheTTL:        catalogTTL,
		AnalyticsCacheTTL:      analyticsTTL,
		DiscountCodes:          v.GetString("discount.codes"),
		SubmissionRateLimit:    v.GetInt("submission.rate_limit"),
		SubmissionRateWindow:   rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}
	if cfg.DispatchConcurrency <= 0 {
		cfg.DispatchConcurrency = 8
	}
	if cfg.SubmissionRateLimit <= 0 {
		cfg.SubmissionRateLimit = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
