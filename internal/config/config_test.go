package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("MARKET_JWT_SECRET", "secret")
	t.Setenv("MARKET_DATABASE_URL", "postgres://localhost/market")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, 10*time.Second, cfg.MailTimeout)
	require.Equal(t, 2*time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, 5*time.Minute, cfg.AnalyticsCacheTTL)
	require.Equal(t, 20, cfg.DatabaseMaxOpenConn)
	require.Equal(t, 30*time.Minute, cfg.DatabaseConnMaxLife)
	require.Equal(t, 8, cfg.DispatchConcurrency)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	require.False(t, cfg.MailConfigured())
	require.False(t, cfg.CloudinaryConfigured())
}

func TestLoadReadsMailSettings(t *testing.T) {
	t.Setenv("MARKET_JWT_SECRET", "secret")
	t.Setenv("MARKET_DATABASE_URL", "postgres://localhost/market")
	t.Setenv("MARKET_SENDGRID_API_KEY", "SG.key")
	t.Setenv("MARKET_MAIL_FROM_ADDRESS", "noreply@example.com")
	t.Setenv("MARKET_MAIL_TIMEOUT", "3s")
	t.Setenv("MARKET_CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.MailConfigured())
	require.Equal(t, 3*time.Second, cfg.MailTimeout)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("MARKET_JWT_SECRET", "")
	t.Setenv("MARKET_DATABASE_URL", "postgres://localhost/market")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("MARKET_JWT_SECRET", "secret")
	t.Setenv("MARKET_DATABASE_URL", "postgres://localhost/market")
	t.Setenv("MARKET_MAIL_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}
