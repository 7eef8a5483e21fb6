package service

import (
	"context"
	"io"

	"github.com/rs/zerolog"
)

// LogStorage stands in for the asset CDN when no credentials are configured.
// It discards the payload and returns a stable placeholder URL.
type LogStorage struct {
	baseURL string
	logger  zerolog.Logger
}

// NewLogStorage constructs a logging storage provider.
func NewLogStorage(baseURL string, logger zerolog.Logger) *LogStorage {
	if baseURL == "" {
		baseURL = "https://assets.invalid/uploads"
	}
	return &LogStorage{baseURL: baseURL, logger: logger.With().Str("component", "upload_storage").Logger()}
}

// Upload drains reader and logs the would-be upload.
func (l *LogStorage) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	size, err := io.Copy(io.Discard, reader)
	if err != nil {
		return "", err
	}
	l.logger.Info().Str("file_name", name).Int64("size_bytes", size).Msg("asset storage not configured, upload discarded")
	return l.baseURL + "/" + name, nil
}
