// Package cloudinary stores course thumbnails on the Cloudinary CDN.
package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

const thumbnailTag = "course-thumbnail"

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Thumbnails uploads course images and satisfies service.FileStorage.
type Thumbnails struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs a Cloudinary-backed thumbnail store.
func New(cfg Config, logger zerolog.Logger) (*Thumbnails, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Thumbnails{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
		now:    time.Now,
	}, nil
}

// Upload stores the image and returns its secure delivery URL.
func (t *Thumbnails) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	overwrite := false
	params := uploader.UploadParams{
		Folder:       t.folder,
		PublicID:     thumbnailPublicID(name, t.now()),
		ResourceType: "image",
		Tags:         api.CldAPIArray{thumbnailTag},
		Overwrite:    &overwrite,
	}

	result, err := t.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload thumbnail: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected thumbnail: %s", result.Error.Message)
	}

	t.logger.Info().
		Str("public_id", result.PublicID).
		Int("width", result.Width).
		Int("height", result.Height).
		Msg("course thumbnail uploaded")

	return result.SecureURL, nil
}

// thumbnailPublicID slugs the original file name and suffixes the upload time.
func thumbnailPublicID(name string, at time.Time) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, base)
	for strings.Contains(base, "--") {
		base = strings.ReplaceAll(base, "--", "-")
	}
	base = strings.Trim(base, "-")
	if base == "" {
		base = "thumbnail"
	}
	return fmt.Sprintf("%s-%d", base, at.Unix())
}
