package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/repository"
)

// ProfileService keeps the contact directory used to address email.
type ProfileService interface {
	Sync(ctx context.Context, userID, email, fullName string) error
}

type profileService struct {
	repo   repository.ProfileRepository
	logger zerolog.Logger
}

// NewProfileService constructs the profile service.
func NewProfileService(repo repository.ProfileRepository, logger zerolog.Logger) ProfileService {
	return &profileService{
		repo:   repo,
		logger: logger.With().Str("component", "profile_service").Logger(),
	}
}

// Sync upserts the caller's contact details. Calls without an email are ignored.
func (s *profileService) Sync(ctx context.Context, userID, email, fullName string) error {
	userID = strings.TrimSpace(userID)
	email = strings.TrimSpace(email)
	if userID == "" || email == "" {
		return nil
	}
	profile := models.UserProfile{UserID: userID, Email: email, FullName: strings.TrimSpace(fullName)}
	if err := s.repo.Upsert(ctx, &profile); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to sync profile")
		return err
	}
	return nil
}
