package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/repository"
)

// FollowService manages learner subscriptions to instructors.
type FollowService interface {
	Follow(ctx context.Context, followerID, instructorID string) (dto.FollowResponse, error)
	Unfollow(ctx context.Context, followerID, instructorID string) (dto.FollowResponse, error)
	Status(ctx context.Context, followerID, instructorID string) (dto.FollowResponse, error)
}

type followService struct {
	repo   repository.FollowRepository
	logger zerolog.Logger
}

// NewFollowService constructs the follow service.
func NewFollowService(repo repository.FollowRepository, logger zerolog.Logger) FollowService {
	return &followService{
		repo:   repo,
		logger: logger.With().Str("component", "follow_service").Logger(),
	}
}

func (s *followService) Follow(ctx context.Context, followerID, instructorID string) (dto.FollowResponse, error) {
	followerID, instructorID, err := normalizeFollowPair(followerID, instructorID)
	if err != nil {
		return dto.FollowResponse{}, err
	}
	if followerID == instructorID {
		return dto.FollowResponse{}, fieldError("instructor_id", "cannot follow yourself")
	}
	if err := s.repo.Follow(ctx, instructorID, followerID); err != nil {
		return dto.FollowResponse{}, err
	}
	return s.Status(ctx, followerID, instructorID)
}

func (s *followService) Unfollow(ctx context.Context, followerID, instructorID string) (dto.FollowResponse, error) {
	followerID, instructorID, err := normalizeFollowPair(followerID, instructorID)
	if err != nil {
		return dto.FollowResponse{}, err
	}
	if err := s.repo.Unfollow(ctx, instructorID, followerID); err != nil {
		return dto.FollowResponse{}, err
	}
	return s.Status(ctx, followerID, instructorID)
}

// Status reports the follower count and, when followerID is set, whether that user follows.
func (s *followService) Status(ctx context.Context, followerID, instructorID string) (dto.FollowResponse, error) {
	instructorID = strings.TrimSpace(instructorID)
	if instructorID == "" {
		return dto.FollowResponse{}, fieldError("instructor_id", "is required")
	}

	count, err := s.repo.CountFollowers(ctx, instructorID)
	if err != nil {
		return dto.FollowResponse{}, err
	}
	response := dto.FollowResponse{InstructorID: instructorID, Followers: count}
	if followerID = strings.TrimSpace(followerID); followerID != "" {
		following, err := s.repo.IsFollowing(ctx, instructorID, followerID)
		if err != nil {
			return dto.FollowResponse{}, err
		}
		response.Following = following
	}
	return response, nil
}

func normalizeFollowPair(followerID, instructorID string) (string, string, error) {
	followerID = strings.TrimSpace(followerID)
	instructorID = strings.TrimSpace(instructorID)
	if followerID == "" {
		return "", "", ErrForbidden
	}
	if instructorID == "" {
		return "", "", fieldError("instructor_id", "is required")
	}
	return followerID, instructorID, nil
}
