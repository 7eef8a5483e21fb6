package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/course-market-api/internal/models"
)

// FollowRepository persists the instructor follower relation.
type FollowRepository interface {
	Follow(ctx context.Context, instructorID, followerID string) error
	Unfollow(ctx context.Context, instructorID, followerID string) error
	IsFollowing(ctx context.Context, instructorID, followerID string) (bool, error)
	CountFollowers(ctx context.Context, instructorID string) (int64, error)
	ListFollowerIDs(ctx context.Context, instructorID string) ([]string, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository constructs a repository backed by GORM.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Follow(ctx context.Context, instructorID, followerID string) error {
	follow := models.InstructorFollow{InstructorID: instructorID, FollowerID: followerID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instructor_id"}, {Name: "follower_id"}},
			DoNothing: true,
		}).
		Create(&follow).Error
}

func (r *followRepository) Unfollow(ctx context.Context, instructorID, followerID string) error {
	return r.db.WithContext(ctx).
		Where("instructor_id = ? AND follower_id = ?", instructorID, followerID).
		Delete(&models.InstructorFollow{}).Error
}

func (r *followRepository) IsFollowing(ctx context.Context, instructorID, followerID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InstructorFollow{}).
		Where("instructor_id = ? AND follower_id = ?", instructorID, followerID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, instructorID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InstructorFollow{}).
		Where("instructor_id = ?", instructorID).
		Count(&count).Error
	return count, err
}

func (r *followRepository) ListFollowerIDs(ctx context.Context, instructorID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.InstructorFollow{}).
		Where("instructor_id = ?", instructorID).
		Order("created_at ASC").
		Pluck("follower_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
