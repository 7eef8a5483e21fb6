package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/course-market-api/internal/models"
)

// StatusCount is the number of records in one approval state.
type StatusCount struct {
	Status models.ApprovalStatus
	Total  int64
}

// Decision is a reviewed course or application reduced to its timing.
type Decision struct {
	EntityType  string
	Status      models.ApprovalStatus
	SubmittedAt time.Time
	DecidedAt   time.Time
}

// AdminAnalyticsRepository supplies data for the review dashboard.
type AdminAnalyticsRepository interface {
	CountCoursesByStatus(ctx context.Context) ([]StatusCount, error)
	CountApplicationsByStatus(ctx context.Context) ([]StatusCount, error)
	CountRoleHolders(ctx context.Context, role models.Role) (int64, error)
	ListDecisionsSince(ctx context.Context, since time.Time) ([]Decision, error)
}

type adminAnalyticsRepository struct {
	db *gorm.DB
}

// NewAdminAnalyticsRepository constructs the analytics repository.
func NewAdminAnalyticsRepository(db *gorm.DB) AdminAnalyticsRepository {
	return &adminAnalyticsRepository{db: db}
}

func (r *adminAnalyticsRepository) CountCoursesByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Select("approval_status AS status, COUNT(*) AS total").
		Group("approval_status").
		Scan(&rows).Error
	return rows, err
}

func (r *adminAnalyticsRepository) CountApplicationsByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Model(&models.InstructorApplication{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (r *adminAnalyticsRepository) CountRoleHolders(ctx context.Context, role models.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Where("role = ?", role).
		Count(&count).Error
	return count, err
}

func (r *adminAnalyticsRepository) ListDecisionsSince(ctx context.Context, since time.Time) ([]Decision, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).
		Select("id", "approval_status", "created_at", "approved_at").
		Where("approval_status <> ? AND approved_at >= ?", models.ApprovalPending, since).
		Find(&courses).Error; err != nil {
		return nil, err
	}

	var applications []models.InstructorApplication
	if err := r.db.WithContext(ctx).
		Select("id", "status", "created_at", "reviewed_at").
		Where("status <> ? AND reviewed_at >= ?", models.ApprovalPending, since).
		Find(&applications).Error; err != nil {
		return nil, err
	}

	decisions := make([]Decision, 0, len(courses)+len(applications))
	for _, course := range courses {
		if course.ApprovedAt == nil {
			continue
		}
		decisions = append(decisions, Decision{EntityType: "course", Status: course.ApprovalStatus, SubmittedAt: course.CreatedAt, DecidedAt: *course.ApprovedAt})
	}
	for _, application := range applications {
		if application.ReviewedAt == nil {
			continue
		}
		decisions = append(decisions, Decision{EntityType: "instructor_application", Status: application.Status, SubmittedAt: application.CreatedAt, DecidedAt: *application.ReviewedAt})
	}
	return decisions, nil
}
