package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/course-market-api/internal/models"
)

// CourseFilter narrows course queries for admin and instructor views.
type CourseFilter struct {
	Status       models.ApprovalStatus
	InstructorID string
	Page         int
	PageSize     int
}

// CourseDecision is the patch applied when a pending course is reviewed.
type CourseDecision struct {
	Status     models.ApprovalStatus
	ReviewerID string
	ReviewedAt time.Time
	Notes      string
}

// CourseRepository handles persistence for courses.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (models.Course, error)
	FindPublishedByIDs(ctx context.Context, ids []uint) ([]models.Course, error)
	ListPublished(ctx context.Context) ([]models.Course, error)
	List(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error)
	UpdateDetails(ctx context.Context, id uint, instructorID string, fields map[string]interface{}) error
	Transition(ctx context.Context, id uint, decision CourseDecision) error
	Delete(ctx context.Context, id uint) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs a repository backed by GORM.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	course.ApprovalStatus = models.ApprovalPending
	course.IsPublished = false
	course.ApprovedBy = nil
	course.ApprovedAt = nil
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) FindPublishedByIDs(ctx context.Context, ids []uint) ([]models.Course, error) {
	if len(ids) == 0 {
		return []models.Course{}, nil
	}
	var courses []models.Course
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND is_published = ?", ids, true).
		Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) ListPublished(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).
		Where("is_published = ?", true).
		Order("created_at DESC").
		Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{})
	if filter.Status != "" {
		query = query.Where("approval_status = ?", filter.Status)
	}
	if filter.InstructorID != "" {
		query = query.Where("instructor_id = ?", filter.InstructorID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := paginate(filter.Page, filter.PageSize)
	var courses []models.Course
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&courses).Error; err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// UpdateDetails patches content columns of a pending course owned by instructorID.
// Reviewed courses are immutable and yield ErrStateConflict.
func (r *courseRepository) UpdateDetails(ctx context.Context, id uint, instructorID string, fields map[string]interface{}) error {
	for _, guarded := range []string{"approval_status", "is_published", "approved_by", "approved_at", "approval_notes", "instructor_id"} {
		delete(fields, guarded)
	}
	if len(fields) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ? AND instructor_id = ? AND approval_status = ?", id, instructorID, models.ApprovalPending).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var existing models.Course
	if err := r.db.WithContext(ctx).Select("id").Where("instructor_id = ?", instructorID).First(&existing, id).Error; err != nil {
		return err
	}
	return ErrStateConflict
}

// Transition applies the decision only while the course is still pending.
func (r *courseRepository) Transition(ctx context.Context, id uint, decision CourseDecision) error {
	reviewer := decision.ReviewerID
	reviewedAt := decision.ReviewedAt
	updates := map[string]interface{}{
		"approval_status": decision.Status,
		"is_published":    decision.Status == models.ApprovalApproved,
		"approved_by":     &reviewer,
		"approved_at":     &reviewedAt,
		"approval_notes":  decision.Notes,
	}

	result := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ? AND approval_status = ?", id, models.ApprovalPending).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var existing models.Course
	if err := r.db.WithContext(ctx).Select("id").First(&existing, id).Error; err != nil {
		return err
	}
	return ErrStateConflict
}

func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Course{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsNotFound reports whether err signals a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
