package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/course-market-api/internal/models"
)

// ApplicationFilter narrows instructor application queries.
type ApplicationFilter struct {
	Status   models.ApprovalStatus
	UserID   string
	Page     int
	PageSize int
}

// ApplicationDecision is the patch applied when a pending application is reviewed.
type ApplicationDecision struct {
	Status     models.ApprovalStatus
	ReviewerID string
	ReviewedAt time.Time
	Notes      string
}

// ApplicationRepository handles persistence for instructor applications.
type ApplicationRepository interface {
	Create(ctx context.Context, application *models.InstructorApplication) error
	GetByID(ctx context.Context, id uint) (models.InstructorApplication, error)
	LatestByUser(ctx context.Context, userID string) (models.InstructorApplication, error)
	List(ctx context.Context, filter ApplicationFilter) ([]models.InstructorApplication, int64, error)
	Transition(ctx context.Context, id uint, decision ApplicationDecision) (bool, error)
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository constructs a repository backed by GORM.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, application *models.InstructorApplication) error {
	application.Status = models.ApprovalPending
	application.ReviewedBy = nil
	application.ReviewedAt = nil
	return r.db.WithContext(ctx).Create(application).Error
}

func (r *applicationRepository) GetByID(ctx context.Context, id uint) (models.InstructorApplication, error) {
	var application models.InstructorApplication
	if err := r.db.WithContext(ctx).First(&application, id).Error; err != nil {
		return models.InstructorApplication{}, err
	}
	return application, nil
}

func (r *applicationRepository) LatestByUser(ctx context.Context, userID string) (models.InstructorApplication, error) {
	var application models.InstructorApplication
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&application).Error; err != nil {
		return models.InstructorApplication{}, err
	}
	return application, nil
}

func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]models.InstructorApplication, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InstructorApplication{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := paginate(filter.Page, filter.PageSize)
	var items []models.InstructorApplication
	if err := query.Order("created_at ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Transition applies the decision only while the application is still pending.
// Approval grants the instructor role in the same transaction; the returned flag
// reports whether a new role row was written.
func (r *applicationRepository) Transition(ctx context.Context, id uint, decision ApplicationDecision) (bool, error) {
	var roleCreated bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviewer := decision.ReviewerID
		reviewedAt := decision.ReviewedAt
		result := tx.Model(&models.InstructorApplication{}).
			Where("id = ? AND status = ?", id, models.ApprovalPending).
			Updates(map[string]interface{}{
				"status":      decision.Status,
				"reviewed_by": &reviewer,
				"reviewed_at": &reviewedAt,
				"notes":       decision.Notes,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var existing models.InstructorApplication
			if err := tx.Select("id").First(&existing, id).Error; err != nil {
				return err
			}
			return ErrStateConflict
		}

		if decision.Status != models.ApprovalApproved {
			return nil
		}

		var application models.InstructorApplication
		if err := tx.Select("id", "user_id").First(&application, id).Error; err != nil {
			return err
		}
		created, err := NewUserRoleRepository(tx).InsertIfAbsent(ctx, application.UserID, models.RoleInstructor)
		if err != nil {
			return err
		}
		roleCreated = created
		return nil
	})
	if err != nil {
		return false, err
	}
	return roleCreated, nil
}
