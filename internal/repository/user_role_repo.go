package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/course-market-api/internal/models"
)

// UserRoleRepository reads and grants user capabilities.
type UserRoleRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.UserRole, error)
	InsertIfAbsent(ctx context.Context, userID string, role models.Role) (bool, error)
	CountByUserAndRole(ctx context.Context, userID string, role models.Role) (int64, error)
}

type userRoleRepository struct {
	db *gorm.DB
}

// NewUserRoleRepository constructs a repository backed by GORM.
func NewUserRoleRepository(db *gorm.DB) UserRoleRepository {
	return &userRoleRepository{db: db}
}

func (r *userRoleRepository) ListByUser(ctx context.Context, userID string) ([]models.UserRole, error) {
	var roles []models.UserRole
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("role ASC").
		Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// InsertIfAbsent grants the role and reports whether a new row was written.
// An existing (user, role) pair is left untouched and is not an error.
func (r *userRoleRepository) InsertIfAbsent(ctx context.Context, userID string, role models.Role) (bool, error) {
	grant := models.UserRole{UserID: userID, Role: role}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "role"}},
			DoNothing: true,
		}).
		Create(&grant)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *userRoleRepository) CountByUserAndRole(ctx context.Context, userID string, role models.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	return count, err
}
