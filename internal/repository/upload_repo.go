package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/course-market-api/internal/models"
)

// UploadRepository persists thumbnail upload records.
type UploadRepository interface {
	Create(ctx context.Context, record *models.UploadRecord) error
	// FindByChecksum returns gorm.ErrRecordNotFound when the owner never stored this content.
	FindByChecksum(ctx context.Context, userID, checksum string) (models.UploadRecord, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.UploadRecord, error)
}

type uploadRepository struct {
	db *gorm.DB
}

// NewUploadRepository constructs a repository for upload records.
func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Create(ctx context.Context, record *models.UploadRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *uploadRepository) FindByChecksum(ctx context.Context, userID, checksum string) (models.UploadRecord, error) {
	var record models.UploadRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND checksum = ?", userID, checksum).
		Order("id ASC").
		First(&record).Error
	return record, err
}

func (r *uploadRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.UploadRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var records []models.UploadRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
