package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/course-market-api/internal/models"
)

// Models lists every table owned by the API.
func Models() []interface{} {
	return []interface{}{
		&models.Course{},
		&models.InstructorApplication{},
		&models.UserRole{},
		&models.UserProfile{},
		&models.InstructorFollow{},
		&models.Notification{},
		&models.ActivityLog{},
		&models.UploadRecord{},
	}
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
