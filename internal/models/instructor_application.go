package models

import (
	"time"

	"gorm.io/datatypes"
)

// InstructorApplication is a request from a user to be granted the instructor role.
type InstructorApplication struct {
	ID                uint                        `gorm:"primaryKey" json:"id"`
	UserID            string                      `gorm:"size:64;index;not null" json:"user_id"`
	FullName          string                      `gorm:"size:160;not null" json:"full_name"`
	Email             string                      `gorm:"size:160" json:"email"`
	Bio               string                      `gorm:"type:text;not null" json:"bio"`
	YearsOfExperience int                         `gorm:"not null;default:0" json:"years_of_experience"`
	Expertise         datatypes.JSONSlice[string] `gorm:"type:json" json:"expertise"`
	PortfolioURL      string                      `gorm:"size:512" json:"portfolio_url"`
	Status            ApprovalStatus              `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewedBy        *string                     `gorm:"size:64" json:"reviewed_by"`
	ReviewedAt        *time.Time                  `json:"reviewed_at"`
	Notes             string                      `gorm:"type:text" json:"notes"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}
