package dto

import (
	"time"

	"github.com/noah-isme/course-market-api/internal/models"
)

// ApplicationSubmitRequest is the payload a prospective instructor submits.
type ApplicationSubmitRequest struct {
	FullName          string   `json:"full_name" validate:"required,min=2,max=160"`
	Email             string   `json:"email" validate:"omitempty,email,max=160"`
	Bio               string   `json:"bio" validate:"required,min=50,max=5000"`
	YearsOfExperience *int     `json:"years_of_experience" validate:"required,min=0,max=80"`
	Expertise         []string `json:"expertise" validate:"required,min=1,max=20,dive,required,max=64"`
	PortfolioURL      string   `json:"portfolio_url" validate:"omitempty,url,max=512"`
}

// ApplicationResponse is the serialized representation of an instructor application.
type ApplicationResponse struct {
	ID                uint       `json:"id"`
	UserID            string     `json:"user_id"`
	FullName          string     `json:"full_name"`
	Email             string     `json:"email,omitempty"`
	Bio               string     `json:"bio"`
	YearsOfExperience int        `json:"years_of_experience"`
	Expertise         []string   `json:"expertise"`
	PortfolioURL      string     `json:"portfolio_url,omitempty"`
	Status            string     `json:"status"`
	ReviewedBy        *string    `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// NewApplicationResponse converts an application model into a DTO.
func NewApplicationResponse(app models.InstructorApplication) ApplicationResponse {
	expertise := []string(app.Expertise)
	if expertise == nil {
		expertise = []string{}
	}
	return ApplicationResponse{
		ID:                app.ID,
		UserID:            app.UserID,
		FullName:          app.FullName,
		Email:             app.Email,
		Bio:               app.Bio,
		YearsOfExperience: app.YearsOfExperience,
		Expertise:         expertise,
		PortfolioURL:      app.PortfolioURL,
		Status:            string(app.Status),
		ReviewedBy:        app.ReviewedBy,
		ReviewedAt:        app.ReviewedAt,
		Notes:             app.Notes,
		CreatedAt:         app.CreatedAt,
	}
}

// NewApplicationResponseSlice converts a slice of applications into DTOs.
func NewApplicationResponseSlice(items []models.InstructorApplication) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewApplicationResponse(item))
	}
	return out
}

// RolesResponse lists the capabilities of the calling user.
type RolesResponse struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

// FollowResponse reports the follow state between a follower and an instructor.
type FollowResponse struct {
	InstructorID string `json:"instructor_id"`
	Following    bool   `json:"following"`
	Followers    int64  `json:"followers"`
}
