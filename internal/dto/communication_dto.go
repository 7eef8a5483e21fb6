package dto

import (
	"time"

	"github.com/noah-isme/course-market-api/internal/models"
)

// NotificationCreateRequest describes the payload to create a notification.
type NotificationCreateRequest struct {
	UserID  string `json:"user_id" validate:"required,max=64"`
	Title   string `json:"title" validate:"required,max=255"`
	Type    string `json:"type" validate:"required,oneof=new_course promo system course"`
	Message string `json:"message" validate:"required,min=1,max=2000"`
	Link    string `json:"link" validate:"omitempty,max=512"`
}

// NotificationResponse represents notification data returned to clients.
type NotificationResponse struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		Title:     model.Title,
		Type:      string(model.Type),
		Message:   model.Message,
		Link:      model.Link,
		IsRead:    model.IsRead,
		CreatedAt: model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts a slice to DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}

// UnreadCountResponse reports how many notifications are unread.
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// Email outcomes reported per recipient.
const (
	EmailSent    = "sent"
	EmailDemo    = "demo"
	EmailSkipped = "skipped"
	EmailFailed  = "failed"
)

// RecipientOutcome is the delivery result for one recipient of a fan-out.
type RecipientOutcome struct {
	UserID string `json:"user_id"`
	InApp  bool   `json:"in_app"`
	Email  string `json:"email"`
	Error  string `json:"error,omitempty"`
}

// DispatchResult aggregates a notification fan-out so partial delivery is observable.
type DispatchResult struct {
	Event         string             `json:"event"`
	Recipients    int                `json:"recipients"`
	InAppWritten  int                `json:"in_app_written"`
	InAppFailed   int                `json:"in_app_failed"`
	EmailsSent    int                `json:"emails_sent"`
	EmailsDemo    int                `json:"emails_demo"`
	EmailsSkipped int                `json:"emails_skipped"`
	EmailsFailed  int                `json:"emails_failed"`
	Demo          bool               `json:"demo"`
	Outcomes      []RecipientOutcome `json:"outcomes"`
	Error         string             `json:"error,omitempty"`
}

// Failures returns the number of recipients with at least one failed channel.
func (r DispatchResult) Failures() int {
	failed := 0
	for _, outcome := range r.Outcomes {
		if !outcome.InApp || outcome.Email == EmailFailed {
			failed++
		}
	}
	return failed
}

// Complete reports whether recipients were resolved and no channel failed for any of them.
func (r DispatchResult) Complete() bool {
	return r.Error == "" && r.InAppFailed == 0 && r.EmailsFailed == 0
}

// CourseDecisionFunctionRequest is the body of the course decision sender endpoint.
type CourseDecisionFunctionRequest struct {
	CourseID uint   `json:"course_id" validate:"required"`
	Decision string `json:"decision" validate:"required,oneof=approved rejected approve reject"`
	Notes    string `json:"notes" validate:"omitempty,max=4000"`
}

// InstructorDecisionFunctionRequest is the body of the instructor decision sender endpoint.
type InstructorDecisionFunctionRequest struct {
	ApplicationID uint   `json:"application_id" validate:"required_without=UserID"`
	UserID        string `json:"user_id" validate:"required_without=ApplicationID,omitempty,max=64"`
	Decision      string `json:"decision" validate:"required,oneof=approved rejected approve reject"`
	Notes         string `json:"notes" validate:"omitempty,max=4000"`
}

// CoursePublishedFunctionRequest is the body of the follower fan-out sender endpoint.
type CoursePublishedFunctionRequest struct {
	CourseID     uint     `json:"course_id" validate:"required"`
	RecipientIDs []string `json:"recipient_ids" validate:"omitempty,max=1000,dive,required,max=64"`
}
