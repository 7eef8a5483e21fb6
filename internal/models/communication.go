package models

import "time"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationNewCourse NotificationType = "new_course"
	NotificationPromo     NotificationType = "promo"
	NotificationSystem    NotificationType = "system"
	NotificationCourse    NotificationType = "course"
)

// Notification is an in-app message addressed to a single user.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    string           `gorm:"size:64;index" json:"user_id"`
	Title     string           `gorm:"size:255;not null" json:"title"`
	Message   string           `gorm:"type:text" json:"message"`
	Type      NotificationType `gorm:"size:32;not null" json:"type"`
	Link      string           `gorm:"size:512" json:"link"`
	IsRead    bool             `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
