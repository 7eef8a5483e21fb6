package models

import "time"

// Role is a capability a user may hold. A user can hold several at once.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Valid reports whether the role is one of the known capabilities.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	default:
		return false
	}
}

// UserRole grants a single role to a user. The (user_id, role) pair is unique.
type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_user_roles_user_role" json:"user_id"`
	Role      Role      `gorm:"type:varchar(20);not null;uniqueIndex:idx_user_roles_user_role" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserProfile is the contact directory entry for an authenticated user.
type UserProfile struct {
	UserID    string    `gorm:"primaryKey;size:64" json:"user_id"`
	FullName  string    `gorm:"size:160" json:"full_name"`
	Email     string    `gorm:"size:255;index" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InstructorFollow records that a follower wants to hear about an instructor's new courses.
type InstructorFollow struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	InstructorID string    `gorm:"size:64;not null;uniqueIndex:idx_instructor_follows_pair" json:"instructor_id"`
	FollowerID   string    `gorm:"size:64;not null;uniqueIndex:idx_instructor_follows_pair;index" json:"follower_id"`
	CreatedAt    time.Time `json:"created_at"`
}
