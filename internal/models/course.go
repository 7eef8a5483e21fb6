package models

import "time"

// ApprovalStatus is the review state shared by courses and instructor applications.
type ApprovalStatus string

const (
	// ApprovalPending marks a record awaiting admin review.
	ApprovalPending ApprovalStatus = "pending"
	// ApprovalApproved marks a record accepted by an admin.
	ApprovalApproved ApprovalStatus = "approved"
	// ApprovalRejected marks a record declined by an admin.
	ApprovalRejected ApprovalStatus = "rejected"
)

// IsTerminal reports whether the status can no longer change.
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

// Course levels accepted by the catalog.
const (
	CourseLevelBeginner     = "beginner"
	CourseLevelIntermediate = "intermediate"
	CourseLevelAdvanced     = "advanced"
)

// Course is a marketplace listing authored by an instructor.
type Course struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Title          string         `gorm:"size:200;not null" json:"title"`
	Subtitle       string         `gorm:"size:255" json:"subtitle"`
	Description    string         `gorm:"type:text;not null" json:"description"`
	Price          int64          `gorm:"not null;default:0" json:"price"`
	Category       string         `gorm:"size:64;index" json:"category"`
	Level          string         `gorm:"size:32" json:"level"`
	ThumbnailURL   string         `gorm:"size:512" json:"thumbnail_url"`
	InstructorID   string         `gorm:"size:64;index;not null" json:"instructor_id"`
	ApprovalStatus ApprovalStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"approval_status"`
	IsPublished    bool           `gorm:"not null;default:false;index" json:"is_published"`
	ApprovedBy     *string        `gorm:"size:64" json:"approved_by"`
	ApprovedAt     *time.Time     `json:"approved_at"`
	ApprovalNotes  string         `gorm:"type:text" json:"approval_notes"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsListable reports whether the course may appear in the public catalog.
func (c Course) IsListable() bool {
	return c.IsPublished
}
