package dto

import (
	"time"

	"github.com/noah-isme/course-market-api/internal/models"
)

// CourseSubmitRequest is the instructor payload for a new course.
type CourseSubmitRequest struct {
	Title        string `json:"title" validate:"required,min=3,max=200"`
	Subtitle     string `json:"subtitle" validate:"omitempty,max=255"`
	Description  string `json:"description" validate:"required,min=20,max=20000"`
	Price        *int64 `json:"price" validate:"required,min=0"`
	Category     string `json:"category" validate:"required,max=64"`
	Level        string `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url,max=512"`
}

// CourseUpdateRequest patches non-status fields of an owned course. A nil field
// is left alone; a present required field must still satisfy its submit rule.
type CourseUpdateRequest struct {
	Title        *string `json:"title" validate:"omitnil,min=3,max=200"`
	Subtitle     *string `json:"subtitle" validate:"omitempty,max=255"`
	Description  *string `json:"description" validate:"omitnil,min=20,max=20000"`
	Price        *int64  `json:"price" validate:"omitnil,min=0"`
	Category     *string `json:"category" validate:"omitnil,min=1,max=64"`
	Level        *string `json:"level" validate:"omitnil,oneof=beginner intermediate advanced"`
	ThumbnailURL *string `json:"thumbnail_url" validate:"omitempty,url,max=512"`
}

// CourseResponse is the serialized representation of a course.
type CourseResponse struct {
	ID             uint       `json:"id"`
	Title          string     `json:"title"`
	Subtitle       string     `json:"subtitle,omitempty"`
	Description    string     `json:"description"`
	Price          int64      `json:"price"`
	Category       string     `json:"category"`
	Level          string     `json:"level"`
	ThumbnailURL   string     `json:"thumbnail_url,omitempty"`
	InstructorID   string     `json:"instructor_id"`
	ApprovalStatus string     `json:"approval_status"`
	IsPublished    bool       `json:"is_published"`
	ApprovedBy     *string    `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	ApprovalNotes  string     `json:"approval_notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewCourseResponse converts a course model into a DTO.
func NewCourseResponse(course models.Course) CourseResponse {
	return CourseResponse{
		ID:             course.ID,
		Title:          course.Title,
		Subtitle:       course.Subtitle,
		Description:    course.Description,
		Price:          course.Price,
		Category:       course.Category,
		Level:          course.Level,
		ThumbnailURL:   course.ThumbnailURL,
		InstructorID:   course.InstructorID,
		ApprovalStatus: string(course.ApprovalStatus),
		IsPublished:    course.IsPublished,
		ApprovedBy:     course.ApprovedBy,
		ApprovedAt:     course.ApprovedAt,
		ApprovalNotes:  course.ApprovalNotes,
		CreatedAt:      course.CreatedAt,
		UpdatedAt:      course.UpdatedAt,
	}
}

// NewCourseResponseSlice converts a slice of courses into DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		out = append(out, NewCourseResponse(course))
	}
	return out
}

// SubmissionCreatedResponse returns the identifier of a newly submitted record.
type SubmissionCreatedResponse struct {
	ID     uint   `json:"id"`
	Status string `json:"status"`
}

// CatalogQuery describes the public catalog filters.
type CatalogQuery struct {
	Search   string `query:"search"`
	Category string `query:"category"`
	Level    string `query:"level"`
	MinPrice *int64 `query:"min_price"`
	MaxPrice *int64 `query:"max_price"`
	Sort     string `query:"sort" validate:"omitempty,oneof=newest oldest price_asc price_desc title"`
	Page     int    `query:"page" validate:"omitempty,min=1,max=100000"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// CatalogResponse wraps a page of published courses.
type CatalogResponse struct {
	Items      []CourseResponse `json:"items"`
	Pagination PaginationMeta   `json:"pagination"`
	CacheHit   bool             `json:"cache_hit"`
}

// QuoteRequest asks for a priced cart with an optional discount code.
type QuoteRequest struct {
	CourseIDs    []uint `json:"course_ids" validate:"required,min=1,max=50,dive,required"`
	DiscountCode string `json:"discount_code" validate:"omitempty,max=32"`
}

// QuoteLine is a single priced course within a quote.
type QuoteLine struct {
	CourseID uint   `json:"course_id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
}

// QuoteResponse is the priced cart returned to the checkout page.
type QuoteResponse struct {
	Lines           []QuoteLine `json:"lines"`
	Subtotal        int64       `json:"subtotal"`
	DiscountCode    string      `json:"discount_code,omitempty"`
	DiscountPercent int         `json:"discount_percent"`
	Discount        int64       `json:"discount"`
	Total           int64       `json:"total"`
}
