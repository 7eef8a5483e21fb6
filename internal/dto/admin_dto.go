package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/course-market-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// Review decisions accepted by the review endpoints.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// ReviewRequest is the admin payload that moves a pending record to a terminal state.
type ReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Notes    string `json:"notes" validate:"omitempty,max=4000"`
}

// ReviewResponse separates the recorded decision from notification delivery.
type ReviewResponse struct {
	DecisionRecorded      bool             `json:"decision_recorded"`
	EntityType            string           `json:"entity_type"`
	EntityID              uint             `json:"entity_id"`
	Status                string           `json:"status"`
	ReviewedBy            string           `json:"reviewed_by"`
	ReviewedAt            time.Time        `json:"reviewed_at"`
	RoleGranted           bool             `json:"role_granted,omitempty"`
	Notifications         []DispatchResult `json:"notifications"`
	NotificationsComplete bool             `json:"notifications_complete"`
}

// AdminCourseListRequest filters the admin course queue.
type AdminCourseListRequest struct {
	Status   string
	Page     int
	PageSize int
}

// CourseListResponse wraps a paginated list of courses.
type CourseListResponse struct {
	Items      []CourseResponse `json:"items"`
	Pagination PaginationMeta   `json:"pagination"`
}

// AdminApplicationListRequest filters the admin application queue.
type AdminApplicationListRequest struct {
	Status   string
	Page     int
	PageSize int
}

// AdminApplicationListResponse wraps a paginated application queue.
type AdminApplicationListResponse struct {
	Items      []ApplicationResponse `json:"items"`
	Pagination PaginationMeta        `json:"pagination"`
}

// AdminActivityListRequest defines filters for retrieving activity logs.
type AdminActivityListRequest struct {
	Page          int
	PageSize      int
	ActorID       string
	Action        string
	EntityType    string
	EntityID      *uint
	CorrelationID string
}

// AdminActivityResponse serializes activity log entries.
type AdminActivityResponse struct {
	ID         uint                   `json:"id"`
	ActorID    string                 `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`

	CorrelationID string `json:"correlation_id,omitempty"`
}

// AdminActivityListResponse wraps paginated activity logs.
type AdminActivityListResponse struct {
	Items      []AdminActivityResponse `json:"items"`
	Pagination PaginationMeta          `json:"pagination"`
}

// NewAdminActivityResponse converts a model into an activity DTO.
func NewAdminActivityResponse(entry models.ActivityLog) AdminActivityResponse {
	return AdminActivityResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadataFromJSON(entry.Metadata),
		CreatedAt:  entry.CreatedAt,

		CorrelationID: entry.CorrelationID,
	}
}

func metadataFromJSON(data datatypes.JSONMap) map[string]interface{} {
	if data == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}(data)
}

// NewPaginationMeta computes page counts for a list response.
func NewPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	if page <= 0 {
		page = 1
	}
	meta := PaginationMeta{Page: page, PageSize: pageSize, TotalItems: total, TotalPages: 1}
	if pageSize > 0 {
		meta.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
		if meta.TotalPages == 0 {
			meta.TotalPages = 1
		}
	}
	return meta
}

// StatusBreakdown counts records per approval state.
type StatusBreakdown struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// WeeklyDecisionPoint counts decisions taken in the week starting at WeekStart.
type WeeklyDecisionPoint struct {
	WeekStart time.Time `json:"week_start"`
	Approved  int64     `json:"approved"`
	Rejected  int64     `json:"rejected"`
}

// AdminAnalyticsResponse summarises the review queues for the admin dashboard.
type AdminAnalyticsResponse struct {
	Courses            StatusBreakdown       `json:"courses"`
	Applications       StatusBreakdown       `json:"applications"`
	Instructors        int64                 `json:"instructors"`
	CourseApprovalRate float64               `json:"course_approval_rate"`
	AverageReviewHours float64               `json:"average_review_hours"`
	WeeklyDecisions    []WeeklyDecisionPoint `json:"weekly_decisions"`
	GeneratedAt        time.Time             `json:"generated_at"`
	CacheHit           bool                  `json:"cache_hit"`
}
