package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/observability"
	"github.com/noah-isme/course-market-api/internal/repository"
)

// ReviewService moves pending courses and instructor applications to a terminal state.
// A record is reviewed at most once; the decision is recorded before any notification
// is attempted, and delivery problems never undo it.
type ReviewService interface {
	ReviewCourse(ctx context.Context, reviewerID string, courseID uint, req dto.ReviewRequest) (dto.ReviewResponse, error)
	ReviewApplication(ctx context.Context, reviewerID string, applicationID uint, req dto.ReviewRequest) (dto.ReviewResponse, error)
	ListCourses(ctx context.Context, reviewerID string, req dto.AdminCourseListRequest) (dto.CourseListResponse, error)
	ListApplications(ctx context.Context, reviewerID string, req dto.AdminApplicationListRequest) (dto.AdminApplicationListResponse, error)
}

type reviewService struct {
	courses      repository.CourseRepository
	applications repository.ApplicationRepository
	roles        RoleAuthority
	dispatcher   NotificationDispatcher
	activity     ActivityRecorder
	catalog      CatalogInvalidator
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
	now          func() time.Time
}

// NewReviewService constructs the review engine.
func NewReviewService(
	courses repository.CourseRepository,
	applications repository.ApplicationRepository,
	roles RoleAuthority,
	dispatcher NotificationDispatcher,
	activity ActivityRecorder,
	catalog CatalogInvalidator,
	validate *validator.Validate,
	logger zerolog.Logger,
) ReviewService {
	return &reviewService{
		courses:      courses,
		applications: applications,
		roles:        roles,
		dispatcher:   dispatcher,
		activity:     activity,
		catalog:      catalog,
		validator:    validate,
		logger:       logger.With().Str("component", "review_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/course-market-api/internal/service/review"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *reviewService) ReviewCourse(ctx context.Context, reviewerID string, courseID uint, req dto.ReviewRequest) (dto.ReviewResponse, error) {
	if err := s.roles.Authorize(ctx, reviewerID, models.RoleAdmin); err != nil {
		return dto.ReviewResponse{}, err
	}
	status, notes, err := s.parseDecision(req)
	if err != nil {
		return dto.ReviewResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "review.course", trace.WithAttributes(
		attribute.Int("course.id", int(courseID)),
		attribute.String("review.decision", string(status)),
	))
	defer span.End()

	reviewedAt := s.now()
	err = s.courses.Transition(ctx, courseID, repository.CourseDecision{
		Status:     status,
		ReviewerID: reviewerID,
		ReviewedAt: reviewedAt,
		Notes:      notes,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition failed")
		return dto.ReviewResponse{}, s.transitionError(err, ErrCourseNotFound)
	}

	observability.ReviewDecisions().WithLabelValues(models.ActivityEntityCourse, string(status)).Inc()
	s.logger.Info().Uint("course_id", courseID).Str("reviewer_id", reviewerID).Str("status", string(status)).Msg("course reviewed")

	if status == models.ApprovalApproved && s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
	s.audit(ctx, reviewerID, "course."+string(status), models.ActivityEntityCourse, courseID, map[string]interface{}{"notes": notes})

	response := dto.ReviewResponse{
		DecisionRecorded: true,
		EntityType:       models.ActivityEntityCourse,
		EntityID:         courseID,
		Status:           string(status),
		ReviewedBy:       reviewerID,
		ReviewedAt:       reviewedAt,
	}

	// The request may be cancelled once the decision is stored; delivery still runs to completion.
	notifyCtx := context.WithoutCancel(ctx)
	course, err := s.courses.GetByID(notifyCtx, courseID)
	if err != nil {
		s.logger.Error().Err(err).Uint("course_id", courseID).Msg("failed to reload course for notifications")
		event := EventCourseRejected
		if status == models.ApprovalApproved {
			event = EventCourseApproved
		}
		response.Notifications = []dto.DispatchResult{{Event: string(event), Outcomes: []dto.RecipientOutcome{}, Error: err.Error()}}
		return response, nil
	}

	if status == models.ApprovalApproved {
		response.Notifications = append(response.Notifications,
			s.dispatcher.Dispatch(notifyCtx, DispatchPayload{Event: EventCourseApproved, Course: &course, Notes: notes}),
			s.dispatcher.Dispatch(notifyCtx, DispatchPayload{Event: EventCoursePublished, Course: &course}),
		)
	} else {
		response.Notifications = append(response.Notifications,
			s.dispatcher.Dispatch(notifyCtx, DispatchPayload{Event: EventCourseRejected, Course: &course, Notes: notes}),
		)
	}
	response.NotificationsComplete = allComplete(response.Notifications)
	return response, nil
}

func (s *reviewService) ReviewApplication(ctx context.Context, reviewerID string, applicationID uint, req dto.ReviewRequest) (dto.ReviewResponse, error) {
	if err := s.roles.Authorize(ctx, reviewerID, models.RoleAdmin); err != nil {
		return dto.ReviewResponse{}, err
	}
	status, notes, err := s.parseDecision(req)
	if err != nil {
		return dto.ReviewResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "review.application", trace.WithAttributes(
		attribute.Int("application.id", int(applicationID)),
		attribute.String("review.decision", string(status)),
	))
	defer span.End()

	reviewedAt := s.now()
	roleGranted, err := s.applications.Transition(ctx, applicationID, repository.ApplicationDecision{
		Status:     status,
		ReviewerID: reviewerID,
		ReviewedAt: reviewedAt,
		Notes:      notes,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition failed")
		return dto.ReviewResponse{}, s.transitionError(err, ErrApplicationNotFound)
	}

	observability.ReviewDecisions().WithLabelValues(models.ActivityEntityApplication, string(status)).Inc()
	s.logger.Info().
		Uint("application_id", applicationID).
		Str("reviewer_id", reviewerID).
		Str("status", string(status)).
		Bool("role_granted", roleGranted).
		Msg("instructor application reviewed")
	s.audit(ctx, reviewerID, "application."+string(status), models.ActivityEntityApplication, applicationID, map[string]interface{}{
		"notes":        notes,
		"role_granted": roleGranted,
	})

	response := dto.ReviewResponse{
		DecisionRecorded: true,
		EntityType:       models.ActivityEntityApplication,
		EntityID:         applicationID,
		Status:           string(status),
		ReviewedBy:       reviewerID,
		ReviewedAt:       reviewedAt,
		RoleGranted:      roleGranted,
	}

	event := EventInstructorRejected
	if status == models.ApprovalApproved {
		event = EventInstructorApproved
	}

	notifyCtx := context.WithoutCancel(ctx)
	application, err := s.applications.GetByID(notifyCtx, applicationID)
	if err != nil {
		s.logger.Error().Err(err).Uint("application_id", applicationID).Msg("failed to reload application for notifications")
		response.Notifications = []dto.DispatchResult{{Event: string(event), Outcomes: []dto.RecipientOutcome{}, Error: err.Error()}}
		return response, nil
	}

	response.Notifications = []dto.DispatchResult{
		s.dispatcher.Dispatch(notifyCtx, DispatchPayload{Event: event, Application: &application, Notes: notes}),
	}
	response.NotificationsComplete = allComplete(response.Notifications)
	return response, nil
}

func (s *reviewService) ListCourses(ctx context.Context, reviewerID string, req dto.AdminCourseListRequest) (dto.CourseListResponse, error) {
	if err := s.roles.Authorize(ctx, reviewerID, models.RoleAdmin); err != nil {
		return dto.CourseListResponse{}, err
	}
	status, err := parseStatusFilter(req.Status)
	if err != nil {
		return dto.CourseListResponse{}, err
	}
	page, pageSize := normalizePagination(req.Page, req.PageSize)

	courses, total, err := s.courses.List(ctx, repository.CourseFilter{Status: status, Page: page, PageSize: pageSize})
	if err != nil {
		return dto.CourseListResponse{}, err
	}
	return dto.CourseListResponse{
		Items:      dto.NewCourseResponseSlice(courses),
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *reviewService) ListApplications(ctx context.Context, reviewerID string, req dto.AdminApplicationListRequest) (dto.AdminApplicationListResponse, error) {
	if err := s.roles.Authorize(ctx, reviewerID, models.RoleAdmin); err != nil {
		return dto.AdminApplicationListResponse{}, err
	}
	status, err := parseStatusFilter(req.Status)
	if err != nil {
		return dto.AdminApplicationListResponse{}, err
	}
	page, pageSize := normalizePagination(req.Page, req.PageSize)

	items, total, err := s.applications.List(ctx, repository.ApplicationFilter{Status: status, Page: page, PageSize: pageSize})
	if err != nil {
		return dto.AdminApplicationListResponse{}, err
	}
	return dto.AdminApplicationListResponse{
		Items:      dto.NewApplicationResponseSlice(items),
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

// parseDecision validates the request. Rejections must carry a reason.
func (s *reviewService) parseDecision(req dto.ReviewRequest) (models.ApprovalStatus, string, error) {
	req.Decision = strings.ToLower(strings.TrimSpace(req.Decision))
	req.Notes = strings.TrimSpace(req.Notes)
	if err := validationFromStruct(s.validator, req); err != nil {
		return "", "", err
	}
	if req.Decision == dto.DecisionReject {
		if req.Notes == "" {
			return "", "", fieldError("notes", "is required when rejecting")
		}
		return models.ApprovalRejected, req.Notes, nil
	}
	return models.ApprovalApproved, req.Notes, nil
}

func (s *reviewService) transitionError(err error, notFound error) error {
	switch {
	case errors.Is(err, repository.ErrStateConflict):
		return ErrInvalidState
	case repository.IsNotFound(err):
		return notFound
	default:
		s.logger.Error().Err(err).Msg("review transition failed")
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
}

func (s *reviewService) audit(ctx context.Context, actorID, action, entityType string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := entityID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actorID,
		ActorRole:  string(models.RoleAdmin),
		Action:     action,
		EntityType: entityType,
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func parseStatusFilter(raw string) (models.ApprovalStatus, error) {
	switch status := models.ApprovalStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case "", "all":
		return "", nil
	case models.ApprovalPending, models.ApprovalApproved, models.ApprovalRejected:
		return status, nil
	default:
		return "", fieldError("status", "must be one of: pending approved rejected all")
	}
}

func allComplete(results []dto.DispatchResult) bool {
	for _, result := range results {
		if !result.Complete() {
			return false
		}
	}
	return true
}
