package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/observability"
	"github.com/noah-isme/course-market-api/internal/repository"
)

// SubmissionService accepts courses and instructor applications for review.
// Submitting never notifies anyone; notifications start at review time.
type SubmissionService interface {
	SubmitCourse(ctx context.Context, actorID string, req dto.CourseSubmitRequest) (dto.SubmissionCreatedResponse, error)
	UpdateCourse(ctx context.Context, actorID string, courseID uint, req dto.CourseUpdateRequest) (dto.CourseResponse, error)
	DeleteCourse(ctx context.Context, actorID string, courseID uint) error
	ListMyCourses(ctx context.Context, actorID string, page, pageSize int) (dto.CourseListResponse, error)
	SubmitApplication(ctx context.Context, actorID string, req dto.ApplicationSubmitRequest) (dto.SubmissionCreatedResponse, error)
	MyApplication(ctx context.Context, actorID string) (dto.ApplicationResponse, error)
}

type submissionService struct {
	courses      repository.CourseRepository
	applications repository.ApplicationRepository
	profiles     repository.ProfileRepository
	roles        RoleAuthority
	activity     ActivityRecorder
	catalog      CatalogInvalidator
	validator    *validator.Validate
	logger       zerolog.Logger
	tracer       trace.Tracer
}

// NewSubmissionService constructs the submission intake service.
func NewSubmissionService(
	courses repository.CourseRepository,
	applications repository.ApplicationRepository,
	profiles repository.ProfileRepository,
	roles RoleAuthority,
	activity ActivityRecorder,
	catalog CatalogInvalidator,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		courses:      courses,
		applications: applications,
		profiles:     profiles,
		roles:        roles,
		activity:     activity,
		catalog:      catalog,
		validator:    validate,
		logger:       logger.With().Str("component", "submission_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/course-market-api/internal/service/submission"),
	}
}

func (s *submissionService) SubmitCourse(ctx context.Context, actorID string, req dto.CourseSubmitRequest) (dto.SubmissionCreatedResponse, error) {
	if err := s.roles.Authorize(ctx, actorID, models.RoleInstructor); err != nil {
		return dto.SubmissionCreatedResponse{}, err
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.TrimSpace(req.Category)
	req.Level = strings.ToLower(strings.TrimSpace(req.Level))
	if err := validationFromStruct(s.validator, req); err != nil {
		return dto.SubmissionCreatedResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "submissions.course", trace.WithAttributes(attribute.String("actor.id", actorID)))
	defer span.End()

	course := models.Course{
		Title:        req.Title,
		Subtitle:     strings.TrimSpace(req.Subtitle),
		Description:  req.Description,
		Price:        *req.Price,
		Category:     req.Category,
		Level:        req.Level,
		ThumbnailURL: strings.TrimSpace(req.ThumbnailURL),
		InstructorID: actorID,
	}
	if err := s.courses.Create(ctx, &course); err != nil {
		span.RecordError(err)
		return dto.SubmissionCreatedResponse{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	observability.Submissions().WithLabelValues(models.ActivityEntityCourse).Inc()
	s.audit(ctx, actorID, string(models.RoleInstructor), "course.submitted", models.ActivityEntityCourse, course.ID, map[string]interface{}{
		"title": course.Title,
		"price": course.Price,
	})
	s.logger.Info().Uint("course_id", course.ID).Str("instructor_id", actorID).Msg("course submitted for review")

	return dto.SubmissionCreatedResponse{ID: course.ID, Status: string(course.ApprovalStatus)}, nil
}

// UpdateCourse edits content of the caller's own pending course.
func (s *submissionService) UpdateCourse(ctx context.Context, actorID string, courseID uint, req dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.roles.Authorize(ctx, actorID, models.RoleInstructor); err != nil {
		return dto.CourseResponse{}, err
	}
	req.Title = trimmedPtr(req.Title, strings.TrimSpace)
	req.Subtitle = trimmedPtr(req.Subtitle, strings.TrimSpace)
	req.Description = trimmedPtr(req.Description, strings.TrimSpace)
	req.Category = trimmedPtr(req.Category, strings.TrimSpace)
	req.Level = trimmedPtr(req.Level, func(v string) string { return strings.ToLower(strings.TrimSpace(v)) })
	req.ThumbnailURL = trimmedPtr(req.ThumbnailURL, strings.TrimSpace)
	if err := validationFromStruct(s.validator, req); err != nil {
		return dto.CourseResponse{}, err
	}

	fields := map[string]interface{}{}
	setField := func(column string, value *string) {
		if value != nil {
			fields[column] = *value
		}
	}
	setField("title", req.Title)
	setField("subtitle", req.Subtitle)
	setField("description", req.Description)
	setField("category", req.Category)
	setField("level", req.Level)
	setField("thumbnail_url", req.ThumbnailURL)
	if req.Price != nil {
		fields["price"] = *req.Price
	}

	if err := s.courses.UpdateDetails(ctx, courseID, actorID, fields); err != nil {
		switch {
		case repository.IsNotFound(err):
			return dto.CourseResponse{}, ErrCourseNotFound
		case errors.Is(err, repository.ErrStateConflict):
			return dto.CourseResponse{}, ErrInvalidState
		default:
			return dto.CourseResponse{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if course.InstructorID != actorID {
		return dto.CourseResponse{}, ErrCourseNotFound
	}
	return dto.NewCourseResponse(course), nil
}

// trimmedPtr returns a normalised copy so the caller's value is not mutated.
func trimmedPtr(value *string, normalise func(string) string) *string {
	if value == nil {
		return nil
	}
	out := normalise(*value)
	return &out
}

// DeleteCourse lets an owner withdraw a course that is not published; admins may delete any course.
func (s *submissionService) DeleteCourse(ctx context.Context, actorID string, courseID uint) error {
	capabilities, err := s.roles.CapabilitiesOf(ctx, actorID)
	if err != nil {
		return err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrCourseNotFound
		}
		return err
	}

	isAdmin := capabilities.Has(models.RoleAdmin)
	if !isAdmin {
		if course.InstructorID != actorID || !capabilities.Has(models.RoleInstructor) {
			return ErrCourseNotFound
		}
		if course.IsPublished {
			return fmt.Errorf("%w: published courses can only be removed by an admin", ErrForbidden)
		}
	}

	if err := s.courses.Delete(ctx, courseID); err != nil {
		if repository.IsNotFound(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	role := string(models.RoleInstructor)
	if isAdmin {
		role = string(models.RoleAdmin)
	}
	s.audit(ctx, actorID, role, "course.deleted", models.ActivityEntityCourse, courseID, map[string]interface{}{"title": course.Title})
	if course.IsPublished && s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
	return nil
}

func (s *submissionService) ListMyCourses(ctx context.Context, actorID string, page, pageSize int) (dto.CourseListResponse, error) {
	if err := s.roles.Authorize(ctx, actorID, models.RoleInstructor); err != nil {
		return dto.CourseListResponse{}, err
	}
	page, pageSize = normalizePagination(page, pageSize)

	courses, total, err := s.courses.List(ctx, repository.CourseFilter{InstructorID: actorID, Page: page, PageSize: pageSize})
	if err != nil {
		return dto.CourseListResponse{}, err
	}
	return dto.CourseListResponse{
		Items:      dto.NewCourseResponseSlice(courses),
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

// SubmitApplication records a request for the instructor role. A user gets one
// application: a pending one blocks new submissions, and a decided one is final.
func (s *submissionService) SubmitApplication(ctx context.Context, actorID string, req dto.ApplicationSubmitRequest) (dto.SubmissionCreatedResponse, error) {
	if strings.TrimSpace(actorID) == "" {
		return dto.SubmissionCreatedResponse{}, ErrForbidden
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Bio = strings.TrimSpace(req.Bio)
	req.Email = strings.TrimSpace(req.Email)
	req.PortfolioURL = strings.TrimSpace(req.PortfolioURL)
	req.Expertise = cleanExpertise(req.Expertise)
	if err := validationFromStruct(s.validator, req); err != nil {
		return dto.SubmissionCreatedResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "submissions.application", trace.WithAttributes(attribute.String("actor.id", actorID)))
	defer span.End()

	capabilities, err := s.roles.CapabilitiesOf(ctx, actorID)
	if err != nil {
		return dto.SubmissionCreatedResponse{}, err
	}
	if capabilities.Has(models.RoleInstructor) {
		return dto.SubmissionCreatedResponse{}, ErrApplicationClosed
	}

	latest, err := s.applications.LatestByUser(ctx, actorID)
	switch {
	case err == nil && latest.Status == models.ApprovalPending:
		return dto.SubmissionCreatedResponse{}, ErrApplicationPending
	case err == nil:
		return dto.SubmissionCreatedResponse{}, ErrApplicationClosed
	case !repository.IsNotFound(err):
		span.RecordError(err)
		return dto.SubmissionCreatedResponse{}, err
	}

	application := models.InstructorApplication{
		UserID:            actorID,
		FullName:          req.FullName,
		Email:             req.Email,
		Bio:               req.Bio,
		YearsOfExperience: *req.YearsOfExperience,
		Expertise:         datatypes.JSONSlice[string](req.Expertise),
		PortfolioURL:      req.PortfolioURL,
	}
	if err := s.applications.Create(ctx, &application); err != nil {
		span.RecordError(err)
		return dto.SubmissionCreatedResponse{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if s.profiles != nil && application.Email != "" {
		profile := models.UserProfile{UserID: actorID, FullName: application.FullName, Email: application.Email}
		if err := s.profiles.Upsert(ctx, &profile); err != nil {
			s.logger.Warn().Err(err).Str("user_id", actorID).Msg("failed to sync profile from application")
		}
	}

	observability.Submissions().WithLabelValues(models.ActivityEntityApplication).Inc()
	s.audit(ctx, actorID, string(models.RoleStudent), "application.submitted", models.ActivityEntityApplication, application.ID, map[string]interface{}{
		"years_of_experience": application.YearsOfExperience,
		"expertise":           []string(application.Expertise),
	})

	return dto.SubmissionCreatedResponse{ID: application.ID, Status: string(application.Status)}, nil
}

func (s *submissionService) MyApplication(ctx context.Context, actorID string) (dto.ApplicationResponse, error) {
	application, err := s.applications.LatestByUser(ctx, actorID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.ApplicationResponse{}, ErrApplicationNotFound
		}
		return dto.ApplicationResponse{}, err
	}
	return dto.NewApplicationResponse(application), nil
}

func (s *submissionService) audit(ctx context.Context, actorID, role, action, entityType string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := entityID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actorID,
		ActorRole:  role,
		Action:     action,
		EntityType: entityType,
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func cleanExpertise(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func normalizePagination(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
