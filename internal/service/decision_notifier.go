package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/repository"
)

// DecisionNotifier re-sends notifications for decisions that are already recorded.
// It backs the function endpoints and lets admins retry a partial fan-out.
type DecisionNotifier interface {
	CourseDecision(ctx context.Context, actorID string, req dto.CourseDecisionFunctionRequest) (dto.DispatchResult, error)
	InstructorDecision(ctx context.Context, actorID string, req dto.InstructorDecisionFunctionRequest) (dto.DispatchResult, error)
	CoursePublished(ctx context.Context, actorID string, req dto.CoursePublishedFunctionRequest) (dto.DispatchResult, error)
}

type decisionNotifier struct {
	courses      repository.CourseRepository
	applications repository.ApplicationRepository
	roles        RoleAuthority
	dispatcher   NotificationDispatcher
	validator    *validator.Validate
	logger       zerolog.Logger
}

// NewDecisionNotifier constructs the notifier used by the function endpoints.
func NewDecisionNotifier(
	courses repository.CourseRepository,
	applications repository.ApplicationRepository,
	roles RoleAuthority,
	dispatcher NotificationDispatcher,
	validate *validator.Validate,
	logger zerolog.Logger,
) DecisionNotifier {
	return &decisionNotifier{
		courses:      courses,
		applications: applications,
		roles:        roles,
		dispatcher:   dispatcher,
		validator:    validate,
		logger:       logger.With().Str("component", "decision_notifier").Logger(),
	}
}

func (n *decisionNotifier) CourseDecision(ctx context.Context, actorID string, req dto.CourseDecisionFunctionRequest) (dto.DispatchResult, error) {
	if err := n.roles.Authorize(ctx, actorID, models.RoleAdmin); err != nil {
		return dto.DispatchResult{}, err
	}
	if err := validationFromStruct(n.validator, req); err != nil {
		return dto.DispatchResult{}, err
	}

	course, err := n.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.DispatchResult{}, ErrCourseNotFound
		}
		return dto.DispatchResult{}, err
	}
	if err := matchRecordedDecision(course.ApprovalStatus, req.Decision); err != nil {
		return dto.DispatchResult{}, err
	}

	event := EventCourseRejected
	if course.ApprovalStatus == models.ApprovalApproved {
		event = EventCourseApproved
	}
	n.logger.Info().Uint("course_id", course.ID).Str("event", string(event)).Str("actor_id", actorID).Msg("re-sending course decision")
	return n.dispatcher.Dispatch(ctx, DispatchPayload{Event: event, Course: &course, Notes: firstNonEmpty(course.ApprovalNotes, req.Notes)}), nil
}

func (n *decisionNotifier) InstructorDecision(ctx context.Context, actorID string, req dto.InstructorDecisionFunctionRequest) (dto.DispatchResult, error) {
	if err := n.roles.Authorize(ctx, actorID, models.RoleAdmin); err != nil {
		return dto.DispatchResult{}, err
	}
	if err := validationFromStruct(n.validator, req); err != nil {
		return dto.DispatchResult{}, err
	}

	var (
		application models.InstructorApplication
		err         error
	)
	if req.ApplicationID != 0 {
		application, err = n.applications.GetByID(ctx, req.ApplicationID)
	} else {
		application, err = n.applications.LatestByUser(ctx, strings.TrimSpace(req.UserID))
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.DispatchResult{}, ErrApplicationNotFound
		}
		return dto.DispatchResult{}, err
	}
	if err := matchRecordedDecision(application.Status, req.Decision); err != nil {
		return dto.DispatchResult{}, err
	}

	event := EventInstructorRejected
	if application.Status == models.ApprovalApproved {
		event = EventInstructorApproved
	}
	n.logger.Info().Uint("application_id", application.ID).Str("event", string(event)).Str("actor_id", actorID).Msg("re-sending instructor decision")
	return n.dispatcher.Dispatch(ctx, DispatchPayload{Event: event, Application: &application, Notes: firstNonEmpty(application.Notes, req.Notes)}), nil
}

// CoursePublished notifies followers of a published course. When recipient ids are
// given only those users are notified, which is how a partial fan-out is retried.
func (n *decisionNotifier) CoursePublished(ctx context.Context, actorID string, req dto.CoursePublishedFunctionRequest) (dto.DispatchResult, error) {
	if err := n.roles.Authorize(ctx, actorID, models.RoleAdmin); err != nil {
		return dto.DispatchResult{}, err
	}
	if err := validationFromStruct(n.validator, req); err != nil {
		return dto.DispatchResult{}, err
	}

	course, err := n.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.DispatchResult{}, ErrCourseNotFound
		}
		return dto.DispatchResult{}, err
	}
	if !course.IsPublished {
		return dto.DispatchResult{}, fmt.Errorf("%w: course is not published", ErrInvalidState)
	}

	payload := DispatchPayload{Event: EventCoursePublished, Course: &course}
	if len(req.RecipientIDs) > 0 {
		return n.dispatcher.DispatchTo(ctx, payload, req.RecipientIDs), nil
	}
	return n.dispatcher.Dispatch(ctx, payload), nil
}

// matchRecordedDecision refuses to announce a decision that was not made.
func matchRecordedDecision(recorded models.ApprovalStatus, requested string) error {
	if !recorded.IsTerminal() {
		return fmt.Errorf("%w: record is still pending", ErrInvalidState)
	}
	want := models.ApprovalRejected
	switch strings.ToLower(strings.TrimSpace(requested)) {
	case "approve", "approved":
		want = models.ApprovalApproved
	}
	if recorded != want {
		return fmt.Errorf("%w: recorded decision is %s", ErrInvalidState, recorded)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
