package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/handler"
	"github.com/noah-isme/course-market-api/internal/service"
)

type stubSubmissionService struct {
	actorID     string
	courseID    uint
	application dto.ApplicationSubmitRequest
	err         error
}

func (s *stubSubmissionService) SubmitCourse(_ context.Context, actorID string, _ dto.CourseSubmitRequest) (dto.SubmissionCreatedResponse, error) {
	s.actorID = actorID
	if s.err != nil {
		return dto.SubmissionCreatedResponse{}, s.err
	}
	return dto.SubmissionCreatedResponse{ID: 11, Status: "pending"}, nil
}

func (s *stubSubmissionService) UpdateCourse(_ context.Context, actorID string, courseID uint, _ dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	s.actorID, s.courseID = actorID, courseID
	if s.err != nil {
		return dto.CourseResponse{}, s.err
	}
	return dto.CourseResponse{ID: courseID, ApprovalStatus: "pending"}, nil
}

func (s *stubSubmissionService) DeleteCourse(_ context.Context, actorID string, courseID uint) error {
	s.actorID, s.courseID = actorID, courseID
	return s.err
}

func (s *stubSubmissionService) ListMyCourses(_ context.Context, actorID string, page, pageSize int) (dto.CourseListResponse, error) {
	s.actorID = actorID
	if s.err != nil {
		return dto.CourseListResponse{}, s.err
	}
	return dto.CourseListResponse{
		Items:      []dto.CourseResponse{{ID: 1, Title: "Go Basics"}},
		Pagination: dto.NewPaginationMeta(1, 20, 1),
	}, nil
}

func (s *stubSubmissionService) SubmitApplication(_ context.Context, actorID string, req dto.ApplicationSubmitRequest) (dto.SubmissionCreatedResponse, error) {
	s.actorID, s.application = actorID, req
	if s.err != nil {
		return dto.SubmissionCreatedResponse{}, s.err
	}
	return dto.SubmissionCreatedResponse{ID: 3, Status: "pending"}, nil
}

func (s *stubSubmissionService) MyApplication(_ context.Context, actorID string) (dto.ApplicationResponse, error) {
	s.actorID = actorID
	if s.err != nil {
		return dto.ApplicationResponse{}, s.err
	}
	return dto.ApplicationResponse{ID: 3, UserID: actorID, Status: "pending"}, nil
}

func newCourseApp(svc service.SubmissionService, guards ...fiber.Handler) *fiber.App {
	app := fiber.New()
	group := app.Group("/courses", asUser("inst-1", ""))
	handler.NewCourseHandler(svc, zerolog.Nop()).Register(group, guards...)
	return app
}

func TestCourseHandlerSubmitRunsGuards(t *testing.T) {
	svc := &stubSubmissionService{}
	guardCalls := 0
	app := newCourseApp(svc, func(c *fiber.Ctx) error {
		guardCalls++
		return c.Next()
	})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/courses", map[string]interface{}{"title": "Go Basics"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body envelope
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.JSONEq(t, `{"id":11,"status":"pending"}`, string(body.Data))
	require.Equal(t, "inst-1", svc.actorID)
	require.Equal(t, 1, guardCalls)

	// Guards only wrap submission.
	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/courses/mine", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 1, guardCalls)
}

func TestCourseHandlerMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "validation", err: &service.ValidationError{Fields: map[string]string{"title": "is required"}}, status: fiber.StatusBadRequest},
		{name: "forbidden", err: service.ErrForbidden, status: fiber.StatusForbidden},
		{name: "missing", err: service.ErrCourseNotFound, status: fiber.StatusNotFound},
		{name: "reviewed", err: service.ErrInvalidState, status: fiber.StatusConflict},
		{name: "storage", err: errors.New("db down"), status: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newCourseApp(&stubSubmissionService{err: tc.err})
			resp, err := app.Test(jsonRequest(t, http.MethodPatch, "/courses/5", map[string]interface{}{"title": "Renamed"}))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var body envelope
			decodeResponse(t, resp, &body)
			require.False(t, body.Success)
			if tc.status == fiber.StatusBadRequest {
				require.Equal(t, "is required", body.Details["title"])
			}
			if tc.status == fiber.StatusInternalServerError {
				require.Equal(t, "failed to update course", body.Message)
			}
		})
	}
}

func TestCourseHandlerRejectsBadID(t *testing.T) {
	svc := &stubSubmissionService{}
	app := newCourseApp(svc)

	resp, err := app.Test(jsonRequest(t, http.MethodDelete, "/courses/abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Empty(t, svc.actorID)

	resp, err = app.Test(jsonRequest(t, http.MethodDelete, "/courses/9", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(9), svc.courseID)
}

func TestApplicationHandlerFallsBackToTokenEmail(t *testing.T) {
	svc := &stubSubmissionService{}
	app := fiber.New()
	handler.NewApplicationHandler(svc, zerolog.Nop()).Register(app.Group("/applications", asUser("user-7", "rina@example.com")))

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/applications", map[string]interface{}{"full_name": "Rina"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "rina@example.com", svc.application.Email)
	require.Equal(t, "user-7", svc.actorID)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/applications", map[string]interface{}{"full_name": "Rina", "email": "work@example.com"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "work@example.com", svc.application.Email)
}

func TestApplicationHandlerConflicts(t *testing.T) {
	for _, sentinel := range []error{service.ErrApplicationPending, service.ErrApplicationClosed} {
		app := fiber.New()
		handler.NewApplicationHandler(&stubSubmissionService{err: sentinel}, zerolog.Nop()).Register(app.Group("/applications", asUser("user-7", "")))

		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/applications", map[string]interface{}{"full_name": "Rina"}))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	}

	app := fiber.New()
	handler.NewApplicationHandler(&stubSubmissionService{err: service.ErrApplicationNotFound}, zerolog.Nop()).Register(app.Group("/applications", asUser("user-7", "")))
	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/applications/me", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
