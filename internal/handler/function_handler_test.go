package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/handler"
	"github.com/noah-isme/course-market-api/internal/service"
)

type stubNotifier struct {
	actorID    string
	published  dto.CoursePublishedFunctionRequest
	instructor dto.InstructorDecisionFunctionRequest
	result     dto.DispatchResult
	err        error
}

func (s *stubNotifier) CourseDecision(_ context.Context, actorID string, _ dto.CourseDecisionFunctionRequest) (dto.DispatchResult, error) {
	s.actorID = actorID
	return s.result, s.err
}

func (s *stubNotifier) InstructorDecision(_ context.Context, actorID string, req dto.InstructorDecisionFunctionRequest) (dto.DispatchResult, error) {
	s.actorID, s.instructor = actorID, req
	return s.result, s.err
}

func (s *stubNotifier) CoursePublished(_ context.Context, actorID string, req dto.CoursePublishedFunctionRequest) (dto.DispatchResult, error) {
	s.actorID, s.published = actorID, req
	return s.result, s.err
}

func demoResult() dto.DispatchResult {
	return dto.DispatchResult{
		Event:      "course_published",
		Recipients: 2,
		EmailsDemo: 2,
		Demo:       true,
		Outcomes: []dto.RecipientOutcome{
			{UserID: "fan-1", InApp: true, Email: dto.EmailDemo},
			{UserID: "fan-2", InApp: true, Email: dto.EmailDemo},
		},
		InAppWritten: 2,
	}
}

func newFunctionApp(notifier service.DecisionNotifier, guards ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handler.NewFunctionHandler(notifier, zerolog.Nop()).Register(app.Group("/functions/v1"), guards...)
	return app
}

func TestFunctionPreflightSkipsGuards(t *testing.T) {
	guardCalls := 0
	app := newFunctionApp(&stubNotifier{}, func(c *fiber.Ctx) error {
		guardCalls++
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	})

	req := httptest.NewRequest(http.MethodOptions, "/functions/v1/course-decision", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	require.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowHeaders), "authorization")
	require.Zero(t, guardCalls)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/functions/v1/course-decision", map[string]interface{}{"course_id": 1}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	require.Equal(t, 1, guardCalls)
}

func TestFunctionResponseMatchesContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("testdata", "dispatch_result.schema.json"))
	require.NoError(t, err)
	schema, err := jsonschema.NewCompiler().Compile("file://" + schemaPath)
	require.NoError(t, err)

	notifier := &stubNotifier{result: demoResult()}
	app := newFunctionApp(notifier, asUser("admin-1", ""))

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/functions/v1/course-published", map[string]interface{}{
		"course_id":     4,
		"recipient_ids": []string{"fan-1", "fan-2"},
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))

	require.Equal(t, "admin-1", notifier.actorID)
	require.Equal(t, uint(4), notifier.published.CourseID)
	require.Equal(t, []string{"fan-1", "fan-2"}, notifier.published.RecipientIDs)
}

func TestFunctionErrorsUsePlainBody(t *testing.T) {
	cases := []struct {
		name     string
		notifier *stubNotifier
		status   int
	}{
		{name: "validation", notifier: &stubNotifier{err: &service.ValidationError{Fields: map[string]string{"decision": "is required"}}}, status: fiber.StatusBadRequest},
		{name: "forbidden", notifier: &stubNotifier{err: service.ErrForbidden}, status: fiber.StatusForbidden},
		{name: "missing", notifier: &stubNotifier{err: service.ErrApplicationNotFound}, status: fiber.StatusNotFound},
		{name: "mismatch", notifier: &stubNotifier{err: service.ErrInvalidState}, status: fiber.StatusConflict},
		{name: "unresolved", notifier: &stubNotifier{result: dto.DispatchResult{Event: "instructor_approved", Error: "profile lookup failed"}}, status: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newFunctionApp(tc.notifier, asUser("admin-1", ""))
			resp, err := app.Test(jsonRequest(t, http.MethodPost, "/functions/v1/instructor-decision", map[string]interface{}{
				"user_id":  "user-9",
				"decision": "approved",
			}))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var body map[string]interface{}
			decodeResponse(t, resp, &body)
			require.NotEmpty(t, body["error"])
			require.NotContains(t, body, "success")
			require.Equal(t, "user-9", tc.notifier.instructor.UserID)
		})
	}
}

func TestFunctionRejectsMalformedBody(t *testing.T) {
	notifier := &stubNotifier{}
	app := newFunctionApp(notifier, asUser("admin-1", ""))

	req := httptest.NewRequest(http.MethodPost, "/functions/v1/course-decision", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Empty(t, notifier.actorID)
}
