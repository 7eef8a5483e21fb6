package utils_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-market-api/internal/utils"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func TestResponseEnvelopes(t *testing.T) {
	cases := []struct {
		name    string
		send    func(c *fiber.Ctx) error
		status  int
		success bool
		message string
		data    string
		meta    string
		details string
	}{
		{
			name:    "success defaults message",
			send:    func(c *fiber.Ctx) error { return utils.SendSuccess(c, "", map[string]uint{"course_id": 4}) },
			status:  fiber.StatusOK,
			success: true,
			message: "success",
			data:    `{"course_id":4}`,
		},
		{
			name: "created submission",
			send: func(c *fiber.Ctx) error {
				return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course submitted for review", map[string]string{"status": "pending"})
			},
			status:  fiber.StatusCreated,
			success: true,
			message: "course submitted for review",
			data:    `{"status":"pending"}`,
		},
		{
			name:    "paged list carries meta",
			send:    func(c *fiber.Ctx) error { return utils.OK(c, []string{"go-basics"}, "courses", map[string]int{"page": 1}) },
			status:  fiber.StatusOK,
			success: true,
			message: "courses",
			data:    `["go-basics"]`,
			meta:    `{"page":1}`,
		},
		{
			name:    "conflict without details",
			send:    func(c *fiber.Ctx) error { return utils.SendError(c, fiber.StatusConflict, "course already reviewed") },
			status:  fiber.StatusConflict,
			message: "course already reviewed",
		},
		{
			name: "validation details",
			send: func(c *fiber.Ctx) error {
				return utils.Fail(c, fiber.StatusUnprocessableEntity, "", map[string]string{"price": "min"})
			},
			status:  fiber.StatusUnprocessableEntity,
			message: "error",
			details: `{"price":"min"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", tc.send)

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tc.status, resp.StatusCode)

			var body envelope
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.Equal(t, tc.success, body.Success)
			require.Equal(t, tc.message, body.Message)
			assertRaw(t, tc.data, body.Data)
			assertRaw(t, tc.meta, body.Meta)
			assertRaw(t, tc.details, body.Details)
		})
	}
}

func assertRaw(t *testing.T, want string, got json.RawMessage) {
	t.Helper()
	if want == "" {
		require.Empty(t, got)
		return
	}
	require.JSONEq(t, want, string(got))
}
