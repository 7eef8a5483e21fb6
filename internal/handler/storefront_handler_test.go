package handler_test

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/course-market-api/internal/database"
	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/handler"
	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/pricing"
	"github.com/noah-isme/course-market-api/internal/repository"
	"github.com/noah-isme/course-market-api/internal/service"
)

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedCourse(t *testing.T, db *gorm.DB, title string, price int64, status models.ApprovalStatus) models.Course {
	t.Helper()
	course := models.Course{
		Title:          title,
		Description:    "A practical course about " + title,
		Price:          price,
		Category:       "programming",
		Level:          "beginner",
		InstructorID:   "inst-1",
		ApprovalStatus: status,
		IsPublished:    status == models.ApprovalApproved,
	}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func TestCatalogHandlerListsPublishedOnly(t *testing.T) {
	db := setupHandlerDB(t)
	seedCourse(t, db, "Go Basics", 149999, models.ApprovalApproved)
	seedCourse(t, db, "Draft Course", 1000, models.ApprovalPending)

	validate := validator.New(validator.WithRequiredStructEnabled())
	catalog := service.NewCatalogService(repository.NewCourseRepository(db), nil, 0, zerolog.Nop())
	app := fiber.New()
	h := handler.NewCatalogHandler(catalog, validate, zerolog.Nop())
	h.Register(app.Group("/courses"))
	h.RegisterAdmin(app.Group("/admin"))

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/courses?sort=price_desc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.CourseResponse `json:"data"`
		Meta struct {
			Pagination dto.PaginationMeta `json:"pagination"`
			CacheHit   bool               `json:"cache_hit"`
		} `json:"meta"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 1)
	require.Equal(t, "Go Basics", body.Data[0].Title)
	require.Equal(t, int64(1), body.Meta.Pagination.TotalItems)
	require.False(t, body.Meta.CacheHit)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/courses?sort=random", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/admin/courses/export", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/csv")
	require.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "courses-")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(data), "Draft Course")
	require.Contains(t, string(data), "Go Basics")

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/admin/courses/export?status=archived", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCatalogHandlerRejectsOutOfRangePage(t *testing.T) {
	db := setupHandlerDB(t)
	seedCourse(t, db, "Go Basics", 149999, models.ApprovalApproved)

	catalog := service.NewCatalogService(repository.NewCourseRepository(db), nil, 0, zerolog.Nop())
	app := fiber.New()
	handler.NewCatalogHandler(catalog, validator.New(), zerolog.Nop()).Register(app.Group("/courses"))

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/courses?page=9223372036854775807", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/courses?page=100000", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCatalogHandlerHidesUnpublishedCourse(t *testing.T) {
	db := setupHandlerDB(t)
	draft := seedCourse(t, db, "Draft Course", 1000, models.ApprovalPending)

	catalog := service.NewCatalogService(repository.NewCourseRepository(db), nil, 0, zerolog.Nop())
	app := fiber.New()
	handler.NewCatalogHandler(catalog, validator.New(), zerolog.Nop()).Register(app.Group("/courses"))

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/courses/"+uintString(draft.ID), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCheckoutHandlerQuotes(t *testing.T) {
	db := setupHandlerDB(t)
	course := seedCourse(t, db, "Go Basics", 149999, models.ApprovalApproved)

	validate := validator.New(validator.WithRequiredStructEnabled())
	checkout := service.NewCheckoutService(repository.NewCourseRepository(db), pricing.DefaultDiscounts(), validate, zerolog.Nop())
	app := fiber.New()
	handler.NewCheckoutHandler(checkout, zerolog.Nop()).Register(app.Group("/checkout"))

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/checkout/quote", dto.QuoteRequest{CourseIDs: []uint{course.ID}, DiscountCode: "student20"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.QuoteResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, int64(149999), body.Data.Subtotal)
	require.Equal(t, int64(120000), body.Data.Total)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/checkout/quote", dto.QuoteRequest{}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFollowHandlerGuardsOnlyMutations(t *testing.T) {
	db := setupHandlerDB(t)
	follows := service.NewFollowService(repository.NewFollowRepository(db), zerolog.Nop())

	app := fiber.New()
	requireUser := func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.Next()
	}
	handler.NewFollowHandler(follows, zerolog.Nop()).Register(app.Group("/instructors"), requireUser, asUser("learner-1", ""))

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/instructors/inst-1/follow", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := jsonRequest(t, http.MethodPost, "/instructors/inst-1/follow", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data dto.FollowResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Data.Following)
	require.Equal(t, int64(1), body.Data.Followers)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/instructors/inst-1/followers/count", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeResponse(t, resp, &body)
	require.Equal(t, int64(1), body.Data.Followers)
	require.False(t, body.Data.Following)
}

func TestNotificationHandlerScopesToCaller(t *testing.T) {
	db := setupHandlerDB(t)
	validate := validator.New(validator.WithRequiredStructEnabled())
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, validate, zerolog.Nop())

	ctx := context.Background()
	mine, err := notifications.Publish(ctx, dto.NotificationCreateRequest{UserID: "user-1", Title: "Approved", Type: "course", Message: "Your course is live"})
	require.NoError(t, err)
	theirs, err := notifications.Publish(ctx, dto.NotificationCreateRequest{UserID: "user-2", Title: "Approved", Type: "course", Message: "Your course is live"})
	require.NoError(t, err)

	app := fiber.New()
	handler.NewNotificationHandler(notifications, zerolog.Nop(), 0).Register(app.Group("/notifications", asUser("user-1", "")))

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/notifications/unread-count", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var count struct {
		Data dto.UnreadCountResponse `json:"data"`
	}
	decodeResponse(t, resp, &count)
	require.Equal(t, int64(1), count.Data.Unread)

	resp, err = app.Test(jsonRequest(t, http.MethodPatch, "/notifications/"+uintString(theirs.ID)+"/read", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodPatch, "/notifications/"+uintString(mine.ID)+"/read", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodDelete, "/notifications/"+uintString(mine.ID), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/notifications", nil))
	require.NoError(t, err)
	var list struct {
		Data []dto.NotificationResponse `json:"data"`
	}
	decodeResponse(t, resp, &list)
	require.Empty(t, list.Data)
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
