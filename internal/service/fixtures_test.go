package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/repository"
)

const (
	adminID      = "admin-1"
	instructorID = "instructor-1"
	learnerID    = "learner-1"
)

// flakyNotifications fails Publish for selected users and delegates otherwise.
type flakyNotifications struct {
	NotificationService
	mu      sync.Mutex
	failFor map[string]bool
}

func (f *flakyNotifications) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	f.mu.Lock()
	fail := f.failFor[payload.UserID]
	f.mu.Unlock()
	if fail {
		return dto.NotificationResponse{}, errors.New("notification store unavailable")
	}
	return f.NotificationService.Publish(ctx, payload)
}

// recordingInvalidator counts catalog invalidations.
type recordingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (r *recordingInvalidator) Invalidate(ctx context.Context) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
}

type workflowFixture struct {
	db            *gorm.DB
	courses       repository.CourseRepository
	applications  repository.ApplicationRepository
	follows       repository.FollowRepository
	profiles      repository.ProfileRepository
	notifications *flakyNotifications
	mailer        *fakeMailer
	roles         RoleAuthority
	dispatcher    NotificationDispatcher
	activity      ActivityService
	catalog       *recordingInvalidator
	submissions   SubmissionService
	reviews       ReviewService
	notifier      DecisionNotifier
}

func newWorkflowFixture(t *testing.T, mail *fakeMailer) *workflowFixture {
	t.Helper()
	db := newTestDB(t)
	validate := testValidator()
	logger := testLogger()

	f := &workflowFixture{
		db:           db,
		courses:      repository.NewCourseRepository(db),
		applications: repository.NewApplicationRepository(db),
		follows:      repository.NewFollowRepository(db),
		profiles:     repository.NewProfileRepository(db),
		mailer:       mail,
		catalog:      &recordingInvalidator{},
	}
	f.notifications = &flakyNotifications{
		NotificationService: NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, validate, logger),
		failFor:             map[string]bool{},
	}
	f.roles = NewRoleAuthority(repository.NewUserRoleRepository(db), logger)
	f.activity = NewActivityService(repository.NewActivityLogRepository(db), logger)
	f.dispatcher = NewNotificationDispatcher(f.notifications, f.follows, f.profiles, mail, DispatcherConfig{Concurrency: 4, AppBaseURL: "https://market.example.com"}, logger)
	f.submissions = NewSubmissionService(f.courses, f.applications, f.profiles, f.roles, f.activity, f.catalog, validate, logger)
	f.reviews = NewReviewService(f.courses, f.applications, f.roles, f.dispatcher, f.activity, f.catalog, validate, logger)
	f.notifier = NewDecisionNotifier(f.courses, f.applications, f.roles, f.dispatcher, validate, logger)

	grantRole(t, db, adminID, models.RoleAdmin)
	grantRole(t, db, instructorID, models.RoleInstructor)
	return f
}

func (f *workflowFixture) submitCourse(t *testing.T, title string, price int64) uint {
	t.Helper()
	created, err := f.submissions.SubmitCourse(context.Background(), instructorID, dto.CourseSubmitRequest{
		Title:       title,
		Description: "A practical course that walks through the fundamentals step by step.",
		Price:       ptrInt64(price),
		Category:    "programming",
		Level:       models.CourseLevelBeginner,
	})
	require.NoError(t, err)
	return created.ID
}

func (f *workflowFixture) submitApplication(t *testing.T, userID string) uint {
	t.Helper()
	created, err := f.submissions.SubmitApplication(context.Background(), userID, dto.ApplicationSubmitRequest{
		FullName:          "Dewi Lestari",
		Email:             userID + "@example.com",
		Bio:               "I have been teaching web development to adults for years and love it a lot.",
		YearsOfExperience: ptrInt(6),
		Expertise:         []string{"React", "TypeScript"},
	})
	require.NoError(t, err)
	return created.ID
}

func (f *workflowFixture) notificationsFor(t *testing.T, userID string) []models.Notification {
	t.Helper()
	var items []models.Notification
	require.NoError(t, f.db.Where("user_id = ?", userID).Order("id ASC").Find(&items).Error)
	return items
}

func (f *workflowFixture) roleCount(t *testing.T, userID string, role models.Role) int64 {
	t.Helper()
	count, err := repository.NewUserRoleRepository(f.db).CountByUserAndRole(context.Background(), userID, role)
	require.NoError(t, err)
	return count
}

func requireValidationField(t *testing.T, err error, field string) {
	t.Helper()
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, field)
}
