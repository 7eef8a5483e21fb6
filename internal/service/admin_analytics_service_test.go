package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/repository"
)

type fakeAnalyticsRepo struct {
	courses      []repository.StatusCount
	applications []repository.StatusCount
	instructors  int64
	decisions    []repository.Decision
	since        time.Time
}

func (f *fakeAnalyticsRepo) CountCoursesByStatus(context.Context) ([]repository.StatusCount, error) {
	return f.courses, nil
}

func (f *fakeAnalyticsRepo) CountApplicationsByStatus(context.Context) ([]repository.StatusCount, error) {
	return f.applications, nil
}

func (f *fakeAnalyticsRepo) CountRoleHolders(_ context.Context, role models.Role) (int64, error) {
	if role != models.RoleInstructor {
		return 0, nil
	}
	return f.instructors, nil
}

func (f *fakeAnalyticsRepo) ListDecisionsSince(_ context.Context, since time.Time) ([]repository.Decision, error) {
	f.since = since
	return append([]repository.Decision(nil), f.decisions...), nil
}

func TestAdminAnalyticsServiceCaching(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	// Wednesday, so the current week started on Monday the 12th.
	now := time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)
	repo := &fakeAnalyticsRepo{
		courses: []repository.StatusCount{
			{Status: models.ApprovalPending, Total: 4},
			{Status: models.ApprovalApproved, Total: 3},
			{Status: models.ApprovalRejected, Total: 1},
		},
		applications: []repository.StatusCount{{Status: models.ApprovalPending, Total: 2}},
		instructors:  5,
		decisions: []repository.Decision{
			{EntityType: "course", Status: models.ApprovalApproved, SubmittedAt: now.Add(-30 * time.Hour), DecidedAt: now.Add(-6 * time.Hour)},
			{EntityType: "instructor_application", Status: models.ApprovalRejected, SubmittedAt: now.Add(-10 * 24 * time.Hour), DecidedAt: now.Add(-9 * 24 * time.Hour)},
		},
	}

	svc := NewAdminAnalyticsService(repo, client, time.Minute, testLogger()).(*adminAnalyticsService)
	svc.now = func() time.Time { return now }

	summary, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	require.False(t, summary.CacheHit)
	require.Equal(t, int64(4), summary.Courses.Pending)
	require.Equal(t, int64(2), summary.Applications.Pending)
	require.Equal(t, int64(5), summary.Instructors)
	require.Equal(t, 75.0, summary.CourseApprovalRate)
	require.Equal(t, 24.0, summary.AverageReviewHours)
	require.Len(t, summary.WeeklyDecisions, 2)
	require.Equal(t, time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC), summary.WeeklyDecisions[0].WeekStart)
	require.Equal(t, int64(1), summary.WeeklyDecisions[0].Rejected)
	require.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), summary.WeeklyDecisions[1].WeekStart)
	require.Equal(t, int64(1), summary.WeeklyDecisions[1].Approved)
	require.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), repo.since)

	repo.instructors = 10
	summaryCached, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	require.True(t, summaryCached.CacheHit)
	require.Equal(t, summary.Instructors, summaryCached.Instructors)
}

func TestAdminAnalyticsRepositoryCountsReviewState(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	reviewedAt := time.Now().UTC()
	reviewer := "admin-1"

	require.NoError(t, db.Create(&models.Course{Title: "Go", Description: "Go for services", InstructorID: "inst-1", ApprovalStatus: models.ApprovalPending}).Error)
	require.NoError(t, db.Create(&models.Course{Title: "SQL", Description: "SQL for analysts", InstructorID: "inst-1", ApprovalStatus: models.ApprovalApproved, IsPublished: true, ApprovedBy: &reviewer, ApprovedAt: &reviewedAt}).Error)
	grantRole(t, db, "inst-1", models.RoleInstructor)

	svc := NewAdminAnalyticsService(repository.NewAdminAnalyticsRepository(db), nil, time.Minute, testLogger())
	summary, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), summary.Courses.Pending)
	require.Equal(t, int64(1), summary.Courses.Approved)
	require.Equal(t, int64(1), summary.Instructors)
	require.Equal(t, 100.0, summary.CourseApprovalRate)
	require.Len(t, summary.WeeklyDecisions, 1)
	require.False(t, summary.CacheHit)
}
