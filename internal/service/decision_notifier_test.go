package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-market-api/internal/dto"
)

func TestCourseDecisionResendsRecordedDecisionOnly(t *testing.T) {
	f := newWorkflowFixture(t, &fakeMailer{})
	ctx := context.Background()
	id := f.submitCourse(t, "Vue Essentials", 70000)

	_, err := f.notifier.CourseDecision(ctx, adminID, dto.CourseDecisionFunctionRequest{CourseID: id, Decision: "approved"})
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = f.reviews.ReviewCourse(ctx, adminID, id, dto.ReviewRequest{Decision: dto.DecisionReject, Notes: "add exercises"})
	require.NoError(t, err)
	before := len(f.notificationsFor(t, instructorID))

	_, err = f.notifier.CourseDecision(ctx, adminID, dto.CourseDecisionFunctionRequest{CourseID: id, Decision: "approved"})
	require.ErrorIs(t, err, ErrInvalidState)

	result, err := f.notifier.CourseDecision(ctx, adminID, dto.CourseDecisionFunctionRequest{CourseID: id, Decision: "rejected"})
	require.NoError(t, err)
	require.Equal(t, string(EventCourseRejected), result.Event)
	require.True(t, result.Complete())

	items := f.notificationsFor(t, instructorID)
	require.Len(t, items, before+1)
	require.Contains(t, items[len(items)-1].Message, "add exercises")

	_, err = f.notifier.CourseDecision(ctx, instructorID, dto.CourseDecisionFunctionRequest{CourseID: id, Decision: "rejected"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.notifier.CourseDecision(ctx, adminID, dto.CourseDecisionFunctionRequest{CourseID: 404, Decision: "rejected"})
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestInstructorDecisionLooksUpByUser(t *testing.T) {
	f := newWorkflowFixture(t, &fakeMailer{})
	ctx := context.Background()
	id := f.submitApplication(t, learnerID)
	_, err := f.reviews.ReviewApplication(ctx, adminID, id, dto.ReviewRequest{Decision: dto.DecisionApprove})
	require.NoError(t, err)

	result, err := f.notifier.InstructorDecision(ctx, adminID, dto.InstructorDecisionFunctionRequest{UserID: learnerID, Decision: "approve"})
	require.NoError(t, err)
	require.Equal(t, string(EventInstructorApproved), result.Event)
	require.Equal(t, 1, result.Recipients)
	require.True(t, result.Demo)

	_, err = f.notifier.InstructorDecision(ctx, adminID, dto.InstructorDecisionFunctionRequest{Decision: "approve"})
	requireValidationField(t, err, "application_id")

	_, err = f.notifier.InstructorDecision(ctx, adminID, dto.InstructorDecisionFunctionRequest{UserID: "ghost", Decision: "approve"})
	require.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestCoursePublishedRetriesSubset(t *testing.T) {
	f := newWorkflowFixture(t, &fakeMailer{})
	ctx := context.Background()
	seedFollowers(t, f, 3)
	id := f.submitCourse(t, "Svelte in Practice", 60000)

	_, err := f.notifier.CoursePublished(ctx, adminID, dto.CoursePublishedFunctionRequest{CourseID: id})
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = f.reviews.ReviewCourse(ctx, adminID, id, dto.ReviewRequest{Decision: dto.DecisionApprove})
	require.NoError(t, err)
	require.Len(t, f.notificationsFor(t, "fan-2"), 1)

	result, err := f.notifier.CoursePublished(ctx, adminID, dto.CoursePublishedFunctionRequest{CourseID: id, RecipientIDs: []string{"fan-2"}})
	require.NoError(t, err)
	require.Equal(t, 1, result.Recipients)
	require.Len(t, f.notificationsFor(t, "fan-2"), 2)
	require.Len(t, f.notificationsFor(t, "fan-1"), 1)

	all, err := f.notifier.CoursePublished(ctx, adminID, dto.CoursePublishedFunctionRequest{CourseID: id})
	require.NoError(t, err)
	require.Equal(t, 3, all.Recipients)
}
