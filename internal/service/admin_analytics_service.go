package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/repository"
)

const (
	analyticsCacheKey = "analytics:review-summary"
	analyticsWeeks    = 8
)

// AdminAnalyticsService aggregates review queue statistics for the admin dashboard.
type AdminAnalyticsService interface {
	GetSummary(ctx context.Context) (dto.AdminAnalyticsResponse, error)
}

type adminAnalyticsService struct {
	repo     repository.AdminAnalyticsRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAdminAnalyticsService constructs the analytics service. cache may be nil.
func NewAdminAnalyticsService(repo repository.AdminAnalyticsRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AdminAnalyticsService {
	return &adminAnalyticsService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "admin_analytics_service").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *adminAnalyticsService) GetSummary(ctx context.Context) (dto.AdminAnalyticsResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/course-market-api/internal/service/admin_analytics")
	ctx, span := tracer.Start(ctx, "analytics.aggregate")
	span.SetAttributes(attribute.String("analytics.cache_key", analyticsCacheKey))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, analyticsCacheKey).Result()
		if err == nil {
			var response dto.AdminAnalyticsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read analytics cache")
			span.RecordError(err)
		}
	}

	courses, err := s.repo.CountCoursesByStatus(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_courses_failed")
		return dto.AdminAnalyticsResponse{}, err
	}
	applications, err := s.repo.CountApplicationsByStatus(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_applications_failed")
		return dto.AdminAnalyticsResponse{}, err
	}
	instructors, err := s.repo.CountRoleHolders(ctx, models.RoleInstructor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_instructors_failed")
		return dto.AdminAnalyticsResponse{}, err
	}

	now := s.now()
	since := startOfWeek(now).AddDate(0, 0, -7*(analyticsWeeks-1))
	decisions, err := s.repo.ListDecisionsSince(ctx, since)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_decisions_failed")
		return dto.AdminAnalyticsResponse{}, err
	}

	summary := buildReviewSummary(now, courses, applications, decisions)
	summary.Instructors = instructors
	span.SetAttributes(
		attribute.Int64("analytics.pending_courses", summary.Courses.Pending),
		attribute.Int("analytics.decision_count", len(decisions)),
	)

	if s.cache != nil {
		payload, err := json.Marshal(summary)
		if err == nil {
			if err := s.cache.Set(ctx, analyticsCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store analytics cache")
				span.RecordError(err)
			}
		}
	}

	return summary, nil
}

func buildReviewSummary(now time.Time, courses, applications []repository.StatusCount, decisions []repository.Decision) dto.AdminAnalyticsResponse {
	summary := dto.AdminAnalyticsResponse{
		Courses:         breakdown(courses),
		Applications:    breakdown(applications),
		WeeklyDecisions: []dto.WeeklyDecisionPoint{},
		GeneratedAt:     now,
	}

	if decided := summary.Courses.Approved + summary.Courses.Rejected; decided > 0 {
		summary.CourseApprovalRate = round2(float64(summary.Courses.Approved) / float64(decided) * 100)
	}

	weekly := map[time.Time]*dto.WeeklyDecisionPoint{}
	var waited time.Duration
	for _, decision := range decisions {
		if decision.DecidedAt.After(decision.SubmittedAt) {
			waited += decision.DecidedAt.Sub(decision.SubmittedAt)
		}
		week := startOfWeek(decision.DecidedAt)
		point, ok := weekly[week]
		if !ok {
			point = &dto.WeeklyDecisionPoint{WeekStart: week}
			weekly[week] = point
		}
		if decision.Status == models.ApprovalApproved {
			point.Approved++
		} else {
			point.Rejected++
		}
	}
	if len(decisions) > 0 {
		summary.AverageReviewHours = round2(waited.Hours() / float64(len(decisions)))
	}

	for _, point := range weekly {
		summary.WeeklyDecisions = append(summary.WeeklyDecisions, *point)
	}
	sort.Slice(summary.WeeklyDecisions, func(i, j int) bool {
		return summary.WeeklyDecisions[i].WeekStart.Before(summary.WeeklyDecisions[j].WeekStart)
	})
	return summary
}

func breakdown(rows []repository.StatusCount) dto.StatusBreakdown {
	var out dto.StatusBreakdown
	for _, row := range rows {
		switch row.Status {
		case models.ApprovalPending:
			out.Pending = row.Total
		case models.ApprovalApproved:
			out.Approved = row.Total
		case models.ApprovalRejected:
			out.Rejected = row.Total
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func startOfWeek(t time.Time) time.Time {
	utc := t.UTC()
	weekday := int(utc.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := utc.AddDate(0, 0, -(weekday - 1))
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}
