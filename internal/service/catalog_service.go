package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/catalog"
	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/observability"
	"github.com/noah-isme/course-market-api/internal/repository"
)

const catalogCacheKey = "catalog:published:v1"

// CatalogInvalidator drops cached catalog data after a publication change.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context)
}

// CatalogService serves the public course catalog and the admin export.
type CatalogService interface {
	CatalogInvalidator
	List(ctx context.Context, query dto.CatalogQuery) (dto.CatalogResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	Export(ctx context.Context, status models.ApprovalStatus) ([]byte, error)
}

type catalogService struct {
	repo   repository.CourseRepository
	cache  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCatalogService constructs the catalog service. A nil cache disables caching.
func NewCatalogService(repo repository.CourseRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) CatalogService {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &catalogService{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "catalog_service").Logger(),
	}
}

func (s *catalogService) List(ctx context.Context, query dto.CatalogQuery) (dto.CatalogResponse, error) {
	courses, hit, err := s.published(ctx)
	if err != nil {
		return dto.CatalogResponse{}, err
	}

	page := catalog.Apply(courses, catalog.Criteria{
		Search:   query.Search,
		Category: query.Category,
		Level:    query.Level,
		MinPrice: query.MinPrice,
		MaxPrice: query.MaxPrice,
		Sort:     query.Sort,
		Page:     query.Page,
		PageSize: query.PageSize,
	})

	return dto.CatalogResponse{
		Items:      dto.NewCourseResponseSlice(page.Items),
		Pagination: dto.NewPaginationMeta(page.Page, page.PageSize, int64(page.Total)),
		CacheHit:   hit,
	}, nil
}

// Get returns a published course. Unpublished courses are reported as not found.
func (s *catalogService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}
	if !course.IsListable() {
		return dto.CourseResponse{}, ErrCourseNotFound
	}
	return dto.NewCourseResponse(course), nil
}

func (s *catalogService) Export(ctx context.Context, status models.ApprovalStatus) ([]byte, error) {
	courses, _, err := s.repo.List(ctx, repository.CourseFilter{Status: status})
	if err != nil {
		return nil, err
	}
	return catalog.ExportCSV(courses)
}

func (s *catalogService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, catalogCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate catalog cache")
	}
}

func (s *catalogService) published(ctx context.Context) ([]models.Course, bool, error) {
	if courses, ok := s.fetchCache(ctx); ok {
		observability.CatalogCacheLookups().WithLabelValues("hit").Inc()
		return courses, true, nil
	}

	courses, err := s.repo.ListPublished(ctx)
	if err != nil {
		observability.CatalogCacheLookups().WithLabelValues("error").Inc()
		return nil, false, err
	}
	s.writeCache(ctx, courses)
	observability.CatalogCacheLookups().WithLabelValues("miss").Inc()
	return courses, false, nil
}

func (s *catalogService) fetchCache(ctx context.Context) ([]models.Course, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, err := s.cache.Get(ctx, catalogCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read catalog cache")
		}
		return nil, false
	}

	var courses []models.Course
	if err := json.Unmarshal(payload, &courses); err != nil {
		s.logger.Warn().Err(err).Msg("failed to decode catalog cache")
		return nil, false
	}
	return courses, true
}

func (s *catalogService) writeCache(ctx context.Context, courses []models.Course) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(courses)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode catalog cache")
		return
	}
	if err := s.cache.Set(ctx, catalogCacheKey, payload, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store catalog cache")
	}
}
