package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/pricing"
	"github.com/noah-isme/course-market-api/internal/repository"
)

// CheckoutService prices a cart. It never charges anything.
type CheckoutService interface {
	Quote(ctx context.Context, req dto.QuoteRequest) (dto.QuoteResponse, error)
}

type checkoutService struct {
	courses   repository.CourseRepository
	discounts pricing.DiscountTable
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCheckoutService constructs the checkout quote service.
func NewCheckoutService(courses repository.CourseRepository, discounts pricing.DiscountTable, validate *validator.Validate, logger zerolog.Logger) CheckoutService {
	if discounts == nil {
		discounts = pricing.DefaultDiscounts()
	}
	return &checkoutService{
		courses:   courses,
		discounts: discounts,
		validator: validate,
		logger:    logger.With().Str("component", "checkout_service").Logger(),
	}
}

func (s *checkoutService) Quote(ctx context.Context, req dto.QuoteRequest) (dto.QuoteResponse, error) {
	if err := validationFromStruct(s.validator, req); err != nil {
		return dto.QuoteResponse{}, err
	}

	ids := make([]uint, 0, len(req.CourseIDs))
	seen := make(map[uint]struct{}, len(req.CourseIDs))
	for _, id := range req.CourseIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	courses, err := s.courses.FindPublishedByIDs(ctx, ids)
	if err != nil {
		return dto.QuoteResponse{}, err
	}
	byID := make(map[uint]models.Course, len(courses))
	for _, course := range courses {
		byID[course.ID] = course
	}

	lines := make([]pricing.Line, 0, len(ids))
	for _, id := range ids {
		course, ok := byID[id]
		if !ok {
			return dto.QuoteResponse{}, fmt.Errorf("%w: %d", ErrCourseNotFound, id)
		}
		lines = append(lines, pricing.Line{CourseID: course.ID, Title: course.Title, Price: course.Price})
	}

	quote, err := s.discounts.Quote(lines, req.DiscountCode)
	if err != nil {
		if errors.Is(err, pricing.ErrUnknownDiscountCode) {
			return dto.QuoteResponse{}, fieldError("discount_code", "is not a valid code")
		}
		return dto.QuoteResponse{}, err
	}

	response := dto.QuoteResponse{
		Lines:           make([]dto.QuoteLine, 0, len(quote.Lines)),
		Subtotal:        quote.Subtotal,
		DiscountCode:    quote.Code,
		DiscountPercent: quote.Percent,
		Discount:        quote.Discount,
		Total:           quote.Total,
	}
	for _, line := range quote.Lines {
		response.Lines = append(response.Lines, dto.QuoteLine{CourseID: line.CourseID, Title: line.Title, Price: line.Price})
	}
	return response, nil
}
