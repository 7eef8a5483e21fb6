package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/observability"
	"github.com/noah-isme/course-market-api/internal/repository"
)

// NotificationService stores in-app notifications and streams them to connected clients via SSE.
type NotificationService interface {
	Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error)
	List(ctx context.Context, userID string, limit, offset int) ([]dto.NotificationResponse, error)
	UnreadCount(ctx context.Context, userID string) (dto.UnreadCountResponse, error)
	MarkRead(ctx context.Context, id uint, userID string) (dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id uint, userID string) error
	Subscribe(userID string) (<-chan dto.NotificationResponse, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo      repository.NotificationRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	sanitizer *bluemonday.Policy
	hub       *notificationHub
	relays    []notificationRelay
	seen      *relaySeen
	nodeID    string
}

// NewNotificationService constructs a notification service. Redis and NATS are
// optional; each one configured relays notifications to the other API nodes so
// a user's stream receives them whichever node stored the row.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	var relays []notificationRelay
	if channelBase != "" {
		if redisClient != nil {
			relays = append(relays, &redisRelay{client: redisClient, channel: channelBase + ":notifications"})
		}
		if natsConn != nil {
			relays = append(relays, &natsRelay{conn: natsConn, subject: strings.ReplaceAll(channelBase, ":", ".") + ".notifications"})
		}
	}

	return &notificationService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/course-market-api/internal/service/notification"),
		sanitizer: bluemonday.StrictPolicy(),
		hub:       newNotificationHub(),
		relays:    relays,
		seen:      newRelaySeen(relaySeenCapacity),
		nodeID:    uuid.NewString(),
	}
}

func (s *notificationService) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	if err := validationFromStruct(s.validator, payload); err != nil {
		return dto.NotificationResponse{}, err
	}

	cleanTitle := strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
	cleanMessage := strings.TrimSpace(s.sanitizer.Sanitize(payload.Message))
	if cleanMessage == "" || cleanTitle == "" {
		return dto.NotificationResponse{}, fieldError("message", "is empty after sanitization")
	}

	attrs := []attribute.KeyValue{
		attribute.String("notification.user_id", payload.UserID),
		attribute.String("notification.type", payload.Type),
	}

	spanCtx, span := s.tracer.Start(ctx, "notifications.publish", trace.WithAttributes(attrs...))
	defer span.End()

	model := models.Notification{
		UserID:  payload.UserID,
		Title:   cleanTitle,
		Type:    models.NotificationType(payload.Type),
		Message: cleanMessage,
		Link:    strings.TrimSpace(payload.Link),
	}

	if err := s.repo.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}

	response := dto.NewNotificationResponse(model)
	s.hub.deliver(response)
	s.relay(spanCtx, response)

	observability.NotificationsPublishedTotal().WithLabelValues(response.Type).Inc()
	s.logger.Debug().Str("user_id", response.UserID).Str("type", response.Type).Uint("notification_id", response.ID).Msg("notification published")

	return response, nil
}

func (s *notificationService) List(ctx context.Context, userID string, limit, offset int) ([]dto.NotificationResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user id is required")
	}

	notifications, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) MarkRead(ctx context.Context, id uint, userID string) (dto.NotificationResponse, error) {
	attrs := []attribute.KeyValue{
		attribute.String("notification.user_id", userID),
	}
	spanCtx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(attrs...))
	defer span.End()

	notification, err := s.repo.MarkRead(spanCtx, id, userID)
	if err != nil {
		span.RecordError(err)
		if repository.IsNotFound(err) {
			return dto.NotificationResponse{}, ErrNotificationNotFound
		}
		return dto.NotificationResponse{}, err
	}

	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (dto.UnreadCountResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return dto.UnreadCountResponse{}, errors.New("user id is required")
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return dto.UnreadCountResponse{}, err
	}
	return dto.UnreadCountResponse{Unread: count}, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, errors.New("user id is required")
	}
	spanCtx, span := s.tracer.Start(ctx, "notifications.mark_all_read", trace.WithAttributes(attribute.String("notification.user_id", userID)))
	defer span.End()

	updated, err := s.repo.MarkAllRead(spanCtx, userID)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return updated, nil
}

// Delete removes a notification owned by userID. Other users' rows are reported as not found.
func (s *notificationService) Delete(ctx context.Context, id uint, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}
