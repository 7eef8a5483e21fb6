package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/observability"
	"github.com/noah-isme/course-market-api/internal/repository"
	"github.com/noah-isme/course-market-api/pkg/mailer"
)

// NotificationEvent names a workflow event that fans out notifications.
type NotificationEvent string

const (
	EventCourseApproved     NotificationEvent = "course_approved"
	EventCourseRejected     NotificationEvent = "course_rejected"
	EventInstructorApproved NotificationEvent = "instructor_approved"
	EventInstructorRejected NotificationEvent = "instructor_rejected"
	EventCoursePublished    NotificationEvent = "course_published"
)

const (
	defaultDispatchConcurrency = 8
	defaultMailTimeout         = 10 * time.Second
)

// DispatchPayload carries the record an event is about.
type DispatchPayload struct {
	Event       NotificationEvent
	Course      *models.Course
	Application *models.InstructorApplication
	Notes       string
}

// NotificationDispatcher fans an event out to its recipients over in-app and email channels.
// It never returns an error; every problem is reported in the result.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, payload DispatchPayload) dto.DispatchResult
	DispatchTo(ctx context.Context, payload DispatchPayload, recipientIDs []string) dto.DispatchResult
}

// DispatcherConfig tunes the fan-out.
type DispatcherConfig struct {
	Concurrency int
	MailTimeout time.Duration
	AppBaseURL  string
}

type notificationDispatcher struct {
	notifications NotificationService
	follows       repository.FollowRepository
	profiles      repository.ProfileRepository
	sender        mailer.Sender
	cfg           DispatcherConfig
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewNotificationDispatcher constructs the dispatcher. A nil sender behaves as unconfigured.
func NewNotificationDispatcher(
	notifications NotificationService,
	follows repository.FollowRepository,
	profiles repository.ProfileRepository,
	sender mailer.Sender,
	cfg DispatcherConfig,
	logger zerolog.Logger,
) NotificationDispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultDispatchConcurrency
	}
	if cfg.MailTimeout <= 0 {
		cfg.MailTimeout = defaultMailTimeout
	}
	return &notificationDispatcher{
		notifications: notifications,
		follows:       follows,
		profiles:      profiles,
		sender:        sender,
		cfg:           cfg,
		logger:        logger.With().Str("component", "notification_dispatcher").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/course-market-api/internal/service/dispatcher"),
	}
}

func (d *notificationDispatcher) Dispatch(ctx context.Context, payload DispatchPayload) dto.DispatchResult {
	recipients, err := d.resolveRecipients(ctx, payload)
	if err != nil {
		d.logger.Error().Err(err).Str("event", string(payload.Event)).Msg("failed to resolve notification recipients")
		return dto.DispatchResult{Event: string(payload.Event), Outcomes: []dto.RecipientOutcome{}, Error: err.Error()}
	}
	return d.fanOut(ctx, payload, recipients)
}

func (d *notificationDispatcher) DispatchTo(ctx context.Context, payload DispatchPayload, recipientIDs []string) dto.DispatchResult {
	return d.fanOut(ctx, payload, uniqueIDs(recipientIDs))
}

func (d *notificationDispatcher) resolveRecipients(ctx context.Context, payload DispatchPayload) ([]string, error) {
	switch payload.Event {
	case EventCourseApproved, EventCourseRejected:
		if payload.Course == nil {
			return nil, fmt.Errorf("%s requires a course", payload.Event)
		}
		return []string{payload.Course.InstructorID}, nil
	case EventInstructorApproved, EventInstructorRejected:
		if payload.Application == nil {
			return nil, fmt.Errorf("%s requires an application", payload.Event)
		}
		return []string{payload.Application.UserID}, nil
	case EventCoursePublished:
		if payload.Course == nil {
			return nil, fmt.Errorf("%s requires a course", payload.Event)
		}
		followers, err := d.follows.ListFollowerIDs(ctx, payload.Course.InstructorID)
		if err != nil {
			return nil, fmt.Errorf("list followers: %w", err)
		}
		return uniqueIDs(followers), nil
	default:
		return nil, fmt.Errorf("unknown notification event %q", payload.Event)
	}
}

func (d *notificationDispatcher) fanOut(ctx context.Context, payload DispatchPayload, recipients []string) dto.DispatchResult {
	result := dto.DispatchResult{
		Event:      string(payload.Event),
		Recipients: len(recipients),
		Outcomes:   []dto.RecipientOutcome{},
	}

	content, err := buildContent(payload)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	ctx, span := d.tracer.Start(ctx, "notifications.dispatch", trace.WithAttributes(
		attribute.String("notification.event", string(payload.Event)),
		attribute.Int("notification.recipients", len(recipients)),
	))
	defer span.End()

	// Checked once so a dispatch never mixes demo and live email.
	demo := d.sender == nil || !d.sender.Configured()
	result.Demo = demo
	if len(recipients) == 0 {
		return result
	}

	addresses, lookupErr := d.lookupAddresses(ctx, payload, recipients, demo)

	outcomes := make([]dto.RecipientOutcome, len(recipients))
	var group errgroup.Group
	group.SetLimit(d.cfg.Concurrency)
	for i, recipient := range recipients {
		i, recipient := i, recipient
		group.Go(func() error {
			outcomes[i] = d.deliver(ctx, payload.Event, content, recipient, addresses[recipient], lookupErr, demo)
			return nil
		})
	}
	_ = group.Wait()

	for _, outcome := range outcomes {
		if outcome.InApp {
			result.InAppWritten++
		} else {
			result.InAppFailed++
		}
		switch outcome.Email {
		case dto.EmailSent:
			result.EmailsSent++
		case dto.EmailDemo:
			result.EmailsDemo++
		case dto.EmailSkipped:
			result.EmailsSkipped++
		default:
			result.EmailsFailed++
		}
	}
	result.Outcomes = outcomes

	span.SetAttributes(
		attribute.Int("notification.in_app_failed", result.InAppFailed),
		attribute.Int("notification.emails_failed", result.EmailsFailed),
		attribute.Bool("notification.demo", demo),
	)
	d.logger.Info().
		Str("event", result.Event).
		Int("recipients", result.Recipients).
		Int("in_app_written", result.InAppWritten).
		Int("in_app_failed", result.InAppFailed).
		Int("emails_sent", result.EmailsSent).
		Int("emails_failed", result.EmailsFailed).
		Bool("demo", demo).
		Msg("notification fan-out settled")

	return result
}

func (d *notificationDispatcher) lookupAddresses(ctx context.Context, payload DispatchPayload, recipients []string, demo bool) (map[string]mail.Address, error) {
	addresses := make(map[string]mail.Address, len(recipients))
	if payload.Application != nil && strings.TrimSpace(payload.Application.Email) != "" {
		addresses[payload.Application.UserID] = mail.Address{
			Name:    payload.Application.FullName,
			Address: strings.TrimSpace(payload.Application.Email),
		}
	}
	if d.profiles == nil {
		return addresses, nil
	}

	profiles, err := d.profiles.FindByIDs(ctx, recipients)
	if err != nil {
		if demo {
			// Demo mode only logs, so a missing directory is not a failure.
			d.logger.Warn().Err(err).Msg("profile lookup failed in demo mode")
			return addresses, nil
		}
		return addresses, err
	}
	for _, profile := range profiles {
		if strings.TrimSpace(profile.Email) == "" {
			continue
		}
		addresses[profile.UserID] = mail.Address{Name: profile.FullName, Address: strings.TrimSpace(profile.Email)}
	}
	return addresses, nil
}

func (d *notificationDispatcher) deliver(
	ctx context.Context,
	event NotificationEvent,
	content notificationContent,
	recipient string,
	address mail.Address,
	lookupErr error,
	demo bool,
) (outcome dto.RecipientOutcome) {
	outcome = dto.RecipientOutcome{UserID: recipient, Email: dto.EmailFailed}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Str("user_id", recipient).Msg("notification delivery panicked")
			outcome.Error = appendError(outcome.Error, fmt.Sprintf("panic: %v", r))
		}
		observability.NotificationDispatchOutcomes().WithLabelValues(string(event), "in_app", inAppLabel(outcome.InApp)).Inc()
		observability.NotificationDispatchOutcomes().WithLabelValues(string(event), "email", outcome.Email).Inc()
	}()

	_, err := d.notifications.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  recipient,
		Title:   content.Title,
		Type:    string(content.Type),
		Message: content.Message,
		Link:    content.Link,
	})
	if err != nil {
		d.logger.Warn().Err(err).Str("user_id", recipient).Str("event", string(event)).Msg("failed to write in-app notification")
		outcome.Error = appendError(outcome.Error, "in_app: "+err.Error())
	} else {
		outcome.InApp = true
	}

	outcome.Email, err = d.sendEmail(ctx, content, recipient, address, lookupErr, demo)
	if err != nil {
		outcome.Error = appendError(outcome.Error, "email: "+err.Error())
	}
	return outcome
}

func (d *notificationDispatcher) sendEmail(
	ctx context.Context,
	content notificationContent,
	recipient string,
	address mail.Address,
	lookupErr error,
	demo bool,
) (string, error) {
	html, text, err := content.renderEmail(address.Name, d.cfg.AppBaseURL)
	if err != nil {
		return dto.EmailFailed, fmt.Errorf("render: %w", err)
	}

	if demo {
		d.logger.Info().
			Str("user_id", recipient).
			Str("to", maskEmailAddress(address.Address)).
			Str("subject", content.Subject).
			Msg("mail provider not configured, email not sent")
		d.logger.Debug().Str("user_id", recipient).Str("body", text).Msg("demo email body")
		return dto.EmailDemo, nil
	}
	if lookupErr != nil {
		return dto.EmailFailed, fmt.Errorf("address lookup: %w", lookupErr)
	}
	if address.Address == "" {
		d.logger.Debug().Str("user_id", recipient).Msg("no email address on file, skipping email")
		return dto.EmailSkipped, nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.MailTimeout)
	defer cancel()

	msg := mailer.Message{To: address, Subject: content.Subject, Text: text, HTML: html}
	if err := d.sender.Send(sendCtx, msg); err != nil {
		d.logger.Warn().Err(err).Str("user_id", recipient).Str("to", maskEmailAddress(address.Address)).Msg("email delivery failed")
		return dto.EmailFailed, err
	}
	return dto.EmailSent, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func appendError(existing, next string) string {
	if existing == "" {
		return next
	}
	return existing + "; " + next
}

func inAppLabel(ok bool) string {
	if ok {
		return "written"
	}
	return "failed"
}
