// Package mailer delivers transactional email through SendGrid.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendEndpoint = "/v3/mail/send"

// ErrNotConfigured is returned by Send when no API key is present.
var ErrNotConfigured = errors.New("mail provider is not configured")

// Message is a single rendered email.
type Message struct {
	To      mail.Address
	Subject string
	Text    string
	HTML    string
}

// Sender delivers rendered messages.
type Sender interface {
	Configured() bool
	Send(ctx context.Context, msg Message) error
}

// Config holds SendGrid credentials and the sender identity.
type Config struct {
	APIKey      string
	FromAddress string
	FromName    string
	// Host overrides the API origin, mostly for tests.
	Host string
}

// SendGrid implements Sender on top of the SendGrid v3 API.
type SendGrid struct {
	cfg        Config
	from       *sgmail.Email
	subjPrefix string
	logger     zerolog.Logger
}

// NewSendGrid constructs a SendGrid sender. An empty API key yields a sender
// that reports itself as not configured.
func NewSendGrid(cfg Config, logger zerolog.Logger) *SendGrid {
	prefix := ""
	if name := strings.TrimSpace(cfg.FromName); name != "" {
		prefix = "[" + name + "] "
	}
	return &SendGrid{
		cfg:        cfg,
		from:       sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		subjPrefix: prefix,
		logger:     logger.With().Str("component", "mailer").Logger(),
	}
}

// Configured reports whether an API key and sender address are set.
func (s *SendGrid) Configured() bool {
	return strings.TrimSpace(s.cfg.APIKey) != "" && strings.TrimSpace(s.cfg.FromAddress) != ""
}

// Send delivers msg and treats any 4xx/5xx response as a failure.
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if strings.TrimSpace(msg.To.Address) == "" {
		return errors.New("recipient address is required")
	}

	client := sendgrid.NewSendClient(s.cfg.APIKey)
	if host := strings.TrimRight(strings.TrimSpace(s.cfg.Host), "/"); host != "" {
		client.BaseURL = host + sendEndpoint
	}

	res, err := client.SendWithContext(ctx, s.prepare(msg))
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sending email: provider returned status %d", res.StatusCode)
	}

	s.logger.Debug().Str("subject", msg.Subject).Int("status", res.StatusCode).Msg("email accepted by provider")
	return nil
}

func (s *SendGrid) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.To.Name, msg.To.Address))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)

	text := msg.Text
	if text == "" {
		text = msg.Subject
	}
	m.AddContent(sgmail.NewContent("text/plain", text))
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return m
}
