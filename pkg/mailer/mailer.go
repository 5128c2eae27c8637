package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Config contains the SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Message is a plain text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Service delivers email through an SMTP relay.
type Service struct {
	dialer *gomail.Dialer
	from   string
	logger zerolog.Logger
}

// New constructs an SMTP mailer.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.Host == "" || cfg.Port <= 0 {
		return nil, fmt.Errorf("smtp host and port must be provided")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp sender must be provided")
	}

	return &Service{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger.With().Str("component", "mailer").Logger(),
	}, nil
}

// Send delivers the message. The context is only checked before dialing since the
// SMTP client has no cancellation support.
func (s *Service) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := Compose(s.from, msg)
	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error().Err(err).Str("to", msg.To).Msg("smtp delivery failed")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("email sent")
	return nil
}

// Compose builds the MIME message for msg.
func Compose(from string, msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	return m
}
