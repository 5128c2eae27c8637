package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-gate-api/pkg/mailer"
)

// OTPMailer delivers login codes to users.
type OTPMailer interface {
	SendOTP(ctx context.Context, to, name, code string, ttl time.Duration) error
}

// MailSender is the subset of the SMTP mailer used for login codes.
type MailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// SMTPOTPMailer sends login codes as plain text email.
type SMTPOTPMailer struct {
	sender  MailSender
	appName string
}

// NewSMTPOTPMailer constructs an email based OTP mailer.
func NewSMTPOTPMailer(sender MailSender, appName string) *SMTPOTPMailer {
	return &SMTPOTPMailer{sender: sender, appName: appName}
}

// SendOTP emails the code.
func (m *SMTPOTPMailer) SendOTP(ctx context.Context, to, name, code string, ttl time.Duration) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour %s login code is %s.\nIt expires in %d minutes. Do not share it with anyone.\n",
		name, m.appName, code, int(ttl/time.Minute),
	)
	return m.sender.Send(ctx, mailer.Message{
		To:      to,
		Subject: fmt.Sprintf("%s login code", m.appName),
		Body:    body,
	})
}

// LogOTPMailer stands in for SMTP when no relay is configured. Codes are only written
// to the log when revealCodes is set, which main limits to the development environment.
type LogOTPMailer struct {
	logger      zerolog.Logger
	revealCodes bool
}

// NewLogOTPMailer constructs a logging OTP mailer.
func NewLogOTPMailer(logger zerolog.Logger, revealCodes bool) *LogOTPMailer {
	return &LogOTPMailer{
		logger:      logger.With().Str("component", "otp_delivery").Logger(),
		revealCodes: revealCodes,
	}
}

// SendOTP logs the delivery and returns nil.
func (l *LogOTPMailer) SendOTP(ctx context.Context, to, name, code string, ttl time.Duration) error {
	event := l.logger.Warn().Str("to", maskEmailAddress(to)).Dur("ttl", ttl)
	if l.revealCodes {
		event = event.Str("code", code)
	}
	event.Msg("smtp not configured; login code not emailed")
	return nil
}
