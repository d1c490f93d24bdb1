package services

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/yungbote/vici-backend/internal/platform/logger"
	"github.com/yungbote/vici-backend/internal/platform/sendgrid"
)

// ErrMailDisabled is returned when no email provider is configured.
var ErrMailDisabled = errors.New("email delivery not configured")

type Mailer interface {
	SendWelcome(ctx context.Context, toEmail, username string) error
	SendPasswordReset(ctx context.Context, toEmail, username, resetURL string) error
}

type mailer struct {
	log    *logger.Logger
	client sendgrid.Client
}

// NewMailer sends through SendGrid. A nil client yields a mailer that logs
// and reports ErrMailDisabled.
func NewMailer(log *logger.Logger, client sendgrid.Client) Mailer {
	return &mailer{log: log.With("service", "Mailer"), client: client}
}

func (m *mailer) SendWelcome(ctx context.Context, toEmail, username string) error {
	name := html.EscapeString(username)
	return m.send(ctx, sendgrid.Message{
		To:         []sendgrid.Address{{Email: toEmail, Name: username}},
		Subject:    "Welcome to VICI!",
		Text:       fmt.Sprintf("Welcome, %s! Your academic journey begins now. Your account is active and ready.", username),
		HTML:       fmt.Sprintf(`<div style="font-family: sans-serif; padding: 20px;"><h1>Welcome, %s!</h1><p>Your academic journey begins now. Your account is active and ready.</p></div>`, name),
		Categories: []string{"welcome"},
		Args:       map[string]string{"kind": "welcome"},
	})
}

func (m *mailer) SendPasswordReset(ctx context.Context, toEmail, username, resetURL string) error {
	link := html.EscapeString(resetURL)
	return m.send(ctx, sendgrid.Message{
		To:         []sendgrid.Address{{Email: toEmail, Name: username}},
		Subject:    "Password Reset Request",
		Text:       "You requested a password reset. Open this link within 1 hour: " + resetURL,
		HTML:       fmt.Sprintf(`<div style="font-family: sans-serif;"><h2>Academic Record Recovery</h2><p>You requested a password reset. Please click the link below:</p><a href="%s">Reset Password</a><p style="font-size: 12px;">Link expires in 1 hour.</p></div>`, link),
		Categories: []string{"password_reset"},
		Args:       map[string]string{"kind": "password_reset"},
	})
}

func (m *mailer) send(ctx context.Context, req sendgrid.Message) error {
	if m.client == nil {
		m.log.Warn("Email not sent, provider disabled", "subject", req.Subject)
		return ErrMailDisabled
	}
	rec, err := m.client.Send(ctx, req)
	if err != nil {
		return err
	}
	m.log.Debug("Email dispatched", "subject", req.Subject, "message_id", rec.MessageID)
	return nil
}
