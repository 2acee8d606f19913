// Package email renders and delivers account notification emails.
package email

import (
	"context"
	"time"

	"profile_portal_backend/platform/config"
	"profile_portal_backend/platform/phone"
)

type Sender interface {
	SendPasswordChangedEmail(ctx context.Context, toEmail, username string, changedAt time.Time) error
	SendPhoneVerifiedEmail(ctx context.Context, toEmail, username, phoneNumber string) error
}

// NoopSender drops every email. It is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendPasswordChangedEmail(ctx context.Context, toEmail, username string, changedAt time.Time) error {
	return nil
}

func (NoopSender) SendPhoneVerifiedEmail(ctx context.Context, toEmail, username, phoneNumber string) error {
	return nil
}

// NewSender returns an SMTP sender when SMTP is configured, otherwise a NoopSender.
func NewSender(cfg config.SMTPConfig) (Sender, error) {
	if !cfg.IsSMTPEnabled() {
		return NoopSender{}, nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetSMTPFromAddress(),
		cfg.GetSMTPFromName(),
	), nil
}

func renderPasswordChanged(username string, changedAt time.Time) (string, error) {
	return renderEmailTemplate("password_changed.html", passwordChangedEmailData{
		baseEmailData: baseEmailData{
			Title:   subjectPasswordChanged,
			Heading: subjectPasswordChanged,
		},
		Username:  username,
		ChangedAt: changedAt.Format("2006-01-02 15:04"),
	})
}

func renderPhoneVerified(username, phoneNumber string) (string, error) {
	return renderEmailTemplate("phone_verified.html", phoneVerifiedEmailData{
		baseEmailData: baseEmailData{
			Title:   subjectPhoneVerified,
			Heading: subjectPhoneVerified,
		},
		Username:    username,
		MaskedPhone: phone.Mask(phoneNumber),
	})
}
