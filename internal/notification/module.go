// Package notification provides event handlers for sending notifications
// in response to domain events.
// This module subscribes to events and inverts the dependency: domain modules
// do not need to know about email providers, templates or queues.
package notification

import (
	"context"

	"profile_portal_backend/internal/events"
	"profile_portal_backend/internal/scheduler"
	"profile_portal_backend/platform/logger"
)

// Module handles all notification-related event subscriptions.
type Module struct {
	emails scheduler.EmailScheduler
	log    *logger.Logger
}

// New creates the notification module. Emails are queued, not sent inline;
// the scheduler worker delivers them.
func New(emails scheduler.EmailScheduler, log *logger.Logger) *Module {
	return &Module{emails: emails, log: log}
}

func (m *Module) Name() string { return "notification" }

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Subscriber) {
	// Auth domain events
	bus.Subscribe(events.PasswordChanged{}.EventName(), m)

	// Account domain events
	bus.Subscribe(events.PhoneVerified{}.EventName(), m)
	bus.Subscribe(events.ProfileUpdated{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.PasswordChanged:
		return m.handlePasswordChanged(ctx, e)
	case events.PhoneVerified:
		return m.handlePhoneVerified(ctx, e)
	case events.ProfileUpdated:
		m.log.WithContext(ctx).Info("profile updated",
			"userId", e.UserID,
			"portraitChanged", e.PortraitChanged,
			"phoneChanged", e.PhoneChanged,
		)
		return nil
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handlePasswordChanged(ctx context.Context, e events.PasswordChanged) error {
	if e.Email == "" {
		return nil
	}
	payload := scheduler.NotificationEmailPayload{
		Kind:       scheduler.EmailPasswordChanged,
		To:         e.Email,
		Username:   e.Username,
		OccurredAt: e.OccurredAt().Unix(),
	}
	if err := m.emails.EnqueueEmail(ctx, payload); err != nil {
		m.log.Error("failed to queue password changed email",
			"userId", e.UserID,
			"error", err,
		)
		return err
	}
	m.log.Info("password changed email queued", "userId", e.UserID)
	return nil
}

func (m *Module) handlePhoneVerified(ctx context.Context, e events.PhoneVerified) error {
	if e.Email == "" {
		return nil
	}
	payload := scheduler.NotificationEmailPayload{
		Kind:       scheduler.EmailPhoneVerified,
		To:         e.Email,
		Username:   e.Username,
		Phone:      e.Phone,
		OccurredAt: e.OccurredAt().Unix(),
	}
	if err := m.emails.EnqueueEmail(ctx, payload); err != nil {
		m.log.Error("failed to queue phone verified email",
			"userId", e.UserID,
			"error", err,
		)
		return err
	}
	m.log.Info("phone verified email queued", "userId", e.UserID)
	return nil
}
