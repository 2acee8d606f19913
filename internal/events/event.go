// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"profile_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Publisher   = events.Publisher
	Subscriber  = events.Subscriber
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Auth Domain Events
// =============================================================================

// PasswordChanged is published after a user successfully changes their password.
type PasswordChanged struct {
	BaseEvent
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

func (e PasswordChanged) EventName() string { return "auth.password.changed" }

// =============================================================================
// Account Domain Events
// =============================================================================

// ProfileUpdated is published after a profile PUT succeeds.
type ProfileUpdated struct {
	BaseEvent
	UserID          uuid.UUID `json:"userId"`
	PortraitChanged bool      `json:"portraitChanged"`
	PhoneChanged    bool      `json:"phoneChanged"`
}

func (e ProfileUpdated) EventName() string { return "account.profile.updated" }

// PhoneVerified is published after a user confirms an OTP for a number.
// Phone is in international form.
type PhoneVerified struct {
	BaseEvent
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
}

func (e PhoneVerified) EventName() string { return "account.phone.verified" }
