// Package events is the in-process event bus modules use to react to each
// other without importing each other.
package events

import (
	"context"
	"time"
)

// Event is something that already happened. Names are dotted and scoped by
// module, e.g. "account.phone.verified".
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent is embedded by concrete events to carry the timestamp.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps an event with the current time in UTC.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Publisher is what services need: they announce changes and never listen.
type Publisher interface {
	// Publish runs handlers in the background; failures are only logged.
	Publish(ctx context.Context, event Event)
	// PublishSync runs handlers in order and returns the first error.
	PublishSync(ctx context.Context, event Event) error
}

// Subscriber is what listeners such as the notification module need.
type Subscriber interface {
	Subscribe(eventName string, handler Handler)
}

type Bus interface {
	Publisher
	Subscriber
}
