// Package events carries in-process hand-offs between hook ingress and the
// workers that act on them. Handlers run on the publisher's goroutine and
// their errors flow back to it.
package events

import (
	"context"
	"time"
)

// Event is a named hand-off with the time it was raised.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent stamps an event with the time it was raised.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler acts on an event. A returned error is reported to the publisher.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// Bus delivers events to the handlers subscribed under their name.
type Bus interface {
	// PublishSync runs every handler for event before returning.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
