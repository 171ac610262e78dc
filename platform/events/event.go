// Package events is the in-process publish/subscribe layer used to run side
// effects (reminder scheduling, audit logging) after a transaction commits.
package events

import (
	"context"
	"time"
)

// Event is published on a Bus and routed to subscribers by EventName.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the time an event happened. Embed it in concrete events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with the wall clock.
func NewBaseEvent() BaseEvent {
	return NewBaseEventAt(time.Now())
}

// NewBaseEventAt stamps an event with at, normalized to UTC. Services pass
// their own clock so events agree with the rows they describe.
func NewBaseEventAt(at time.Time) BaseEvent {
	return BaseEvent{Timestamp: at.UTC()}
}

// Handler reacts to one event. It runs after the publishing transaction has
// committed, so its errors never undo that transaction.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes events to the handlers subscribed to their name.
type Bus interface {
	// Publish runs handlers in the background.
	Publish(ctx context.Context, event Event)
	// PublishSync runs handlers in turn and joins their errors.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
