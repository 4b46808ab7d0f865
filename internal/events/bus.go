package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers. Delivery is asynchronous.
// Usage: bus.Publish(CameraToggledEvent{...})
func (b *Bus) Publish(ev Event) {
	// kelindar/event is generic over the concrete type, so dispatch by type
	switch e := ev.(type) {
	case CameraToggledEvent:
		event.Publish(b.dispatcher, e)
	case MicToggledEvent:
		event.Publish(b.dispatcher, e)
	case PublishingStartedEvent:
		event.Publish(b.dispatcher, e)
	case PipelineFatalEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler's parameter type selects which events it receives.
// Returns an unsubscribe function; unknown handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e PipelineFatalEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(CameraToggledEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(MicToggledEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PublishingStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PipelineFatalEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
