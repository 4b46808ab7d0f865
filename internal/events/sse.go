package events

import "github.com/kelindar/event"

// SubscribeToChannel bridges kelindar/event callback-based subscriptions to channels.
// Huma SSE handlers select on a channel, so events are forwarded without blocking
// and dropped when ch is full.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// SubscribeAll forwards every broadcast event (not log entries) to ch and
// returns one function that removes all the subscriptions.
func SubscribeAll(bus *Bus, ch chan<- any) func() {
	unsubs := []func(){
		SubscribeToChannel[CameraToggledEvent](bus, ch),
		SubscribeToChannel[MicToggledEvent](bus, ch),
		SubscribeToChannel[PublishingStartedEvent](bus, ch),
		SubscribeToChannel[PipelineFatalEvent](bus, ch),
		SubscribeToChannel[BroadcastStatsEvent](bus, ch),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
