package exporters

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/restream/internal/events"
	"github.com/smazurov/restream/internal/metrics"
)

type mockEventBus struct {
	mu        sync.Mutex
	events    []events.Event
	published chan struct{}
}

func newMockEventBus() *mockEventBus {
	return &mockEventBus{
		events:    make([]events.Event, 0),
		published: make(chan struct{}, 100),
	}
}

func (m *mockEventBus) Publish(ev events.Event) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	select {
	case m.published <- struct{}{}:
	default:
	}
}

func (m *mockEventBus) getEvents() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]events.Event, len(m.events))
	copy(result, m.events)
	return result
}

// fakeClock drives snapshot and now from the test.
type fakeClock struct {
	mu   sync.Mutex
	snap metrics.Snapshot
	at   time.Time
}

func (c *fakeClock) advance(d time.Duration, frames, errors uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
	c.snap.Frames += frames
	c.snap.PipelineErrors += errors
}

func (c *fakeClock) snapshot() metrics.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func newTestExporter(bus EventPublisher, clock *fakeClock) *SSEExporter {
	exporter := NewSSEExporter(bus)
	exporter.snapshot = clock.snapshot
	exporter.now = clock.now
	return exporter
}

func TestSSEExporterComputesFPS(t *testing.T) {
	clock := &fakeClock{at: time.Date(2025, 1, 27, 10, 30, 0, 0, time.UTC), snap: metrics.Snapshot{Frames: 100}}
	mock := newMockEventBus()
	exporter := newTestExporter(mock, clock)
	exporter.last = clock.snapshot()
	exporter.lastAt = clock.now()

	tests := []struct {
		name    string
		elapsed time.Duration
		frames  uint64
		errors  uint64
		wantFPS string
	}{
		{"steady 30fps", 2 * time.Second, 60, 0, "30.00"},
		{"stalled", time.Second, 0, 1, "0.00"},
		{"fractional", 4 * time.Second, 10, 0, "2.50"},
		{"no elapsed time", 0, 5, 0, "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.advance(tt.elapsed, tt.frames, tt.errors)
			exporter.publishStats()

			evts := mock.getEvents()
			stats, ok := evts[len(evts)-1].(events.BroadcastStatsEvent)
			if !ok {
				t.Fatalf("Expected BroadcastStatsEvent, got %T", evts[len(evts)-1])
			}
			if stats.FPS != tt.wantFPS {
				t.Errorf("Expected fps %s, got %s", tt.wantFPS, stats.FPS)
			}
			if want := clock.snapshot(); stats.Frames != want.Frames || stats.PipelineErrors != want.PipelineErrors {
				t.Errorf("Expected counters %+v, got frames=%d errors=%d", want, stats.Frames, stats.PipelineErrors)
			}
		})
	}
}

func TestSSEExporterPublishesPeriodically(t *testing.T) {
	mock := newMockEventBus()
	exporter := NewSSEExporter(mock)
	exporter.interval = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	exporter.Start(ctx)

	select {
	case <-mock.published:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for stats publish")
	}

	cancel()
	exporter.Stop()

	if _, ok := mock.getEvents()[0].(events.BroadcastStatsEvent); !ok {
		t.Errorf("Expected BroadcastStatsEvent, got %T", mock.getEvents()[0])
	}
}

func TestSSEExporterStopIdempotent(t *testing.T) {
	mock := newMockEventBus()
	exporter := NewSSEExporter(mock)
	exporter.interval = 10 * time.Millisecond

	exporter.Start(context.Background())
	time.Sleep(30 * time.Millisecond)

	exporter.Stop()
	exporter.Stop()
	exporter.Stop()

	countAfterStop := len(mock.getEvents())
	time.Sleep(30 * time.Millisecond)
	if countAfterWait := len(mock.getEvents()); countAfterWait != countAfterStop {
		t.Errorf("Expected no events after stop, got %d more", countAfterWait-countAfterStop)
	}
}

func TestSSEExporterStopBeforeStart(t *testing.T) {
	mock := newMockEventBus()
	exporter := NewSSEExporter(mock)
	exporter.interval = 10 * time.Millisecond

	// Stop before start should not panic
	exporter.Stop()

	exporter.Start(t.Context())
	select {
	case <-mock.published:
	case <-time.After(time.Second):
		t.Error("Expected events after Start(), got none")
	}
	exporter.Stop()
}
