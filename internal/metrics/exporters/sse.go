// Package exporters pushes broadcast metrics to API clients.
package exporters

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/smazurov/restream/internal/events"
	"github.com/smazurov/restream/internal/metrics"
)

// EventPublisher interface for publishing events.
type EventPublisher interface {
	Publish(ev events.Event)
}

// SSEExporter periodically publishes broadcast counters as BroadcastStatsEvent.
type SSEExporter struct {
	eventBus EventPublisher
	interval time.Duration
	snapshot func() metrics.Snapshot
	now      func() time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	last   metrics.Snapshot
	lastAt time.Time
}

// NewSSEExporter creates a new SSE exporter.
func NewSSEExporter(eventBus EventPublisher) *SSEExporter {
	return &SSEExporter{
		eventBus: eventBus,
		interval: 1 * time.Second,
		snapshot: metrics.GetSnapshot,
		now:      time.Now,
	}
}

// Start begins the SSE export loop.
func (s *SSEExporter) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.last = s.snapshot()
	s.lastAt = s.now()
	s.wg.Add(1)
	go s.run()
}

// Stop stops the SSE exporter and waits for the goroutine to finish.
func (s *SSEExporter) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *SSEExporter) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.publishStats()
		}
	}
}

func (s *SSEExporter) publishStats() {
	snap := s.snapshot()
	at := s.now()

	var fps float64
	if elapsed := at.Sub(s.lastAt).Seconds(); elapsed > 0 && snap.Frames >= s.last.Frames {
		fps = float64(snap.Frames-s.last.Frames) / elapsed
	}
	s.last, s.lastAt = snap, at

	s.eventBus.Publish(events.BroadcastStatsEvent{
		FPS:            strconv.FormatFloat(fps, 'f', 2, 64),
		Frames:         snap.Frames,
		PipelineErrors: snap.PipelineErrors,
		Timestamp:      at.Format(time.RFC3339),
	})
}
