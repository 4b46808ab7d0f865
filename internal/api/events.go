package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/restream/internal/broadcast"
	"github.com/smazurov/restream/internal/events"
)

// registerSSERoutes registers the broadcast event stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of branch toggles, publishing start, fatal pipeline errors and periodic stats. The current status is sent first.",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"status":             broadcast.Status{},
		"camera-toggled":     events.CameraToggledEvent{},
		"mic-toggled":        events.MicToggledEvent{},
		"publishing-started": events.PublishingStartedEvent{},
		"pipeline-fatal":     events.PipelineFatalEvent{},
		"stats":              events.BroadcastStatsEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 16)
		unsubscribe := events.SubscribeAll(s.eventBus, eventCh)
		defer unsubscribe()

		if err := send.Data(s.pipeline.Status()); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
