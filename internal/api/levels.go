package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/restream/internal/api/models"
)

func (s *Server) levels() models.LevelsData {
	return models.LevelsData{
		Output: s.pipeline.OutputLevels(),
		Mic:    s.pipeline.MicLevels(),
	}
}

func (s *Server) registerLevelRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-levels",
		Method:      http.MethodGet,
		Path:        "/api/levels",
		Summary:     "Audio Levels",
		Description: "Get the latest program output and microphone levels",
		Tags:        []string{"levels"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, _ *struct{}) (*models.LevelsResponse, error) {
		return &models.LevelsResponse{Body: s.levels()}, nil
	})

	sse.Register(s.api, huma.Operation{
		OperationID: "levels-stream",
		Method:      http.MethodGet,
		Path:        "/api/levels/stream",
		Summary:     "Audio Level Stream",
		Description: "Stream program output and microphone levels via Server-Sent Events. A message is sent whenever the levels changed since the last one.",
		Tags:        []string{"levels"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"levels": models.LevelsData{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		last := s.levels()
		if err := send.Data(last); err != nil {
			return
		}

		ticker := time.NewTicker(s.options.LevelInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				current := s.levels()
				if current == last {
					continue
				}
				if err := send.Data(current); err != nil {
					return
				}
				last = current
			}
		}
	})
}
