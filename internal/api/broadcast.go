package api

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/restream/internal/api/models"
	"github.com/smazurov/restream/internal/broadcast"
	"github.com/smazurov/restream/internal/media"
	"github.com/smazurov/restream/internal/metrics"
)

// broadcastError maps pipeline errors to HTTP status errors.
func broadcastError(msg string, err error) error {
	switch {
	case errors.Is(err, broadcast.ErrToggleInProgress):
		return huma.Error409Conflict(msg, err)
	case errors.Is(err, broadcast.ErrNoDestination):
		return huma.Error400BadRequest(msg, err)
	case errors.Is(err, media.ErrMissingElement):
		return huma.NewError(http.StatusFailedDependency, msg, err)
	case errors.Is(err, broadcast.ErrClosed), errors.Is(err, broadcast.ErrNotRunning):
		return huma.Error503ServiceUnavailable(msg, err)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}

func (s *Server) registerBroadcastRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Broadcast Status",
		Description: "Get the state of the camera and microphone branches and of publishing",
		Tags:        []string{"broadcast"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, _ *struct{}) (*models.StatusResponse, error) {
		data := models.StatusData{
			Status:   s.pipeline.Status(),
			Counters: metrics.GetSnapshot(),
		}
		if s.options.Settings != nil {
			if dest := s.options.Settings.Get().Destination(); dest != "" {
				data.Destination = broadcast.RedactDestination(dest)
			}
		}
		if s.options.Tally != nil {
			data.Tally = string(s.options.Tally.State())
		}
		return &models.StatusResponse{Body: data}, nil
	})

	s.registerToggle("camera", s.pipeline.ToggleCamera, func() string { return s.pipeline.Status().Camera })
	s.registerToggle("mic", s.pipeline.ToggleMic, func() string { return s.pipeline.Status().Mic })

	huma.Register(s.api, huma.Operation{
		OperationID: "start-publishing",
		Method:      http.MethodPost,
		Path:        "/api/publish",
		Summary:     "Start Publishing",
		Description: "Start encoding and sending the program to the RTMP server. Calls after the first successful one do nothing.",
		Tags:        []string{"broadcast"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 424, 500, 503},
	}, func(ctx context.Context, input *models.PublishRequest) (*models.PublishResponse, error) {
		destination := ""
		if input.Body != nil {
			destination = strings.TrimSpace(input.Body.Destination)
		}
		if destination == "" && s.options.Settings != nil {
			destination = s.options.Settings.Get().Destination()
		}

		if err := s.pipeline.StartPublishing(destination); err != nil {
			return nil, broadcastError("Failed to start publishing", err)
		}

		resp := &models.PublishResponse{Body: models.PublishData{Publishing: true}}
		if destination != "" {
			resp.Body.Destination = broadcast.RedactDestination(destination)
		}
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-frame",
		Method:      http.MethodGet,
		Path:        "/api/frame",
		Summary:     "Preview Frame",
		Description: "Get the latest composed program frame as JPEG",
		Tags:        []string{"broadcast"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 500},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "JPEG image",
				Content:     map[string]*huma.MediaType{"image/jpeg": {}},
			},
		},
	}, func(ctx context.Context, input *models.FrameRequest) (*models.FrameResponse, error) {
		frame := s.pipeline.Frame()
		if frame.Empty() {
			return nil, huma.Error404NotFound("No frame received yet")
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, frame.Image(), &jpeg.Options{Quality: input.Quality}); err != nil {
			return nil, huma.Error500InternalServerError("Failed to encode frame", err)
		}
		return &models.FrameResponse{
			ContentType:  "image/jpeg",
			CacheControl: "no-store",
			Body:         buf.Bytes(),
		}, nil
	})
}

func (s *Server) registerToggle(branch string, toggle func() error, state func() string) {
	huma.Register(s.api, huma.Operation{
		OperationID: "toggle-" + branch,
		Method:      http.MethodPost,
		Path:        "/api/" + branch + "/toggle",
		Summary:     "Toggle " + strings.ToUpper(branch[:1]) + branch[1:],
		Description: "Attach the " + branch + " branch when it is off and remove it when it is on",
		Tags:        []string{"broadcast"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 424, 500, 503},
	}, func(ctx context.Context, _ *struct{}) (*models.ToggleResponse, error) {
		if err := toggle(); err != nil {
			return nil, broadcastError("Failed to toggle "+branch, err)
		}
		current := state()
		return &models.ToggleResponse{
			Body: models.ToggleData{
				Branch:  branch,
				Enabled: current == broadcast.BranchOn.String(),
				State:   current,
			},
		}, nil
	})
}
