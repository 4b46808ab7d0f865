package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/restream/internal/api/models"
	"github.com/smazurov/restream/internal/devices"
)

func (s *Server) registerDeviceRoutes() {
	if s.options.Devices == nil {
		return
	}
	detector := s.options.Devices

	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List Capture Devices",
		Description: "List video and audio capture devices usable as hdmi_device, camera_device, line_device and mic_device",
		Tags:        []string{"settings"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.DevicesRequest) (*models.DevicesResponse, error) {
		found, err := devices.List(detector)
		if err != nil {
			if len(found) == 0 {
				return nil, huma.Error500InternalServerError("Failed to list devices", err)
			}
			s.logger.Warn("Device listing incomplete", "error", err)
		}

		list := make([]devices.Device, 0, len(found))
		for _, dev := range found {
			if input.Kind == "" || string(dev.Kind) == input.Kind {
				list = append(list, dev)
			}
		}
		return &models.DevicesResponse{Body: models.DevicesData{Devices: list, Count: len(list)}}, nil
	})
}
