package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/restream/internal/api/models"
)

// registerLEDRoutes registers LED control endpoints
func (s *Server) registerLEDRoutes() {
	if s.options.LEDController == nil {
		s.logger.Debug("LED controller not available, skipping LED routes")
		return
	}
	controller := s.options.LEDController

	huma.Register(s.api, huma.Operation{
		OperationID: "control-led",
		Method:      http.MethodPost,
		Path:        "/api/leds",
		Summary:     "Control LED",
		Description: "Set an LED directly. The on-air light is overwritten again on the next broadcast event.",
		Tags:        []string{"leds"},
		Errors:      []int{400, 401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.LEDRequest) (*struct{}, error) {
		pattern := ""
		if input.Body.Pattern != nil {
			pattern = *input.Body.Pattern
		}
		if err := controller.Set(input.Body.Type, input.Body.Enabled, pattern); err != nil {
			return nil, huma.Error400BadRequest("Failed to control LED", err)
		}
		return &struct{}{}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-led-capabilities",
		Method:      http.MethodGet,
		Path:        "/api/leds/capabilities",
		Summary:     "Get LED Capabilities",
		Description: "Get the LED types and patterns of this board and the on-air light state",
		Tags:        []string{"leds"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.LEDCapabilitiesResponse, error) {
		data := models.LEDCapabilitiesData{
			AvailableTypes:    controller.Available(),
			AvailablePatterns: controller.Patterns(),
		}
		if s.options.Tally != nil {
			data.Tally = string(s.options.Tally.State())
		}
		return &models.LEDCapabilitiesResponse{Body: data}, nil
	})

	s.logger.Debug("LED routes registered")
}
