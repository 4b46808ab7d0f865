package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/restream/internal/api/models"
	"github.com/smazurov/restream/internal/config"
	"github.com/smazurov/restream/internal/ingest"
)

func settingsData(s config.Settings) models.SettingsData {
	return models.SettingsData{Settings: s, StreamKeySet: s.StreamKey != ""}
}

func (s *Server) registerSettingsRoutes() {
	if s.options.Settings == nil {
		s.logger.Debug("Settings store not available, skipping settings routes")
		return
	}
	store := s.options.Settings

	huma.Register(s.api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/api/settings",
		Summary:     "Get Settings",
		Description: "Get the broadcast settings. The stream key is never returned.",
		Tags:        []string{"settings"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, _ *struct{}) (*models.SettingsResponse, error) {
		return &models.SettingsResponse{Body: settingsData(store.Get())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "update-settings",
		Method:      http.MethodPatch,
		Path:        "/api/settings",
		Summary:     "Update Settings",
		Description: "Change some broadcast settings and save them. Device changes apply to the next session, the destination to the next publish.",
		Tags:        []string{"settings"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 500},
	}, func(ctx context.Context, input *models.SettingsUpdateRequest) (*models.SettingsResponse, error) {
		u := input.Body
		if u.IngestService != nil {
			if _, err := ingest.ParseService(*u.IngestService); err != nil {
				return nil, huma.Error400BadRequest("Invalid ingest service", err)
			}
		}
		updated, err := store.Update(func(cur *config.Settings) {
			assign(&cur.RTMPURL, u.RTMPURL)
			assign(&cur.StreamKey, u.StreamKey)
			assign(&cur.HDMIDevice, u.HDMIDevice)
			assign(&cur.LineDevice, u.LineDevice)
			assign(&cur.CameraDevice, u.CameraDevice)
			assign(&cur.MicDevice, u.MicDevice)
			assign(&cur.MicMode, u.MicMode)
			assign(&cur.IngestService, u.IngestService)
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to save settings", err)
		}
		s.logger.Info("Settings updated", "path", store.Path())
		return &models.SettingsResponse{Body: settingsData(updated)}, nil
	})

	if s.options.Ingests == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "list-ingests",
		Method:      http.MethodGet,
		Path:        "/api/ingests",
		Summary:     "List Ingests",
		Description: "Get the ingest endpoints of the configured streaming service",
		Tags:        []string{"settings"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 502},
	}, func(ctx context.Context, input *models.IngestListRequest) (*models.IngestListResponse, error) {
		service, catalog, err := s.fetchIngests(ctx)
		if err != nil {
			return nil, err
		}
		if input.AvailableOnly {
			catalog = catalog.Available()
		}
		if input.Filter != "" {
			catalog = catalog.Filter(input.Filter)
		}
		if catalog == nil {
			catalog = ingest.Catalog{}
		}
		return &models.IngestListResponse{
			Body: models.IngestListData{
				Service: string(service),
				Ingests: catalog,
				Count:   len(catalog),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "select-ingest",
		Method:      http.MethodPost,
		Path:        "/api/ingests/select",
		Summary:     "Select Ingest",
		Description: "Use the URL template of an ingest as the RTMP URL and save the settings",
		Tags:        []string{"settings"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404, 500, 502},
	}, func(ctx context.Context, input *models.IngestSelectRequest) (*models.SettingsResponse, error) {
		service, catalog, err := s.fetchIngests(ctx)
		if err != nil {
			return nil, err
		}
		selected, ok := catalog.Find(input.Body.Name)
		if !ok {
			return nil, huma.Error404NotFound("Unknown ingest " + input.Body.Name)
		}
		updated, err := store.Update(func(cur *config.Settings) {
			cur.RTMPURL = selected.URLTemplate
			cur.IngestService = string(service)
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to save settings", err)
		}
		s.logger.Info("Ingest selected", "name", selected.Name, "service", service)
		return &models.SettingsResponse{Body: settingsData(updated)}, nil
	})
}

func (s *Server) fetchIngests(ctx context.Context) (ingest.Service, ingest.Catalog, error) {
	service, err := ingest.ParseService(s.options.Settings.Get().IngestService)
	if err != nil {
		return "", nil, huma.Error400BadRequest("Invalid ingest service", err)
	}
	source, err := s.options.Ingests(service)
	if err != nil {
		return "", nil, huma.Error400BadRequest("No ingest list for "+string(service), err)
	}
	catalog, err := source.Fetch(ctx)
	if err != nil {
		return "", nil, huma.Error502BadGateway("Failed to fetch ingests", err)
	}
	return service, catalog, nil
}

func assign(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
